package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/flow-api/internal/model"
)

// Report aggregates completed visits whose date falls inside [from, to]:
// overall wait statistics, breakdowns by hour, weekday and specialty, peak
// versus off-peak, and a per-doctor table ordered busiest first.
func (s *Service) Report(ctx context.Context, from, to time.Time) (*model.WaitTimeReport, error) {
	appointments, doctors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	fromDate := model.DateOf(from)
	toDate := model.DateOf(to)

	var rows []*model.Appointment
	for _, a := range appointments {
		if a.Status != model.AppointmentStatusCompleted {
			continue
		}
		d := a.Date()
		if d.Before(fromDate) || d.After(toDate) {
			continue
		}
		rows = append(rows, a)
	}

	report := &model.WaitTimeReport{
		From:            fromDate,
		To:              toDate,
		Appointments:    len(rows),
		WaitByHour:      []model.FlowStat{},
		WaitByWeekday:   []model.FlowStat{},
		WaitBySpecialty: []model.SpecialtyWaitStat{},
		Doctors:         []model.DoctorReportRow{},
	}
	if len(rows) == 0 {
		return report, nil
	}

	early := 0
	for _, a := range rows {
		if a.WaitTimeMinutes > report.MaxWaitMinutes {
			report.MaxWaitMinutes = a.WaitTimeMinutes
		}
		if a.ArrivedEarly {
			early++
		}
	}
	report.AvgWaitMinutes = meanWait(rows)
	report.EarlyPercent = float64(early) / float64(len(rows)) * 100

	report.WaitByHour = bucketStats(rows, func(a *model.Appointment) int { return a.HourOfDay() })
	report.WaitByWeekday = bucketStats(rows, func(a *model.Appointment) int { return a.DayOfWeek() })

	var peak, offPeak []*model.Appointment
	for _, a := range rows {
		if h := a.HourOfDay(); h >= peakStartHour && h < peakEndHour {
			peak = append(peak, a)
		} else {
			offPeak = append(offPeak, a)
		}
	}
	report.PeakAvgWait = meanWait(peak)
	report.OffPeakAvgWait = meanWait(offPeak)

	index := indexDoctors(doctors)

	type specAcc struct {
		count   int
		waitSum int
	}
	specAccs := make(map[model.Specialty]*specAcc)
	for _, a := range rows {
		doc, ok := index[a.DoctorID]
		if !ok {
			continue
		}
		acc, ok := specAccs[doc.Specialty]
		if !ok {
			acc = &specAcc{}
			specAccs[doc.Specialty] = acc
		}
		acc.count++
		acc.waitSum += a.WaitTimeMinutes
	}
	for spec, acc := range specAccs {
		report.WaitBySpecialty = append(report.WaitBySpecialty, model.SpecialtyWaitStat{
			Specialty:      spec,
			AvgWaitMinutes: float64(acc.waitSum) / float64(acc.count),
			Count:          acc.count,
		})
	}
	sort.Slice(report.WaitBySpecialty, func(i, j int) bool {
		return report.WaitBySpecialty[i].Specialty < report.WaitBySpecialty[j].Specialty
	})

	byDoctor := make(map[string][]*model.Appointment)
	for _, a := range rows {
		byDoctor[a.DoctorID.String()] = append(byDoctor[a.DoctorID.String()], a)
	}
	for _, doc := range doctors {
		docRows := byDoctor[doc.ID.String()]
		if len(docRows) == 0 {
			continue
		}
		docEarly := 0
		for _, a := range docRows {
			if a.ArrivedEarly {
				docEarly++
			}
		}
		report.Doctors = append(report.Doctors, model.DoctorReportRow{
			DoctorID:       doc.ID,
			Name:           doc.Name,
			Specialty:      doc.Specialty,
			Appointments:   len(docRows),
			AvgWaitMinutes: meanWait(docRows),
			EarlyPercent:   float64(docEarly) / float64(len(docRows)) * 100,
		})
	}
	sort.SliceStable(report.Doctors, func(i, j int) bool {
		return report.Doctors[i].Appointments > report.Doctors[j].Appointments
	})

	return report, nil
}

func bucketStats(rows []*model.Appointment, key func(*model.Appointment) int) []model.FlowStat {
	type acc struct {
		count   int
		waitSum int
	}
	accs := make(map[int]*acc)
	for _, a := range rows {
		b := key(a)
		if accs[b] == nil {
			accs[b] = &acc{}
		}
		accs[b].count++
		accs[b].waitSum += a.WaitTimeMinutes
	}

	buckets := make([]int, 0, len(accs))
	for b := range accs {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	stats := make([]model.FlowStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, model.FlowStat{
			Bucket:         b,
			AvgWaitMinutes: float64(accs[b].waitSum) / float64(accs[b].count),
			Count:          accs[b].count,
		})
	}
	return stats
}
