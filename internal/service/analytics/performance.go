package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/model"
)

const (
	performanceWindowDays = 7
	onTimeWaitMinutes     = 15

	efficiencyFloor   = 50.0
	satisfactionFloor = 60.0
)

// StaffPerformance scores each doctor over the trailing week of completed
// visits. Efficiency and satisfaction are derived from the average wait with
// a floor, so a rough week degrades the score without zeroing it. Doctors
// with no completed visits in the window are omitted.
func (s *Service) StaffPerformance(ctx context.Context) ([]*model.StaffPerformance, error) {
	appointments, doctors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	asOf := s.clock.Now()
	windowEnd := model.DateOf(asOf)
	windowStart := windowEnd.AddDate(0, 0, -performanceWindowDays)

	byDoctor := make(map[uuid.UUID][]*model.Appointment)
	for _, a := range appointments {
		if a.Status != model.AppointmentStatusCompleted {
			continue
		}
		d := a.Date()
		if d.Before(windowStart) || d.After(windowEnd) {
			continue
		}
		byDoctor[a.DoctorID] = append(byDoctor[a.DoctorID], a)
	}

	out := make([]*model.StaffPerformance, 0, len(doctors))
	for _, doc := range doctors {
		rows := byDoctor[doc.ID]
		if len(rows) == 0 {
			continue
		}

		onTime, early := 0, 0
		for _, a := range rows {
			if a.WaitTimeMinutes <= onTimeWaitMinutes {
				onTime++
			}
			if a.ArrivedEarly {
				early++
			}
		}

		avgWait := meanWait(rows)
		perf := &model.StaffPerformance{
			DoctorID:       doc.ID,
			Name:           doc.Name,
			Specialty:      doc.Specialty,
			PatientsSeen:   len(rows),
			AvgWaitMinutes: avgWait,
			OnTimePercent:  float64(onTime) / float64(len(rows)) * 100,
			Efficiency:     math.Max(efficiencyFloor, 100-avgWait*1.5),
			Satisfaction:   math.Max(satisfactionFloor, 100-avgWait*2),
			EarlyHandled:   float64(early) / float64(len(rows)) * 100,
			Achievements:   []string{},
		}

		if perf.OnTimePercent > 90 {
			perf.Achievements = append(perf.Achievements, "Punctuality Star")
		}
		if perf.Efficiency > 90 {
			perf.Achievements = append(perf.Achievements, "Efficiency Expert")
		}
		if perf.Satisfaction > 90 {
			perf.Achievements = append(perf.Achievements, "Patient Favorite")
		}
		if perf.PatientsSeen > 15 {
			perf.Achievements = append(perf.Achievements, "High Volume")
		}
		if perf.EarlyHandled > 80 {
			perf.Achievements = append(perf.Achievements, "Early Bird")
		}

		out = append(out, perf)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PatientsSeen > out[j].PatientsSeen
	})
	return out, nil
}
