package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/model"
)

const (
	peakBasePriority = 100
	offPeakPriority  = 50
	backlogPenalty   = 10
)

const dateLayout = "2006-01-02"

// DoctorBacklog grades how congested a doctor's remaining day is on a 0-5
// scale, counting only appointments on asOf's date that start at or after it.
func DoctorBacklog(appointments []*model.Appointment, doctorID uuid.UUID, asOf time.Time) int {
	remaining := 0
	for _, a := range appointments {
		if a.DoctorID == doctorID && a.UpcomingAt(asOf) {
			remaining++
		}
	}

	switch {
	case remaining <= 2:
		return 0
	case remaining <= 5:
		return 1
	case remaining <= 8:
		return 2
	case remaining <= 12:
		return 3
	case remaining <= 15:
		return 4
	default:
		return 5
	}
}

// OptimalSlots proposes open (doctor, date, time) slots for the next planning
// window, skipping weekends and hours a doctor is already fully booked.
// Evening slots score higher for quick consultations, and every slot is
// penalized by its doctor's current backlog. The sort is stable, so equal
// priorities keep doctor, day, hour order.
func OptimalSlots(appointments []*model.Appointment, doctors []*model.Doctor, asOf time.Time) []*model.CandidateSlot {
	slots := make([]*model.CandidateSlot, 0)
	if len(appointments) == 0 || len(doctors) == 0 {
		return slots
	}

	type hourKey struct {
		doctor uuid.UUID
		date   string
		hour   int
	}
	booked := make(map[hourKey]int, len(appointments))
	for _, a := range appointments {
		booked[hourKey{a.DoctorID, a.Date().Format(dateLayout), a.HourOfDay()}]++
	}

	for _, doc := range doctors {
		if !doc.Available {
			continue
		}

		slotsPerHour := 1
		if doc.AvgConsultationMinutes > 0 {
			if per := 60 / doc.AvgConsultationMinutes; per > slotsPerHour {
				slotsPerHour = per
			}
		}
		step := 60 / slotsPerHour
		backlog := DoctorBacklog(appointments, doc.ID, asOf)

		for offset := 0; offset < PlanningDays; offset++ {
			day := model.DateOf(asOf).AddDate(0, 0, offset)
			if model.IsWeekend(day) {
				continue
			}
			date := day.Format(dateLayout)

			for hour := OpeningHour; hour < ClosingHour; hour++ {
				taken := booked[hourKey{doc.ID, date, hour}]
				if taken >= slotsPerHour {
					continue
				}

				isPeak := hour >= PeakStartHour && hour < PeakEndHour
				priority := offPeakPriority
				if isPeak {
					priority = peakBasePriority - doc.AvgConsultationMinutes
				}
				priority -= backlogPenalty * backlog

				for i := 0; i < slotsPerHour-taken; i++ {
					slots = append(slots, &model.CandidateSlot{
						DoctorID:                doc.ID,
						DoctorName:              doc.Name,
						Specialty:               doc.Specialty,
						Date:                    day,
						Time:                    fmt.Sprintf("%02d:%02d", hour, step*i),
						ExpectedDurationMinutes: doc.AvgConsultationMinutes,
						Priority:                priority,
						IsPeakHour:              isPeak,
					})
				}
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Priority > slots[j].Priority
	})
	return slots
}
