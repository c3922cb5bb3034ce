package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/model"
)

const (
	dailyCapacityMinutes     = 9 * 60
	overbookingThreshold     = 0.85
	peakCongestionLimit      = 30
	congestionWindowHours    = 2
	underutilizedLimit       = 5
	earlyArrivalThresholdPct = 40.0
	imbalanceRatio           = 2
)

// Recommendations inspects today's book and returns at most
// MaxRecommendations findings, checked in a fixed order: overbooked doctors,
// peak-hour congestion, underutilized doctors, early arrival drift, then
// specialty imbalance. With nothing to flag it returns a single balanced
// finding.
func Recommendations(appointments []*model.Appointment, doctors []*model.Doctor, asOf time.Time) []*model.Finding {
	if len(appointments) == 0 || len(doctors) == 0 {
		return []*model.Finding{{Kind: model.FindingInsufficientData}}
	}

	var today []*model.Appointment
	for _, a := range appointments {
		if a.OnDate(asOf) {
			today = append(today, a)
		}
	}
	if len(today) == 0 {
		return []*model.Finding{{Kind: model.FindingNoAppointments}}
	}

	index := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for _, d := range doctors {
		index[d.ID] = d
	}

	counts := make(map[uuid.UUID]int, len(doctors))
	var seen []uuid.UUID
	for _, a := range today {
		if counts[a.DoctorID] == 0 {
			seen = append(seen, a.DoctorID)
		}
		counts[a.DoctorID]++
	}

	var findings []*model.Finding

	// busiest doctors first; ties keep first-appearance order
	ordered := make([]uuid.UUID, len(seen))
	copy(ordered, seen)
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] > counts[ordered[j]]
	})
	for _, id := range ordered {
		doc, ok := index[id]
		if !ok {
			continue
		}
		capacity := float64(dailyCapacityMinutes) / float64(doc.AvgConsultationMinutes)
		if float64(counts[id]) > overbookingThreshold*capacity {
			findings = append(findings, &model.Finding{
				Kind:       model.FindingOverbookedDoctor,
				DoctorID:   doc.ID,
				DoctorName: doc.Name,
				Specialty:  doc.Specialty,
				Count:      counts[id],
				Capacity:   capacity,
			})
		}
	}

	if asOf.Hour() >= PeakStartHour && asOf.Hour() < PeakEndHour {
		windowEnd := asOf.Add(congestionWindowHours * time.Hour)
		congested := 0
		for _, a := range today {
			if !a.StartAt.Before(asOf) && a.StartAt.Before(windowEnd) {
				congested++
			}
		}
		if congested > peakCongestionLimit {
			findings = append(findings, &model.Finding{
				Kind:        model.FindingPeakCongestion,
				Count:       congested,
				WindowHours: congestionWindowHours,
			})
		}
	}

	for _, doc := range doctors {
		if !doc.Available {
			continue
		}
		if counts[doc.ID] < underutilizedLimit {
			findings = append(findings, &model.Finding{
				Kind:       model.FindingUnderutilized,
				DoctorID:   doc.ID,
				DoctorName: doc.Name,
				Specialty:  doc.Specialty,
				Count:      counts[doc.ID],
			})
		}
	}

	early := 0
	for _, a := range today {
		if a.ArrivedEarly {
			early++
		}
	}
	earlyPct := float64(early) / float64(len(today)) * 100
	if earlyPct > earlyArrivalThresholdPct {
		findings = append(findings, &model.Finding{
			Kind:    model.FindingEarlyArrivalDrift,
			Percent: earlyPct,
		})
	}

	// specialties in first-appearance order over the doctors input
	var specialties []model.Specialty
	bySpecialty := make(map[model.Specialty][]uuid.UUID)
	for _, d := range doctors {
		if _, ok := bySpecialty[d.Specialty]; !ok {
			specialties = append(specialties, d.Specialty)
		}
		bySpecialty[d.Specialty] = append(bySpecialty[d.Specialty], d.ID)
	}
	for _, spec := range specialties {
		ids := bySpecialty[spec]
		if len(ids) < 2 {
			continue
		}
		var loads []int
		for _, id := range ids {
			if c := counts[id]; c > 0 {
				loads = append(loads, c)
			}
		}
		if len(loads) == 0 {
			continue
		}
		minLoad, maxLoad := loads[0], loads[0]
		for _, c := range loads[1:] {
			if c < minLoad {
				minLoad = c
			}
			if c > maxLoad {
				maxLoad = c
			}
		}
		if maxLoad > imbalanceRatio*minLoad {
			findings = append(findings, &model.Finding{
				Kind:      model.FindingSpecialtyImbalance,
				Specialty: spec,
				MaxCount:  maxLoad,
				MinCount:  minLoad,
			})
		}
	}

	if len(findings) == 0 {
		return []*model.Finding{{Kind: model.FindingBalanced}}
	}
	if len(findings) > MaxRecommendations {
		findings = findings[:MaxRecommendations]
	}
	return findings
}
