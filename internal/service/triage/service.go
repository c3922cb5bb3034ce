// Package triage ranks the appointment book by scheduling urgency so front
// desk staff can work the list top to bottom.
package triage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

const (
	highCutoff   = 75
	mediumCutoff = 50

	earlyArrivalBonus = 10
	longWaitBonus     = 15
	longWaitMinutes   = 30
)

type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	clock           *clock.SimClock
	logger          *logger.Logger
}

func NewService(appointmentRepo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, clk *clock.SimClock, logger *logger.Logger) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		clock:           clk,
		logger:          logger,
	}
}

// Score rates one appointment's urgency relative to asOf. Same-day visits
// dominate, soon beats later, and appointments already in the past drop to
// the bottom. Early arrivals and historically long waits add a bump.
func Score(a *model.Appointment, asOf time.Time) (dateDiff, score int) {
	dateDiff = model.DaysBetween(asOf, a.StartAt)

	switch {
	case dateDiff == 0:
		score = 100
	case dateDiff < 0:
		score = 20
	case dateDiff <= 3:
		score = 80
	case dateDiff <= 7:
		score = 60
	case dateDiff <= 14:
		score = 40
	default:
		score = 30
	}

	if a.ArrivedEarly {
		score += earlyArrivalBonus
	}
	if a.WaitTimeMinutes > longWaitMinutes {
		score += longWaitBonus
	}
	return dateDiff, score
}

// LevelFor buckets a score into the three-tier priority.
func LevelFor(score int) model.PriorityLevel {
	switch {
	case score >= highCutoff:
		return model.PriorityHigh
	case score >= mediumCutoff:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// ListAppointments returns the scored book, soonest dates first and higher
// scores first within a date, plus summary metrics over the returned rows.
func (s *Service) ListAppointments(ctx context.Context, query *model.TriageQuery) ([]*model.TriagedAppointment, *model.TriageMetrics, error) {
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load doctors: %w", err)
	}

	index := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for _, d := range doctors {
		index[d.ID] = d
	}

	asOf := s.clock.Now()
	items := make([]*model.TriagedAppointment, 0, len(appointments))
	for _, a := range appointments {
		doc, ok := index[a.DoctorID]
		if !ok {
			continue
		}

		dateDiff, score := Score(a, asOf)
		item := &model.TriagedAppointment{
			Appointment:   *a,
			DoctorName:    doc.Name,
			Specialty:     string(doc.Specialty),
			DateDiffDays:  dateDiff,
			PriorityScore: score,
			Priority:      LevelFor(score),
		}
		if !matches(item, query) {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DateDiffDays != items[j].DateDiffDays {
			return items[i].DateDiffDays < items[j].DateDiffDays
		}
		return items[i].PriorityScore > items[j].PriorityScore
	})

	return items, summarize(items), nil
}

func matches(item *model.TriagedAppointment, query *model.TriageQuery) bool {
	if query == nil {
		return true
	}
	if query.Specialty != "" && item.Specialty != query.Specialty {
		return false
	}
	if query.Priority != "" && string(item.Priority) != query.Priority {
		return false
	}

	switch query.Range {
	case "", model.RangeAll:
		return true
	case model.RangeToday:
		return item.DateDiffDays == 0
	case model.RangeWeek:
		return item.DateDiffDays >= 0 && item.DateDiffDays <= 7
	case model.RangeMonth:
		return item.DateDiffDays >= 0 && item.DateDiffDays <= 30
	case model.RangePast:
		return item.DateDiffDays < 0
	case model.RangeFuture:
		return item.DateDiffDays > 0
	default:
		return true
	}
}

func summarize(items []*model.TriagedAppointment) *model.TriageMetrics {
	m := &model.TriageMetrics{Total: len(items)}
	for _, item := range items {
		if item.Priority == model.PriorityHigh {
			m.HighCount++
		}
		if item.DateDiffDays == 0 {
			m.TodayCount++
		}
		if item.DateDiffDays > 0 {
			m.FutureCount++
		}
	}
	if m.Total > 0 {
		m.HighPercent = float64(m.HighCount) / float64(m.Total) * 100
	}
	return m
}
