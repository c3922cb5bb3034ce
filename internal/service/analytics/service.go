// Package analytics aggregates the appointment book into the dashboard
// views: day summary, hourly flow, wait forecasts, per-specialty queues and
// historical reports. Everything is computed from the live book on request.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/internal/service/prediction"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

const (
	openingHour   = 9
	closingHour   = 21 // exclusive
	peakStartHour = 17
	peakEndHour   = 20 // exclusive

	// served when no wait has been observed yet today
	defaultEveningWait = 25.0
	defaultDaytimeWait = 15.0
)

type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	predictions     *prediction.Service
	clock           *clock.SimClock
	logger          *logger.Logger
}

func NewService(
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	predictions *prediction.Service,
	clk *clock.SimClock,
	logger *logger.Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		predictions:     predictions,
		clock:           clk,
		logger:          logger,
	}
}

// Summary condenses today into the front-desk headline numbers. The average
// wait prefers the freshest signal available: visits completed within the
// last hour, then anything completed today, then a time-of-day default.
func (s *Service) Summary(ctx context.Context, asOf time.Time) (*model.SummaryMetrics, error) {
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	dayBefore := asOf.AddDate(0, 0, -1)

	var today, yesterday []*model.Appointment
	for _, a := range appointments {
		switch {
		case a.OnDate(asOf):
			today = append(today, a)
		case a.OnDate(dayBefore):
			yesterday = append(yesterday, a)
		}
	}

	out := &model.SummaryMetrics{TotalToday: len(today)}

	hourAgo := asOf.Add(-time.Hour)
	var completedToday, lastHour []*model.Appointment
	for _, a := range today {
		if a.Status != model.AppointmentStatusCompleted {
			continue
		}
		completedToday = append(completedToday, a)
		if !a.StartAt.Before(hourAgo) && !a.StartAt.After(asOf) {
			lastHour = append(lastHour, a)
		}
	}
	out.CompletedToday = len(completedToday)

	switch {
	case len(lastHour) > 0:
		out.AvgWaitMinutes = meanWait(lastHour)
	case len(completedToday) > 0:
		out.AvgWaitMinutes = meanWait(completedToday)
	case asOf.Hour() >= peakStartHour:
		out.AvgWaitMinutes = defaultEveningWait
	default:
		out.AvgWaitMinutes = defaultDaytimeWait
	}

	for _, a := range today {
		if a.Status == model.AppointmentStatusScheduled && !a.StartAt.Before(asOf) {
			out.QueueSize++
		}
	}
	out.QueueDelta = len(today) - len(yesterday)

	var completedYesterday []*model.Appointment
	for _, a := range yesterday {
		if a.Status == model.AppointmentStatusCompleted {
			completedYesterday = append(completedYesterday, a)
		}
	}
	if len(completedYesterday) > 0 {
		out.WaitDelta = out.AvgWaitMinutes - meanWait(completedYesterday)
	}

	return out, nil
}

// PatientFlow returns today's booking volume for every clinic hour,
// zero-filled so charts always cover the full day.
func (s *Service) PatientFlow(ctx context.Context, asOf time.Time) ([]*model.FlowPoint, error) {
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	counts := make(map[int]int)
	for _, a := range appointments {
		if a.OnDate(asOf) {
			counts[a.HourOfDay()]++
		}
	}

	points := make([]*model.FlowPoint, 0, closingHour-openingHour)
	for hour := openingHour; hour < closingHour; hour++ {
		points = append(points, &model.FlowPoint{Hour: hour, Count: counts[hour]})
	}
	return points, nil
}

// SpecialtyQueues groups today's remaining appointments by the treating
// doctor's specialty, busiest first.
func (s *Service) SpecialtyQueues(ctx context.Context) ([]*model.SpecialtyQueue, error) {
	appointments, doctors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	index := indexDoctors(doctors)
	asOf := s.clock.Now()

	type queueAcc struct {
		waiting int
		waitSum float64
	}
	accs := make(map[model.Specialty]*queueAcc)
	var order []model.Specialty

	for _, a := range appointments {
		if a.Status != model.AppointmentStatusScheduled || !a.UpcomingAt(asOf) {
			continue
		}
		doc, ok := index[a.DoctorID]
		if !ok {
			continue
		}
		acc, ok := accs[doc.Specialty]
		if !ok {
			acc = &queueAcc{}
			accs[doc.Specialty] = acc
			order = append(order, doc.Specialty)
		}
		acc.waiting++
		acc.waitSum += s.predictions.PredictFor(a, doc)
	}

	queues := make([]*model.SpecialtyQueue, 0, len(order))
	for _, spec := range order {
		acc := accs[spec]
		queues = append(queues, &model.SpecialtyQueue{
			Specialty:       spec,
			PatientsWaiting: acc.waiting,
			AvgWaitMinutes:  acc.waitSum / float64(acc.waiting),
		})
	}
	sortQueues(queues)
	return queues, nil
}

func (s *Service) load(ctx context.Context) ([]*model.Appointment, []*model.Doctor, error) {
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load doctors: %w", err)
	}
	return appointments, doctors, nil
}

func indexDoctors(doctors []*model.Doctor) map[uuid.UUID]*model.Doctor {
	index := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for _, d := range doctors {
		index[d.ID] = d
	}
	return index
}

func meanWait(appointments []*model.Appointment) float64 {
	if len(appointments) == 0 {
		return 0
	}
	sum := 0
	for _, a := range appointments {
		sum += a.WaitTimeMinutes
	}
	return float64(sum) / float64(len(appointments))
}

func sortQueues(queues []*model.SpecialtyQueue) {
	sort.SliceStable(queues, func(i, j int) bool {
		return queues[i].PatientsWaiting > queues[j].PatientsWaiting
	})
}
