// Package schedule turns the live appointment book into operator guidance:
// open slot suggestions ranked by desirability and a short list of findings
// about today's load. The engine functions are pure over explicit inputs;
// Service binds them to storage, with the evaluation time supplied by the
// caller.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

// Scheduling business rules
const (
	OpeningHour   = 9
	ClosingHour   = 21 // exclusive
	PeakStartHour = 17
	PeakEndHour   = 20 // exclusive
	PlanningDays  = 7

	MaxRecommendations = 5
)

type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	logger          *logger.Logger
}

func NewService(appointmentRepo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, logger *logger.Logger) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		logger:          logger,
	}
}

func (s *Service) OptimalSlots(ctx context.Context, asOf time.Time) ([]*model.CandidateSlot, error) {
	appointments, doctors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return OptimalSlots(appointments, doctors, asOf), nil
}

func (s *Service) Recommendations(ctx context.Context, asOf time.Time) ([]*model.Finding, error) {
	appointments, doctors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return Recommendations(appointments, doctors, asOf), nil
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
