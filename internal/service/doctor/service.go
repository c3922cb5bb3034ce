package doctor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	apperrors "github.com/jwalitptl/flow-api/pkg/errors"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

// minTransferImbalance is the remaining-load gap between two same-specialty
// doctors before a transfer is worth suggesting.
const minTransferImbalance = 3

type Service struct {
	repo            repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	logger          *logger.Logger
}

func NewService(repo repository.DoctorRepository, appointmentRepo repository.AppointmentRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		logger:          logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	specialty := model.Specialty(req.Specialty)
	if !specialty.Valid() {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown specialty %q", req.Specialty), nil)
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	doc := &model.Doctor{
		Name:                   req.Name,
		Specialty:              specialty,
		AvgConsultationMinutes: req.AvgConsultationMinutes,
		ExperienceYears:        req.ExperienceYears,
		Available:              available,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doc, nil
}

// List returns all doctors, optionally narrowed to one specialty.
func (s *Service) List(ctx context.Context, specialty string) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	if specialty == "" {
		return doctors, nil
	}
	filtered := make([]*model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if string(d.Specialty) == specialty {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*model.Doctor, error) {
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}
	return s.Get(ctx, id)
}

// Load reports each doctor's day at a glance: what is still ahead of asOf,
// what is done, and the average observed wait so far.
func (s *Service) Load(ctx context.Context, asOf time.Time) ([]*model.DoctorLoad, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	type acc struct {
		remaining int
		completed int
		waitSum   int
	}
	accs := make(map[uuid.UUID]*acc, len(doctors))
	for _, d := range doctors {
		accs[d.ID] = &acc{}
	}
	for _, a := range appointments {
		if !a.OnDate(asOf) {
			continue
		}
		st, ok := accs[a.DoctorID]
		if !ok {
			continue
		}
		switch {
		case a.Status == model.AppointmentStatusCompleted:
			st.completed++
			st.waitSum += a.WaitTimeMinutes
		case a.Status == model.AppointmentStatusScheduled && !a.StartAt.Before(asOf):
			st.remaining++
		}
	}

	loads := make([]*model.DoctorLoad, 0, len(doctors))
	for _, d := range doctors {
		st := accs[d.ID]
		load := &model.DoctorLoad{
			DoctorID:       d.ID,
			Name:           d.Name,
			Specialty:      d.Specialty,
			Available:      d.Available,
			RemainingToday: st.remaining,
			CompletedToday: st.completed,
		}
		if st.completed > 0 {
			load.AvgWaitMinutes = float64(st.waitSum) / float64(st.completed)
		}
		loads = append(loads, load)
	}
	return loads, nil
}

// Rebalance suggests moving patients between same-specialty doctors whose
// remaining-day loads have drifted apart. Each suggestion moves half the gap
// from the busiest doctor to the least busy available one; specialties with a
// single doctor or nowhere available to receive are left alone.
func (s *Service) Rebalance(ctx context.Context, asOf time.Time) ([]*model.TransferSuggestion, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	remaining := make(map[uuid.UUID]int, len(doctors))
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusScheduled && a.UpcomingAt(asOf) {
			remaining[a.DoctorID]++
		}
	}

	bySpecialty := make(map[model.Specialty][]*model.Doctor)
	var order []model.Specialty
	for _, d := range doctors {
		if _, ok := bySpecialty[d.Specialty]; !ok {
			order = append(order, d.Specialty)
		}
		bySpecialty[d.Specialty] = append(bySpecialty[d.Specialty], d)
	}

	suggestions := make([]*model.TransferSuggestion, 0)
	for _, spec := range order {
		group := bySpecialty[spec]
		if len(group) < 2 {
			continue
		}

		var busiest, least *model.Doctor
		for _, d := range group {
			if busiest == nil || remaining[d.ID] > remaining[busiest.ID] {
				busiest = d
			}
			if d.Available && (least == nil || remaining[d.ID] < remaining[least.ID]) {
				least = d
			}
		}
		if least == nil || least.ID == busiest.ID {
			continue
		}

		gap := remaining[busiest.ID] - remaining[least.ID]
		if gap < minTransferImbalance {
			continue
		}

		suggestions = append(suggestions, &model.TransferSuggestion{
			Specialty:    spec,
			FromDoctorID: busiest.ID,
			FromDoctor:   busiest.Name,
			ToDoctorID:   least.ID,
			ToDoctor:     least.Name,
			Patients:     gap / 2,
			Imbalance:    gap,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Imbalance > suggestions[j].Imbalance
	})
	return suggestions, nil
}
