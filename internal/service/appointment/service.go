package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/internal/service/event"
	apperrors "github.com/jwalitptl/flow-api/pkg/errors"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

// Booking business rules
const (
	BookingOpenHour = 9
	BookingLastHour = 18 // last slot starts at 18:30
	SlotMinutes     = 30
)

type Service struct {
	repo       repository.AppointmentRepository
	doctorRepo repository.DoctorRepository
	events     *event.Service
	clock      *clock.SimClock
	logger     *logger.Logger
}

func NewService(repo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, events *event.Service, clk *clock.SimClock, logger *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		doctorRepo: doctorRepo,
		events:     events,
		clock:      clk,
		logger:     logger,
	}
}

// Create books a patient into a half-hour slot. The scheduled patient count
// stored on the record is the doctor's booking number for that day, so the
// feature the model trains on is already set at booking time.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid patient id", err)
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid doctor id", err)
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	if !doctor.Available {
		return nil, apperrors.NewUnprocessable("doctor is not accepting appointments", nil)
	}

	if err := validateSlotTime(req.StartAt); err != nil {
		return nil, err
	}

	// Two bookings collide when either start falls inside the other's
	// consultation window, so the check spans a full consult on each side.
	consult := consultWindow(doctor)
	conflict, err := s.repo.HasBookingInWindow(ctx, doctorID, req.StartAt.Add(-consult+time.Minute), req.StartAt.Add(consult))
	if err != nil {
		return nil, fmt.Errorf("failed to check slot conflicts: %w", err)
	}
	if conflict {
		return nil, apperrors.NewConflict("slot overlaps an existing consultation", nil)
	}

	dayStart := model.DateOf(req.StartAt)
	sameDay, err := s.repo.ListBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load day bookings: %w", err)
	}
	dayCount := 0
	for _, a := range sameDay {
		if a.DoctorID == doctorID {
			dayCount++
		}
	}

	apt := &model.Appointment{
		PatientID:              patientID,
		DoctorID:               doctorID,
		StartAt:                req.StartAt,
		ScheduledPatientsCount: dayCount + 1,
		ArrivedEarly:           req.ArrivedEarly,
		Status:                 model.AppointmentStatusScheduled,
	}
	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := s.events.Emit(ctx, model.EventAppointmentBooked, apt); err != nil {
		s.logger.Error(err, "failed to emit booking event", "appointment_id", apt.ID.String())
	}

	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

// UpdateStatus flips an appointment's status. Completing a visit that has no
// recorded wait derives one from how far past its start the clock sits, so
// completions feed the training set even without a manual entry.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.Status == status {
		return apt, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	apt.Status = status

	if status == model.AppointmentStatusCompleted {
		if apt.WaitTimeMinutes == 0 {
			waited := int(s.clock.Now().Sub(apt.StartAt).Minutes())
			if waited < 0 {
				waited = 0
			}
			if err := s.repo.SetWaitTime(ctx, id, waited); err != nil {
				s.logger.Error(err, "failed to record observed wait", "appointment_id", id.String())
			} else {
				apt.WaitTimeMinutes = waited
			}
		}

		if err := s.events.Emit(ctx, model.EventAppointmentCompleted, apt); err != nil {
			s.logger.Error(err, "failed to emit completion event", "appointment_id", id.String())
		}
	}

	return apt, nil
}

// Availability lists the half-hour grid for one doctor and day, marking
// every slot covered by an existing consultation as taken.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*model.AvailabilitySlot, error) {
	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	dayStart := model.DateOf(day)
	booked, err := s.repo.ListBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load day bookings: %w", err)
	}

	starts := make([]time.Time, 0, len(booked))
	for _, a := range booked {
		if a.DoctorID == doctorID {
			starts = append(starts, a.StartAt)
		}
	}

	consult := consultWindow(doctor)
	slots := make([]*model.AvailabilitySlot, 0, (BookingLastHour-BookingOpenHour+1)*2)
	for hour := BookingOpenHour; hour <= BookingLastHour; hour++ {
		for _, minute := range []int{0, SlotMinutes} {
			at := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), hour, minute, 0, 0, dayStart.Location())
			slots = append(slots, &model.AvailabilitySlot{
				Time:      at.Format("15:04"),
				Available: !overlapsAny(at, starts, consult),
			})
		}
	}
	return slots, nil
}

// consultWindow is how long the doctor holds a patient; the half-hour grid
// is the floor so short consultations still occupy their slot.
func consultWindow(doctor *model.Doctor) time.Duration {
	if doctor.AvgConsultationMinutes > SlotMinutes {
		return time.Duration(doctor.AvgConsultationMinutes) * time.Minute
	}
	return SlotMinutes * time.Minute
}

// overlapsAny reports whether a consultation starting at slot would overlap
// one starting at any of the given times.
func overlapsAny(slot time.Time, starts []time.Time, consult time.Duration) bool {
	for _, start := range starts {
		gap := slot.Sub(start)
		if gap < 0 {
			gap = -gap
		}
		if gap < consult {
			return true
		}
	}
	return false
}

func validateSlotTime(startAt time.Time) error {
	if startAt.Hour() < BookingOpenHour || startAt.Hour() > BookingLastHour {
		return apperrors.NewUnprocessable("appointments run 09:00 to 18:30", nil)
	}
	if m := startAt.Minute(); m != 0 && m != SlotMinutes {
		return apperrors.NewUnprocessable("appointments start on half-hour boundaries", nil)
	}
	return nil
}
