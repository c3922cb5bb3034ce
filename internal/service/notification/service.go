// Package notification decides which patients should hear about their
// expected wait. It only produces the decision records; delivery belongs to
// whatever consumes the outbox downstream.
package notification

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/internal/service/event"
	"github.com/jwalitptl/flow-api/internal/service/prediction"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

const (
	delayedThresholdMinutes = 30
	noticeThresholdMinutes  = 15
	recentLimit             = 5
)

type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	predictions     *prediction.Service
	events          *event.Service
	clock           *clock.SimClock
	logger          *logger.Logger
}

func NewService(
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	predictions *prediction.Service,
	events *event.Service,
	clk *clock.SimClock,
	logger *logger.Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		predictions:     predictions,
		events:          events,
		clock:           clk,
		logger:          logger,
	}
}

// EvaluateWaitNotices scores today's remaining appointments and queues an
// outbox event for every patient whose expected wait crosses a threshold.
// On-schedule notices are returned but not queued.
func (s *Service) EvaluateWaitNotices(ctx context.Context) ([]*model.WaitNotice, error) {
	notices, err := s.buildNotices(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}

	queued := 0
	for _, n := range notices {
		if n.Level == model.NoticeOnSchedule {
			continue
		}
		if err := s.events.Emit(ctx, model.EventWaitNotice, n); err != nil {
			s.logger.Error(err, "failed to queue wait notice", "appointment_id", n.AppointmentID.String())
			continue
		}
		queued++
	}

	s.logger.Info("wait notices evaluated", "total", len(notices), "queued", queued)
	return notices, nil
}

// Recent returns the newest notices by appointment time, capped at five.
func (s *Service) Recent(ctx context.Context, asOf time.Time) ([]*model.WaitNotice, error) {
	notices, err := s.buildNotices(ctx, asOf)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(notices, func(i, j int) bool {
		return notices[i].StartAt.After(notices[j].StartAt)
	})
	if len(notices) > recentLimit {
		notices = notices[:recentLimit]
	}
	return notices, nil
}

func (s *Service) buildNotices(ctx context.Context, asOf time.Time) ([]*model.WaitNotice, error) {
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctors: %w", err)
	}

	index := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for _, d := range doctors {
		index[d.ID] = d
	}

	notices := make([]*model.WaitNotice, 0)
	for _, a := range appointments {
		if a.Status != model.AppointmentStatusScheduled || !a.UpcomingAt(asOf) {
			continue
		}
		doc, ok := index[a.DoctorID]
		if !ok {
			continue
		}

		estimated := int(math.Round(s.predictions.PredictFor(a, doc)))
		notices = append(notices, &model.WaitNotice{
			AppointmentID:        a.ID,
			PatientID:            a.PatientID,
			DoctorName:           doc.Name,
			Specialty:            doc.Specialty,
			StartAt:              a.StartAt,
			EstimatedWaitMinutes: estimated,
			Level:                levelFor(estimated),
		})
	}
	return notices, nil
}

func levelFor(estimatedWait int) model.NoticeLevel {
	switch {
	case estimatedWait > delayedThresholdMinutes:
		return model.NoticeDelayed
	case estimatedWait > noticeThresholdMinutes:
		return model.NoticeExpectWait
	default:
		return model.NoticeOnSchedule
	}
}
