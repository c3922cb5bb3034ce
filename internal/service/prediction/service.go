package prediction

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/config"
	"github.com/jwalitptl/flow-api/internal/ml"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/internal/service/event"
	"github.com/jwalitptl/flow-api/pkg/logger"
	"github.com/jwalitptl/flow-api/pkg/metrics"
)

// DefaultWaitMinutes is served whenever no trained model is live.
const DefaultWaitMinutes = 30

// Service owns the wait-time model. The live model is swapped atomically, so
// readers never see a half-trained state; training itself is serialized and a
// failed run leaves the previous model serving.
type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	modelRepo       repository.ModelRepository
	events          *event.Service
	clock           *clock.SimClock
	cfg             config.ModelConfig
	logger          *logger.Logger
	metrics         *metrics.Metrics

	current atomic.Pointer[ml.Model]
	trainMu sync.Mutex
}

func NewService(
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	modelRepo repository.ModelRepository,
	events *event.Service,
	clk *clock.SimClock,
	cfg config.ModelConfig,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		modelRepo:       modelRepo,
		events:          events,
		clock:           clk,
		cfg:             cfg,
		logger:          logger,
		metrics:         m,
	}
}

// Restore loads the newest persisted snapshot, if any. A bad or missing
// snapshot leaves the service serving defaults until the next training run.
func (s *Service) Restore(ctx context.Context) error {
	record, err := s.modelRepo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to load model snapshot: %w", err)
	}

	var m ml.Model
	if err := json.Unmarshal(record.Blob, &m); err != nil {
		return fmt.Errorf("failed to decode model snapshot: %w", err)
	}
	if len(m.Trees) == 0 || m.Encoder.Width() == 0 {
		return fmt.Errorf("model snapshot is empty, refusing to serve it")
	}

	s.current.Store(&m)
	s.logger.Info("model restored", "trained_at", m.TrainedAt.Format(time.RFC3339), "examples", m.Examples)
	return nil
}

// Train fits a fresh model on every completed appointment. Too little data is
// a normal outcome, not an error: the result reports it and the previous
// model, if any, stays live.
func (s *Service) Train(ctx context.Context) (*model.TrainResult, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	start := time.Now()

	appointments, err := s.appointmentRepo.ListByStatus(ctx, model.AppointmentStatusCompleted)
	if err != nil {
		s.metrics.TrainingRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load training appointments: %w", err)
	}
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		s.metrics.TrainingRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load doctors: %w", err)
	}

	samples, labels := buildExamples(appointments, indexDoctors(doctors))

	m, err := ml.Train(s.mlConfig(), samples, labels)
	if err != nil {
		if errors.Is(err, ml.ErrInsufficientData) {
			s.metrics.TrainingRuns.WithLabelValues("insufficient_data").Inc()
			s.logger.Info("training skipped", "reason", "insufficient data", "examples", len(samples))
			return &model.TrainResult{Trained: false, Reason: "insufficient training data"}, nil
		}
		s.metrics.TrainingRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	m.TrainedAt = s.clock.Now()

	s.current.Store(m)

	s.metrics.TrainingRuns.WithLabelValues("success").Inc()
	s.metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	s.metrics.ModelMAE.Set(m.MAE)
	s.metrics.ModelRMSE.Set(m.RMSE)
	s.metrics.ModelExamples.Set(float64(m.Examples))

	if err := s.persist(ctx, m); err != nil {
		s.logger.Error(err, "failed to persist model snapshot")
	}
	if err := s.events.Emit(ctx, model.EventModelTrained, map[string]interface{}{
		"examples":   m.Examples,
		"mae":        m.MAE,
		"rmse":       m.RMSE,
		"trained_at": m.TrainedAt,
	}); err != nil {
		s.logger.Error(err, "failed to emit training event")
	}

	s.logger.Info("model trained", "examples", m.Examples, "mae", m.MAE, "rmse", m.RMSE)
	return &model.TrainResult{Trained: true, Examples: m.Examples, MAE: m.MAE, RMSE: m.RMSE}, nil
}

// Predict estimates the wait for one visit. Without a live model it serves
// the default rather than failing.
func (s *Service) Predict(req *model.PredictRequest) float64 {
	s.metrics.PredictionsTotal.Inc()

	m := s.current.Load()
	if m == nil {
		s.metrics.DegradedPredictions.Inc()
		return DefaultWaitMinutes
	}

	return s.score(m, ml.Sample{
		HourOfDay:              req.HourOfDay,
		DayOfWeek:              req.DayOfWeek,
		Specialty:              req.Specialty,
		DoctorExperience:       req.DoctorExperience,
		AvgConsultationMinutes: req.AvgConsultationMinutes,
		ScheduledPatientsCount: req.ScheduledPatientsCount,
		ArrivedEarly:           req.ArrivedEarly,
	})
}

// score runs the live model over one sample. A model that cannot score, such
// as a snapshot whose encoder and trees disagree, degrades to the default
// wait instead of reporting zero minutes.
func (s *Service) score(m *ml.Model, sample ml.Sample) float64 {
	out, err := m.PredictVector(m.Encoder.Encode(sample))
	if err != nil {
		s.metrics.DegradedPredictions.Inc()
		s.logger.Error(err, "prediction degraded to default wait")
		return DefaultWaitMinutes
	}
	return out
}

// PredictFor estimates the wait for a booked visit given its doctor.
func (s *Service) PredictFor(a *model.Appointment, d *model.Doctor) float64 {
	s.metrics.PredictionsTotal.Inc()

	m := s.current.Load()
	if m == nil {
		s.metrics.DegradedPredictions.Inc()
		return DefaultWaitMinutes
	}
	return s.score(m, sampleFor(a, d))
}

// PredictUpcoming annotates today's remaining appointments with estimates.
// With no live model every appointment comes back with the default wait, so
// the dashboard stays populated before the first training run.
func (s *Service) PredictUpcoming(ctx context.Context, asOf time.Time) ([]*model.PredictedAppointment, error) {
	appointments, err := s.appointmentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctors: %w", err)
	}

	index := indexDoctors(doctors)
	m := s.current.Load()

	out := make([]*model.PredictedAppointment, 0)
	for _, a := range appointments {
		doc, ok := index[a.DoctorID]
		if !ok {
			continue
		}
		if m != nil && !a.UpcomingAt(asOf) {
			continue
		}

		pa := &model.PredictedAppointment{
			Appointment: *a,
			DoctorName:  doc.Name,
			Specialty:   string(doc.Specialty),
		}
		if m == nil {
			pa.PredictedWaitMinutes = DefaultWaitMinutes
			s.metrics.DegradedPredictions.Inc()
		} else {
			pa.PredictedWaitMinutes = s.score(m, sampleFor(a, doc))
		}
		s.metrics.PredictionsTotal.Inc()
		out = append(out, pa)
	}
	return out, nil
}

// Info describes the live model for the API.
func (s *Service) Info() *model.ModelInfo {
	m := s.current.Load()
	if m == nil {
		return &model.ModelInfo{Trained: false}
	}

	info := &model.ModelInfo{
		Trained:   true,
		TrainedAt: &m.TrainedAt,
		Examples:  m.Examples,
		MAE:       m.MAE,
		RMSE:      m.RMSE,
	}
	for _, imp := range m.Importances {
		info.Importances = append(info.Importances, model.FeatureImportance{
			Feature: imp.Feature,
			Weight:  imp.Weight,
		})
	}
	return info
}

// Current returns the live model, or nil before the first successful train.
func (s *Service) Current() *ml.Model {
	return s.current.Load()
}

func (s *Service) persist(ctx context.Context, m *ml.Model) error {
	blob, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return s.modelRepo.Save(ctx, &model.WaitTimeModelRecord{
		Blob:      blob,
		Examples:  m.Examples,
		MAE:       m.MAE,
		RMSE:      m.RMSE,
		TrainedAt: m.TrainedAt,
	})
}

func (s *Service) mlConfig() ml.Config {
	return ml.Config{
		Trees:           s.cfg.Trees,
		MaxDepth:        s.cfg.MaxDepth,
		MinLeafSize:     s.cfg.MinLeafSize,
		Seed:            s.cfg.Seed,
		HoldoutFraction: s.cfg.HoldoutFraction,
	}
}

func indexDoctors(doctors []*model.Doctor) map[uuid.UUID]*model.Doctor {
	index := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for _, d := range doctors {
		index[d.ID] = d
	}
	return index
}

func sampleFor(a *model.Appointment, d *model.Doctor) ml.Sample {
	return ml.Sample{
		HourOfDay:              a.HourOfDay(),
		DayOfWeek:              a.DayOfWeek(),
		Specialty:              string(d.Specialty),
		DoctorExperience:       d.ExperienceYears,
		AvgConsultationMinutes: d.AvgConsultationMinutes,
		ScheduledPatientsCount: a.ScheduledPatientsCount,
		ArrivedEarly:           a.ArrivedEarly,
	}
}

// buildExamples joins completed visits to their doctor. Rows without a known
// doctor are dropped; recorded waits below zero train as zero.
func buildExamples(appointments []*model.Appointment, doctors map[uuid.UUID]*model.Doctor) ([]ml.Sample, []float64) {
	samples := make([]ml.Sample, 0, len(appointments))
	labels := make([]float64, 0, len(appointments))
	for _, a := range appointments {
		doc, ok := doctors[a.DoctorID]
		if !ok {
			continue
		}
		wait := a.WaitTimeMinutes
		if wait < 0 {
			wait = 0
		}
		samples = append(samples, sampleFor(a, doc))
		labels = append(labels, float64(wait))
	}
	return samples, labels
}
