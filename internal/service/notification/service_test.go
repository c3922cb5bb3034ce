package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/config"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/internal/service/event"
	"github.com/jwalitptl/flow-api/internal/service/prediction"
	"github.com/jwalitptl/flow-api/pkg/logger"
	"github.com/jwalitptl/flow-api/pkg/metrics"
)

// promauto registers globally, so the package shares one instance.
var testMetrics = metrics.NewMetrics("flow_test_notification", "")

var asOf = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type fakeAppointments struct {
	repository.AppointmentRepository
	items []*model.Appointment
}

func (f *fakeAppointments) List(ctx context.Context) ([]*model.Appointment, error) {
	return f.items, nil
}

func (f *fakeAppointments) ListByStatus(ctx context.Context, status model.AppointmentStatus) ([]*model.Appointment, error) {
	out := make([]*model.Appointment, 0, len(f.items))
	for _, a := range f.items {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeDoctors struct {
	repository.DoctorRepository
	items []*model.Doctor
}

func (f *fakeDoctors) List(ctx context.Context) ([]*model.Doctor, error) {
	return f.items, nil
}

type fakeModels struct {
	repository.ModelRepository
}

func (f *fakeModels) Save(ctx context.Context, record *model.WaitTimeModelRecord) error {
	return nil
}

type fakeOutbox struct {
	repository.OutboxRepository
	events []*model.OutboxEvent
}

func (f *fakeOutbox) Create(ctx context.Context, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func TestLevelForThresholds(t *testing.T) {
	cases := []struct {
		wait int
		want model.NoticeLevel
	}{
		{0, model.NoticeOnSchedule},
		{15, model.NoticeOnSchedule},
		{16, model.NoticeExpectWait},
		{30, model.NoticeExpectWait},
		{31, model.NoticeDelayed},
		{90, model.NoticeDelayed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, levelFor(tc.wait), "wait=%d", tc.wait)
	}
}

func scheduledAt(doctorID uuid.UUID, start time.Time) *model.Appointment {
	return &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		StartAt:   start,
		Status:    model.AppointmentStatusScheduled,
	}
}

func newNotificationService(appts []*model.Appointment, docs []*model.Doctor, outbox *fakeOutbox) *Service {
	log := logger.NewLogger(nil)
	appointmentRepo := &fakeAppointments{items: appts}
	doctorRepo := &fakeDoctors{items: docs}
	events := event.NewService(outbox, log)
	predictions := prediction.NewService(
		appointmentRepo,
		doctorRepo,
		&fakeModels{},
		events,
		clock.New(asOf),
		config.ModelConfig{Trees: 10, Seed: 42},
		log,
		testMetrics,
	)
	return NewService(appointmentRepo, doctorRepo, predictions, events, clock.New(asOf), log)
}

func TestEvaluateQueuesThresholdCrossings(t *testing.T) {
	doc := &model.Doctor{
		Base:                   model.Base{ID: uuid.New()},
		Name:                   "Sarah Chen",
		Specialty:              model.SpecialtyCardiology,
		AvgConsultationMinutes: 30,
		Available:              true,
	}
	appts := []*model.Appointment{
		scheduledAt(doc.ID, asOf.Add(time.Hour)),
		scheduledAt(doc.ID, asOf.Add(2*time.Hour)),
		scheduledAt(doc.ID, asOf.Add(-time.Hour)), // already started, skipped
	}
	outbox := &fakeOutbox{}
	svc := newNotificationService(appts, []*model.Doctor{doc}, outbox)

	notices, err := svc.EvaluateWaitNotices(context.Background())
	require.NoError(t, err)
	require.Len(t, notices, 2)

	// the untrained default of 30 minutes is worth a heads-up
	for _, n := range notices {
		assert.Equal(t, model.NoticeExpectWait, n.Level)
		assert.Equal(t, 30, n.EstimatedWaitMinutes)
		assert.Equal(t, "Sarah Chen", n.DoctorName)
	}
	assert.Len(t, outbox.events, 2)
	for _, evt := range outbox.events {
		assert.Equal(t, model.EventWaitNotice, evt.EventType)
	}
}

func TestRecentSortsNewestFirstAndCaps(t *testing.T) {
	doc := &model.Doctor{
		Base:                   model.Base{ID: uuid.New()},
		Name:                   "James Okafor",
		Specialty:              model.SpecialtyDermatology,
		AvgConsultationMinutes: 20,
		Available:              true,
	}

	var appts []*model.Appointment
	for i := 1; i <= 7; i++ {
		appts = append(appts, scheduledAt(doc.ID, asOf.Add(time.Duration(i)*30*time.Minute)))
	}
	svc := newNotificationService(appts, []*model.Doctor{doc}, &fakeOutbox{})

	notices, err := svc.Recent(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, notices, 5)

	for i := 1; i < len(notices); i++ {
		assert.False(t, notices[i].StartAt.After(notices[i-1].StartAt))
	}
	// the two oldest fell off the end
	assert.True(t, notices[len(notices)-1].StartAt.After(asOf.Add(time.Hour)))
}

func TestNoticesSkipUnknownDoctors(t *testing.T) {
	orphan := scheduledAt(uuid.New(), asOf.Add(time.Hour))
	outbox := &fakeOutbox{}
	svc := newNotificationService([]*model.Appointment{orphan}, nil, outbox)

	notices, err := svc.EvaluateWaitNotices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notices)
	assert.Empty(t, outbox.events)
}
