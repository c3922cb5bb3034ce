package analytics

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
var testMetrics = metrics.NewMetrics("flow_test_analytics", "")

var asOf = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type fakeAppointments struct {
	repository.AppointmentRepository
	items []*model.Appointment
}

func (f *fakeAppointments) List(ctx context.Context) ([]*model.Appointment, error) {
	return f.items, nil
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

type fakeOutbox struct {
	repository.OutboxRepository
}

func (f *fakeOutbox) Create(ctx context.Context, evt *model.OutboxEvent) error {
	return nil
}

func newAnalyticsService(appts []*model.Appointment, docs []*model.Doctor) *Service {
	log := logger.NewLogger(nil)
	appointmentRepo := &fakeAppointments{items: appts}
	doctorRepo := &fakeDoctors{items: docs}
	predictions := prediction.NewService(
		appointmentRepo,
		doctorRepo,
		&fakeModels{},
		event.NewService(&fakeOutbox{}, log),
		clock.New(asOf),
		config.ModelConfig{Trees: 10, Seed: 42},
		log,
		testMetrics,
	)
	return NewService(appointmentRepo, doctorRepo, predictions, clock.New(asOf), log)
}

func testDoctor(name string, spec model.Specialty) *model.Doctor {
	return &model.Doctor{
		Base:                   model.Base{ID: uuid.New()},
		Name:                   name,
		Specialty:              spec,
		AvgConsultationMinutes: 30,
		ExperienceYears:        8,
		Available:              true,
	}
}

func visitAt(doctorID uuid.UUID, start time.Time) *model.Appointment {
	return &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		StartAt:   start,
		Status:    model.AppointmentStatusScheduled,
	}
}

func completedAt(doctorID uuid.UUID, start time.Time, wait int) *model.Appointment {
	a := visitAt(doctorID, start)
	a.Status = model.AppointmentStatusCompleted
	a.WaitTimeMinutes = wait
	return a
}

func TestSummaryPrefersTheFreshestWaitSignal(t *testing.T) {
	doc := testDoctor("Sarah Chen", model.SpecialtyCardiology)
	ctx := context.Background()

	// last-hour completions win over the rest of the day
	svc := newAnalyticsService([]*model.Appointment{
		completedAt(doc.ID, asOf.Add(-30*time.Minute), 40),
		completedAt(doc.ID, asOf.Add(-3*time.Hour), 10),
	}, []*model.Doctor{doc})
	summary, err := svc.Summary(ctx, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, summary.AvgWaitMinutes, 1e-9)
	assert.Equal(t, 2, summary.CompletedToday)

	// nothing in the last hour: fall back to today's completions
	svc = newAnalyticsService([]*model.Appointment{
		completedAt(doc.ID, asOf.Add(-3*time.Hour), 10),
		completedAt(doc.ID, asOf.Add(-2*time.Hour), 20),
	}, []*model.Doctor{doc})
	summary, err = svc.Summary(ctx, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, summary.AvgWaitMinutes, 1e-9)
}

func TestSummaryDefaultsByTimeOfDay(t *testing.T) {
	svc := newAnalyticsService(nil, nil)
	ctx := context.Background()

	morning, err := svc.Summary(ctx, asOf)
	require.NoError(t, err)
	assert.InDelta(t, defaultDaytimeWait, morning.AvgWaitMinutes, 1e-9)

	evening, err := svc.Summary(ctx, asOf.Add(8*time.Hour)) // 18:00
	require.NoError(t, err)
	assert.InDelta(t, defaultEveningWait, evening.AvgWaitMinutes, 1e-9)
}

func TestSummaryQueueCounts(t *testing.T) {
	doc := testDoctor("Sarah Chen", model.SpecialtyCardiology)

	appts := []*model.Appointment{
		visitAt(doc.ID, asOf.Add(time.Hour)),
		visitAt(doc.ID, asOf.Add(2*time.Hour)),
		visitAt(doc.ID, asOf.Add(-time.Hour)), // already started
		visitAt(doc.ID, asOf.AddDate(0, 0, -1).Add(time.Hour)),
	}
	svc := newAnalyticsService(appts, []*model.Doctor{doc})

	summary, err := svc.Summary(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalToday)
	assert.Equal(t, 2, summary.QueueSize)
	assert.Equal(t, 2, summary.QueueDelta) // 3 today vs 1 yesterday
}

func TestPatientFlowZeroFillsTheClinicDay(t *testing.T) {
	doc := testDoctor("Sarah Chen", model.SpecialtyCardiology)

	appts := []*model.Appointment{
		visitAt(doc.ID, asOf),                      // 10:00
		visitAt(doc.ID, asOf.Add(30*time.Minute)),  // 10:30
		visitAt(doc.ID, asOf.Add(7*time.Hour)),     // 17:00
		visitAt(doc.ID, asOf.AddDate(0, 0, 1)),     // not today
	}
	svc := newAnalyticsService(appts, []*model.Doctor{doc})

	points, err := svc.PatientFlow(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, points, 12)

	byHour := make(map[int]int, len(points))
	for i, p := range points {
		assert.Equal(t, openingHour+i, p.Hour)
		byHour[p.Hour] = p.Count
	}
	assert.Equal(t, 2, byHour[10])
	assert.Equal(t, 1, byHour[17])
	assert.Equal(t, 0, byHour[9])
}

func TestForecastBaselinesWithoutModel(t *testing.T) {
	svc := newAnalyticsService(nil, nil)

	forecast, err := svc.Forecast(context.Background(), asOf.Add(6*time.Hour)) // 16:00
	require.NoError(t, err)
	require.Len(t, forecast, 5) // 16..20, close stops the horizon

	wantByHour := map[int]float64{16: 25, 17: 35, 18: 35, 19: 35, 20: 25}
	for _, p := range forecast {
		assert.InDelta(t, wantByHour[p.Hour], p.ExpectedWaitMinutes, 1e-9, "hour=%d", p.Hour)
	}

	morning, err := svc.Forecast(context.Background(), asOf) // 10:00
	require.NoError(t, err)
	require.Len(t, morning, 6)
	assert.InDelta(t, 15.0, morning[0].ExpectedWaitMinutes, 1e-9)
}

func TestSpecialtyQueuesSortBusiestFirst(t *testing.T) {
	cardio := testDoctor("Sarah Chen", model.SpecialtyCardiology)
	derm := testDoctor("James Okafor", model.SpecialtyDermatology)

	appts := []*model.Appointment{
		visitAt(derm.ID, asOf.Add(time.Hour)),
		visitAt(cardio.ID, asOf.Add(time.Hour)),
		visitAt(cardio.ID, asOf.Add(2*time.Hour)),
		visitAt(cardio.ID, asOf.Add(-time.Hour)), // in the past, not queued
	}
	svc := newAnalyticsService(appts, []*model.Doctor{cardio, derm})

	queues, err := svc.SpecialtyQueues(context.Background())
	require.NoError(t, err)
	require.Len(t, queues, 2)
	assert.Equal(t, model.SpecialtyCardiology, queues[0].Specialty)
	assert.Equal(t, 2, queues[0].PatientsWaiting)
	assert.Equal(t, 1, queues[1].PatientsWaiting)
	// untrained model serves the default estimate
	assert.InDelta(t, float64(prediction.DefaultWaitMinutes), queues[0].AvgWaitMinutes, 1e-9)
}

func TestReportAggregatesCompletedVisits(t *testing.T) {
	doc := testDoctor("Sarah Chen", model.SpecialtyCardiology)

	early := completedAt(doc.ID, asOf.AddDate(0, 0, -2), 20)
	early.ArrivedEarly = true
	appts := []*model.Appointment{
		early,
		completedAt(doc.ID, asOf.AddDate(0, 0, -1).Add(8*time.Hour), 40), // 18:00, peak
		visitAt(doc.ID, asOf.Add(time.Hour)),                             // scheduled, excluded
		completedAt(doc.ID, asOf.AddDate(0, 0, -40), 90),                 // outside the window
	}
	svc := newAnalyticsService(appts, []*model.Doctor{doc})

	report, err := svc.Report(context.Background(), asOf.AddDate(0, 0, -7), asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Appointments)
	assert.InDelta(t, 30.0, report.AvgWaitMinutes, 1e-9)
	assert.Equal(t, 40, report.MaxWaitMinutes)
	assert.InDelta(t, 50.0, report.EarlyPercent, 1e-9)
	assert.InDelta(t, 40.0, report.PeakAvgWait, 1e-9)
	assert.InDelta(t, 20.0, report.OffPeakAvgWait, 1e-9)

	require.Len(t, report.Doctors, 1)
	assert.Equal(t, 2, report.Doctors[0].Appointments)
}

func TestReportEmptyWindow(t *testing.T) {
	svc := newAnalyticsService(nil, nil)

	report, err := svc.Report(context.Background(), asOf.AddDate(0, 0, -7), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Appointments)
	assert.Empty(t, report.Doctors)
	assert.NotNil(t, report.WaitByHour)
}

func TestStaffPerformanceFloorsAndWindow(t *testing.T) {
	doc := testDoctor("Sarah Chen", model.SpecialtyCardiology)
	idle := testDoctor("James Okafor", model.SpecialtyDermatology)

	appts := []*model.Appointment{
		completedAt(doc.ID, asOf.AddDate(0, 0, -1), 60),
		completedAt(doc.ID, asOf.AddDate(0, 0, -2), 10),
		completedAt(doc.ID, asOf.AddDate(0, 0, -30), 5), // outside the week
	}
	svc := newAnalyticsService(appts, []*model.Doctor{doc, idle})

	out, err := svc.StaffPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1) // idle doctor has no visits and is omitted

	perf := out[0]
	assert.Equal(t, 2, perf.PatientsSeen)
	assert.InDelta(t, 35.0, perf.AvgWaitMinutes, 1e-9)
	assert.InDelta(t, 50.0, perf.OnTimePercent, 1e-9)
	// avg wait of 35 would score below the floors
	assert.InDelta(t, efficiencyFloor, perf.Efficiency, 1e-9)
	assert.InDelta(t, satisfactionFloor, perf.Satisfaction, 1e-9)
}
