package appointment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/internal/service/event"
	apperrors "github.com/jwalitptl/flow-api/pkg/errors"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

var asOf = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type fakeAppointments struct {
	repository.AppointmentRepository
	items     []*model.Appointment
	waitTimes map[uuid.UUID]int
}

func (f *fakeAppointments) Create(ctx context.Context, apt *model.Appointment) error {
	apt.ID = uuid.New()
	f.items = append(f.items, apt)
	return nil
}

func (f *fakeAppointments) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	for _, a := range f.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAppointments) ListBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	out := make([]*model.Appointment, 0)
	for _, a := range f.items {
		if !a.StartAt.Before(from) && a.StartAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) HasBookingInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (bool, error) {
	for _, a := range f.items {
		if a.DoctorID == doctorID && !a.StartAt.Before(from) && a.StartAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointments) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	return nil
}

func (f *fakeAppointments) SetWaitTime(ctx context.Context, id uuid.UUID, minutes int) error {
	if f.waitTimes == nil {
		f.waitTimes = make(map[uuid.UUID]int)
	}
	f.waitTimes[id] = minutes
	return nil
}

type fakeDoctors struct {
	repository.DoctorRepository
	items []*model.Doctor
}

func (f *fakeDoctors) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	for _, d := range f.items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeOutbox struct {
	repository.OutboxRepository
	events []*model.OutboxEvent
}

func (f *fakeOutbox) Create(ctx context.Context, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

func testDoctor(available bool) *model.Doctor {
	return &model.Doctor{
		Base:                   model.Base{ID: uuid.New()},
		Name:                   "Sarah Chen",
		Specialty:              model.SpecialtyCardiology,
		AvgConsultationMinutes: 30,
		Available:              available,
	}
}

func newAppointmentService(repo *fakeAppointments, docs *fakeDoctors, outbox *fakeOutbox) *Service {
	log := logger.NewLogger(nil)
	return NewService(repo, docs, event.NewService(outbox, log), clock.New(asOf), log)
}

func createRequest(doctorID uuid.UUID, startAt time.Time) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PatientID: uuid.New().String(),
		DoctorID:  doctorID.String(),
		StartAt:   startAt,
	}
}

func TestValidateSlotTime(t *testing.T) {
	day := model.DateOf(asOf)

	assert.NoError(t, validateSlotTime(day.Add(9*time.Hour)))
	assert.NoError(t, validateSlotTime(day.Add(18*time.Hour+30*time.Minute)))

	assert.Error(t, validateSlotTime(day.Add(8*time.Hour+30*time.Minute)))
	assert.Error(t, validateSlotTime(day.Add(19*time.Hour)))
	assert.Error(t, validateSlotTime(day.Add(10*time.Hour+15*time.Minute)))
}

func TestCreateNumbersTheDoctorsDay(t *testing.T) {
	doc := testDoctor(true)
	repo := &fakeAppointments{}
	outbox := &fakeOutbox{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, outbox)
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 1, first.ScheduledPatientsCount)
	assert.Equal(t, model.AppointmentStatusScheduled, first.Status)

	second, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 2, second.ScheduledPatientsCount)

	require.Len(t, outbox.events, 2)
	assert.Equal(t, model.EventAppointmentBooked, outbox.events[0].EventType)
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	doc := testDoctor(true)
	repo := &fakeAppointments{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, &fakeOutbox{})
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(time.Hour)))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createRequest(doc.ID, asOf.Add(time.Hour)))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode())
}

func TestCreateRejectsOverlappingConsultation(t *testing.T) {
	doc := testDoctor(true)
	doc.AvgConsultationMinutes = 60
	repo := &fakeAppointments{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, &fakeOutbox{})
	ctx := context.Background()

	day := model.DateOf(asOf)
	_, err := svc.Create(ctx, createRequest(doc.ID, day.Add(10*time.Hour)))
	require.NoError(t, err)

	// inside the existing hour-long consultation
	_, err = svc.Create(ctx, createRequest(doc.ID, day.Add(10*time.Hour+30*time.Minute)))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode())

	// the existing booking would start inside this one
	_, err = svc.Create(ctx, createRequest(doc.ID, day.Add(9*time.Hour+30*time.Minute)))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.StatusCode())

	// flush against either side is fine
	_, err = svc.Create(ctx, createRequest(doc.ID, day.Add(9*time.Hour)))
	assert.NoError(t, err)
	_, err = svc.Create(ctx, createRequest(doc.ID, day.Add(11*time.Hour)))
	assert.NoError(t, err)
}

func TestCreateRejectsUnavailableDoctor(t *testing.T) {
	doc := testDoctor(false)
	svc := newAppointmentService(&fakeAppointments{}, &fakeDoctors{items: []*model.Doctor{doc}}, &fakeOutbox{})

	_, err := svc.Create(context.Background(), createRequest(doc.ID, asOf.Add(time.Hour)))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.StatusCode())
}

func TestCreateRejectsUnknownDoctor(t *testing.T) {
	svc := newAppointmentService(&fakeAppointments{}, &fakeDoctors{}, &fakeOutbox{})

	_, err := svc.Create(context.Background(), createRequest(uuid.New(), asOf.Add(time.Hour)))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 404, appErr.StatusCode())
}

func TestCompleteDerivesWaitFromClock(t *testing.T) {
	doc := testDoctor(true)
	repo := &fakeAppointments{}
	outbox := &fakeOutbox{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, outbox)
	ctx := context.Background()

	// started an hour before the clinic clock
	apt, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(-time.Hour)))
	require.NoError(t, err)

	done, err := svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)
	assert.Equal(t, 60, done.WaitTimeMinutes)
	assert.Equal(t, 60, repo.waitTimes[apt.ID])

	// booked + completed
	require.Len(t, outbox.events, 2)
	assert.Equal(t, model.EventAppointmentCompleted, outbox.events[1].EventType)
}

func TestCompleteFloorsFutureStartsAtZero(t *testing.T) {
	doc := testDoctor(true)
	repo := &fakeAppointments{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, &fakeOutbox{})
	ctx := context.Background()

	apt, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(3*time.Hour)))
	require.NoError(t, err)

	done, err := svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 0, done.WaitTimeMinutes)
}

func TestUpdateStatusIsIdempotent(t *testing.T) {
	doc := testDoctor(true)
	repo := &fakeAppointments{}
	outbox := &fakeOutbox{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, outbox)
	ctx := context.Background()

	apt, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(-time.Hour)))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	eventsAfterFirst := len(outbox.events)

	_, err = svc.UpdateStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Len(t, outbox.events, eventsAfterFirst)
}

func TestAvailabilityMarksBookedSlots(t *testing.T) {
	doc := testDoctor(true)
	repo := &fakeAppointments{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, &fakeOutbox{})
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(time.Hour))) // 11:00
	require.NoError(t, err)

	slots, err := svc.Availability(ctx, doc.ID, asOf)
	require.NoError(t, err)
	require.Len(t, slots, 20) // 09:00 through 18:30

	bySlot := make(map[string]bool, len(slots))
	for _, s := range slots {
		bySlot[s.Time] = s.Available
	}
	assert.False(t, bySlot["11:00"])
	assert.True(t, bySlot["11:30"])
	assert.True(t, bySlot["09:00"])
	assert.True(t, bySlot["18:30"])
}

func TestAvailabilitySpansLongConsultations(t *testing.T) {
	doc := testDoctor(true)
	doc.AvgConsultationMinutes = 60
	repo := &fakeAppointments{}
	svc := newAppointmentService(repo, &fakeDoctors{items: []*model.Doctor{doc}}, &fakeOutbox{})
	ctx := context.Background()

	_, err := svc.Create(ctx, createRequest(doc.ID, asOf.Add(time.Hour))) // 11:00
	require.NoError(t, err)

	slots, err := svc.Availability(ctx, doc.ID, asOf)
	require.NoError(t, err)

	bySlot := make(map[string]bool, len(slots))
	for _, s := range slots {
		bySlot[s.Time] = s.Available
	}
	assert.False(t, bySlot["10:30"])
	assert.False(t, bySlot["11:00"])
	assert.False(t, bySlot["11:30"])
	assert.True(t, bySlot["10:00"])
	assert.True(t, bySlot["12:00"])
}
