package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/flow-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository handles booking records. The scheduling and
	// analytics engines filter in memory, so the list methods stay coarse.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context) ([]*model.Appointment, error)
		ListByStatus(ctx context.Context, status model.AppointmentStatus) ([]*model.Appointment, error)
		ListBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		SetWaitTime(ctx context.Context, id uuid.UUID, minutes int) error
		HasBookingInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (bool, error)
		MarkCompletedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
		SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	}

	// ModelRepository stores trained model snapshots. Only the newest
	// snapshot is ever loaded.
	ModelRepository interface {
		Save(ctx context.Context, record *model.WaitTimeModelRecord) error
		GetLatest(ctx context.Context) (*model.WaitTimeModelRecord, error)
	}

	// OutboxRepository queues events for the worker. Pending rows are
	// claimed with FOR UPDATE SKIP LOCKED, so the fetch and the status
	// updates must share one transaction for the claim to hold.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		BeginTx(ctx context.Context) (*sqlx.Tx, error)
		GetPendingEventsWithLock(ctx context.Context, tx *sqlx.Tx, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
