package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, doctor_id, start_at,
	scheduled_patients_count, arrived_early, wait_time_minutes, status,
	created_at, updated_at, deleted_at
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, start_at,
			scheduled_patients_count, arrived_early, wait_time_minutes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	if appointment.Status == "" {
		appointment.Status = model.AppointmentStatusScheduled
	}

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.StartAt,
		appointment.ScheduledPatientsCount,
		appointment.ArrivedEarly,
		appointment.WaitTimeMinutes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE deleted_at IS NULL
		ORDER BY start_at ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByStatus(ctx context.Context, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY start_at ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by status: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE start_at >= $1 AND start_at < $2 AND deleted_at IS NULL
		ORDER BY start_at ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments between dates: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

func (r *appointmentRepository) SetWaitTime(ctx context.Context, id uuid.UUID, minutes int) error {
	query := `
		UPDATE appointments
		SET wait_time_minutes = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, minutes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set wait time: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

func (r *appointmentRepository) HasBookingInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND deleted_at IS NULL
			AND start_at >= $2
			AND start_at < $3
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, doctorID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to check booking window: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) MarkCompletedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE status = $3
		AND start_at < $4
		AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AppointmentStatusCompleted,
		time.Now(),
		model.AppointmentStatusScheduled,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark appointments completed: %w", err)
	}

	return result.RowsAffected()
}
