package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/flow-api/internal/model"
	"github.com/jwalitptl/flow-api/internal/repository"
)

type modelRepository struct {
	BaseRepository
}

func NewModelRepository(base BaseRepository) repository.ModelRepository {
	return &modelRepository{base}
}

func (r *modelRepository) Save(ctx context.Context, record *model.WaitTimeModelRecord) error {
	query := `
		INSERT INTO wait_time_models (
			id, blob, examples, mae, rmse, trained_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Blob,
		record.Examples,
		record.MAE,
		record.RMSE,
		record.TrainedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save model snapshot: %w", err)
	}
	return nil
}

func (r *modelRepository) GetLatest(ctx context.Context) (*model.WaitTimeModelRecord, error) {
	query := `
		SELECT id, blob, examples, mae, rmse, trained_at, created_at, updated_at, deleted_at
		FROM wait_time_models
		WHERE deleted_at IS NULL
		ORDER BY trained_at DESC
		LIMIT 1
	`
	var record model.WaitTimeModelRecord
	err := r.db.GetContext(ctx, &record, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest model snapshot: %w", err)
	}
	return &record, nil
}
