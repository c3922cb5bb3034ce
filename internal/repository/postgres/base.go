package postgres

import (
	"github.com/jmoiron/sqlx"
)

// BaseRepository carries the shared connection pool; the concrete
// repositories embed it. Transactions are only needed by the outbox claim
// cycle, which manages its own through BeginTx.
type BaseRepository struct {
	db *sqlx.DB
}

func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}
