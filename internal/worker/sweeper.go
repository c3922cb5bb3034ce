// Package worker holds the in-process background loops of the API server.
package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/repository"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

// Sweeper closes out visits the simulated clock has passed, flipping them to
// completed so they join the training history. It is what makes advancing
// the clock feel like the clinic day actually happened.
type Sweeper struct {
	repo     repository.AppointmentRepository
	clock    *clock.SimClock
	interval time.Duration
	logger   *logger.Logger
}

func NewSweeper(repo repository.AppointmentRepository, clk *clock.SimClock, interval time.Duration, logger *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		repo:     repo,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.logger.Error(err, "appointment sweep failed")
			}
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) error {
	n, err := w.repo.MarkCompletedBefore(ctx, w.clock.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		w.logger.Info("swept past appointments", "completed", n)
	}
	return nil
}
