package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/flow-api/internal/service/prediction"
	"github.com/jwalitptl/flow-api/pkg/logger"
)

// Retrainer refreshes the wait time model on a fixed cadence so estimates
// track the accumulating history without anyone calling the train endpoint.
type Retrainer struct {
	predictions *prediction.Service
	interval    time.Duration
	logger      *logger.Logger
}

func NewRetrainer(predictions *prediction.Service, interval time.Duration, logger *logger.Logger) *Retrainer {
	return &Retrainer{
		predictions: predictions,
		interval:    interval,
		logger:      logger,
	}
}

func (w *Retrainer) Start(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := w.predictions.Train(ctx)
			if err != nil {
				w.logger.Error(err, "scheduled retraining failed")
				continue
			}
			if !result.Trained {
				w.logger.Debug("scheduled retraining skipped", "reason", result.Reason)
			}
		}
	}
}
