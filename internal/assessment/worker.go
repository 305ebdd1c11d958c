package assessment

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"pymetrics/domain/core"
	"pymetrics/internal"
	"pymetrics/internal/config"
)

// BatchSummary reports the outcome of one batch recomputation sweep.
type BatchSummary struct {
	Total        int
	Recomputed   int
	Skipped      int // sessions with insufficient or malformed data
	Failed       int
	FailedIDs    []core.SessionID
	InvalidCount int // recomputed but below acceptance thresholds
}

// BatchWorker recomputes trait profiles for completed sessions with bounded
// concurrency. Sessions are independent, so each runs the whole pipeline in
// its own goroutine behind a weighted semaphore.
type BatchWorker struct {
	service *Service
	sem     *semaphore.Weighted
	limit   int
	logger  *internal.Logger
}

// NewBatchWorker creates a worker with the configured concurrency bound.
func NewBatchWorker(service *Service, cfg config.WorkerConfig, logger *internal.Logger) *BatchWorker {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BatchWorker{
		service: service,
		sem:     semaphore.NewWeighted(int64(cfg.Concurrency)),
		limit:   cfg.BatchLimit,
		logger:  logger,
	}
}

// Run sweeps all completed sessions and recomputes each one. Per-session
// failures never abort the sweep: sessions below the data floor are counted
// as skipped, anything else as failed.
func (w *BatchWorker) Run(ctx context.Context) (*BatchSummary, error) {
	ids, err := w.service.reader.ListCompletedSessions(ctx, w.limit)
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{Total: len(ids)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range ids {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return summary, err
		}
		wg.Add(1)
		go func(sessionID core.SessionID) {
			defer wg.Done()
			defer w.sem.Release(1)

			result, err := w.service.InferTraits(ctx, sessionID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, core.ErrInsufficientData) || errors.Is(err, core.ErrMalformedEvent):
				summary.Skipped++
				w.logger.Info("batch: skipped session %s: %v", sessionID, err)
			case err != nil:
				summary.Failed++
				summary.FailedIDs = append(summary.FailedIDs, sessionID)
				w.logger.Error("batch: session %s failed: %v", sessionID, err)
			default:
				summary.Recomputed++
				if !result.Verdict.Valid {
					summary.InvalidCount++
				}
			}
		}(id)
	}

	wg.Wait()
	w.logger.Info("batch: %d sessions, %d recomputed (%d below thresholds), %d skipped, %d failed",
		summary.Total, summary.Recomputed, summary.InvalidCount, summary.Skipped, summary.Failed)
	return summary, nil
}
