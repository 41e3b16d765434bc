/*
scheduler.go - Automated depreciation scheduler

PURPOSE:
  Periodically runs a depreciation batch over all business units so that
  assets whose next-due date has passed receive their monthly entries
  without manual intervention.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates to the batch runner, which skips units-of-production
    assets and self-healed floor guards
  - Records a batch run row for audit and UI display
  - An asset is never double-processed: the applier advances the
    next-due date inside the same transaction as the entry

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewDepreciationScheduler(store, handler, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunBatch endpoint (manual batches)
  - depreciation/batch.go: BatchRunner
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/asset-engine/store/sqlite"
)

// schedulerActor identifies entries created by the background scheduler.
const schedulerActor = "system:scheduler"

// DepreciationScheduler handles automated periodic depreciation.
type DepreciationScheduler struct {
	Store         *sqlite.Store
	Handler       *Handler
	Log           zerolog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewDepreciationScheduler creates a new scheduler.
func NewDepreciationScheduler(store *sqlite.Store, handler *Handler, log zerolog.Logger) *DepreciationScheduler {
	return &DepreciationScheduler{
		Store:         store,
		Handler:       handler,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ds *DepreciationScheduler) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.Enabled {
		ds.Log.Info().Msg("scheduler disabled, not starting")
		return
	}

	ds.ticker = time.NewTicker(ds.CheckInterval)
	ds.wg.Add(1)

	go ds.run()

	ds.Log.Info().Dur("interval", ds.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler.
func (ds *DepreciationScheduler) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.ticker != nil {
		ds.ticker.Stop()
		close(ds.stop)
		ds.wg.Wait()
		ds.Log.Info().Msg("scheduler stopped")
	}
}

func (ds *DepreciationScheduler) run() {
	defer ds.wg.Done()

	// Run immediately on start
	ds.checkAndProcess()

	for {
		select {
		case <-ds.ticker.C:
			ds.checkAndProcess()
		case <-ds.stop:
			return
		}
	}
}

func (ds *DepreciationScheduler) checkAndProcess() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	due, err := ds.Store.AssetsDueForDepreciation(ctx, "", startedAt)
	if err != nil {
		ds.Log.Error().Err(err).Msg("scheduler failed to list due assets")
		return
	}
	if len(due) == 0 {
		return
	}

	result, err := ds.Handler.Batch.Run(ctx, "", schedulerActor)
	if err != nil {
		ds.Log.Error().Err(err).Msg("scheduled batch failed")
		return
	}

	run := sqlite.BatchRun{
		ID:                uuid.NewString(),
		Status:            "completed",
		Processed:         result.ProcessedAssets,
		Skipped:           result.SkippedAssets,
		Failed:            len(result.Errors),
		TotalDepreciation: result.TotalDepreciation,
		StartedAt:         &result.StartedAt,
		CompletedAt:       &result.CompletedAt,
		CreatedAt:         result.StartedAt,
	}
	if len(result.Errors) > 0 {
		run.Status = "completed_with_errors"
		run.Error = result.Errors[0].Error()
	}
	if err := ds.Store.SaveBatchRun(ctx, run); err != nil {
		ds.Log.Warn().Err(err).Msg("failed to persist scheduled batch run")
	}

	ds.Log.Info().
		Int("processed", result.ProcessedAssets).
		Int("skipped", result.SkippedAssets).
		Int("failed", len(result.Errors)).
		Str("total", result.TotalDepreciation.String()).
		Msg("scheduled batch completed")
}

// RunNow triggers an immediate check (for testing/admin).
func (ds *DepreciationScheduler) RunNow() {
	ds.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ds *DepreciationScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ds.CheckInterval)
}
