package main

import (
	"context"
	"sync"
	"time"

	"stockflow/pkg/logger"
)

// publishedRetention is how long delivered outbox rows are kept.
const publishedRetention = 7 * 24 * time.Hour

const maxBatchesPerTick = 10

// OutboxRelay drains pending notification events.
type OutboxRelay interface {
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
	PurgePublished(ctx context.Context, retention time.Duration) (int64, error)
}

// LowStockScanner raises LOW_STOCK events for warehouse rows.
type LowStockScanner interface {
	ScanLowStock(ctx context.Context) (int, error)
}

// OverdueScanner raises PO_OVERDUE events for late orders.
type OverdueScanner interface {
	ScanOverdue(ctx context.Context) (int, error)
}

// IdempotencyCleaner removes expired idempotency keys.
type IdempotencyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Schedule holds the job intervals. A non-positive interval disables the job.
type Schedule struct {
	Poll     time.Duration
	LowStock time.Duration
	Overdue  time.Duration
	Cleanup  time.Duration
}

// Worker runs the periodic background jobs until its context ends.
type Worker struct {
	Relay       OutboxRelay
	LowStock    LowStockScanner
	Overdue     OverdueScanner
	Idempotency IdempotencyCleaner
	Schedule    Schedule
	Log         *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w.Log == nil {
		w.Log = logger.Nop()
	}

	var wg sync.WaitGroup
	start := func(name string, interval time.Duration, job func(context.Context)) {
		if interval <= 0 {
			w.Log.Infow("job disabled", "job", name)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			every(ctx, interval, job)
		}()
		w.Log.Infow("job scheduled", "job", name, "interval", interval)
	}

	start("outbox", w.Schedule.Poll, w.deliver)
	start("low_stock", w.Schedule.LowStock, w.scanLowStock)
	start("overdue", w.Schedule.Overdue, w.scanOverdue)
	start("cleanup", w.Schedule.Cleanup, w.cleanup)

	wg.Wait()
}

// every runs job immediately and then on each tick until ctx ends.
func every(ctx context.Context, interval time.Duration, job func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (w *Worker) deliver(ctx context.Context) {
	// Drain up to maxBatchesPerTick batches so bursts do not wait for the next tick.
	for i := 0; i < maxBatchesPerTick && ctx.Err() == nil; i++ {
		n, err := w.Relay.ProcessBatch(ctx)
		if err != nil {
			w.Log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n == 0 {
			return
		}
		w.Log.Debugw("outbox batch delivered", "count", n)
	}
}

func (w *Worker) scanLowStock(ctx context.Context) {
	n, err := w.LowStock.ScanLowStock(ctx)
	if err != nil {
		w.Log.Errorw("low stock scan failed", "error", err)
		return
	}
	if n > 0 {
		w.Log.Infow("low stock reported", "rows", n)
	}
}

func (w *Worker) scanOverdue(ctx context.Context) {
	n, err := w.Overdue.ScanOverdue(ctx)
	if err != nil {
		w.Log.Errorw("overdue scan failed", "error", err)
		return
	}
	if n > 0 {
		w.Log.Infow("overdue orders reported", "orders", n)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.Relay.MoveToDLQ(ctx); err != nil {
		w.Log.Errorw("outbox dead letter move failed", "error", err)
	} else if n > 0 {
		w.Log.Warnw("outbox messages moved to dead letter queue", "count", n)
	}
	if n, err := w.Relay.PurgePublished(ctx, publishedRetention); err != nil {
		w.Log.Errorw("outbox purge failed", "error", err)
	} else if n > 0 {
		w.Log.Infow("published outbox messages purged", "count", n)
	}
	if n, err := w.Idempotency.CleanupExpired(ctx); err != nil {
		w.Log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.Log.Infow("cleaned up idempotency keys", "count", n)
	}
}
