package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/store"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/metrics"
	"github.com/rs/zerolog"
)

// ledger batches hit/miss counters in memory so readers never pay a
// durable write per operation. A flush merges the pending deltas into
// cache_performance when either threshold trips: flushOps operations since
// the last flush, or flushInterval elapsed.
type ledger struct {
	store         *store.Store
	flushOps      int
	flushInterval time.Duration
	logger        zerolog.Logger

	mu            sync.Mutex
	pending       map[string]store.HitMiss
	opsSinceFlush int
	lastFlush     time.Time
}

func newLedger(s *store.Store, flushOps int, flushInterval time.Duration, logger zerolog.Logger) *ledger {
	return &ledger{
		store:         s,
		flushOps:      flushOps,
		flushInterval: flushInterval,
		logger:        logger,
		pending:       make(map[string]store.HitMiss),
		lastFlush:     time.Now(),
	}
}

// recordHit adds one hit and flushes when a threshold trips.
func (l *ledger) recordHit(ctx context.Context, tableID string) {
	metrics.CacheHits.WithLabelValues(tableID).Inc()
	l.record(ctx, tableID, store.HitMiss{Hits: 1})
}

// recordMiss adds one miss and flushes when a threshold trips.
func (l *ledger) recordMiss(ctx context.Context, tableID string) {
	metrics.CacheMisses.WithLabelValues(tableID).Inc()
	l.record(ctx, tableID, store.HitMiss{Misses: 1})
}

func (l *ledger) record(ctx context.Context, tableID string, delta store.HitMiss) {
	l.mu.Lock()
	current := l.pending[tableID]
	current.Hits += delta.Hits
	current.Misses += delta.Misses
	l.pending[tableID] = current
	l.opsSinceFlush++

	shouldFlush := l.opsSinceFlush >= l.flushOps || time.Since(l.lastFlush) >= l.flushInterval
	var batch map[string]store.HitMiss
	if shouldFlush {
		batch = l.take()
	}
	l.mu.Unlock()

	if shouldFlush {
		l.flushBatch(ctx, batch)
	}
}

// take detaches the pending batch. Caller holds the lock.
func (l *ledger) take() map[string]store.HitMiss {
	batch := l.pending
	l.pending = make(map[string]store.HitMiss)
	l.opsSinceFlush = 0
	l.lastFlush = time.Now()
	return batch
}

// flush writes all pending counters out. Idempotent when nothing is
// pending.
func (l *ledger) flush(ctx context.Context) {
	l.mu.Lock()
	batch := l.take()
	l.mu.Unlock()

	l.flushBatch(ctx, batch)
}

func (l *ledger) flushBatch(ctx context.Context, batch map[string]store.HitMiss) {
	if len(batch) == 0 {
		return
	}
	if err := l.store.FlushPerformance(ctx, batch); err != nil {
		// Counter data is best-effort; requeue nothing, just log.
		l.logger.Error().Err(err).Msg("failed to flush performance counters")
		return
	}
	metrics.CounterFlushes.Inc()
}

// snapshot returns a copy of the pending deltas for status reporting.
func (l *ledger) snapshot() map[string]store.HitMiss {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]store.HitMiss, len(l.pending))
	for tableID, delta := range l.pending {
		out[tableID] = delta
	}
	return out
}
