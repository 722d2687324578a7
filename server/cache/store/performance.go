package store

import (
	"context"
	"database/sql"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
)

// HitMiss is a pending counter delta for one table.
type HitMiss struct {
	Hits   int64
	Misses int64
}

// FlushPerformance merges a batch of in-memory counter deltas into the
// durable cache_performance table in one transaction. An empty batch is a
// no-op.
func (s *Store) FlushPerformance(ctx context.Context, deltas map[string]HitMiss) error {
	if len(deltas) == 0 {
		return nil
	}

	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		for tableID, delta := range deltas {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cache_performance (table_id, hit_count, miss_count, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (table_id) DO UPDATE SET
					hit_count = hit_count + excluded.hit_count,
					miss_count = miss_count + excluded.miss_count,
					updated_at = excluded.updated_at`,
				tableID, delta.Hits, delta.Misses, now(),
			)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to flush performance counters", err).AddContext("table_id", tableID)
			}
		}
		return nil
	})
}

// TopTablesByHits returns up to n table ids ordered by historical hit
// count, most-active first. Recency deliberately plays no part.
func (s *Store) TopTablesByHits(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_id FROM cache_performance ORDER BY hit_count DESC, table_id ASC LIMIT ?`, n)
	if err != nil {
		return nil, errors.New(ErrReadFailed, "failed to rank tables by hits", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.New(ErrReadFailed, "failed to scan performance row", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetPerformance returns the durable counters for one table. Zero counters
// come back for unknown tables.
func (s *Store) GetPerformance(ctx context.Context, tableID string) (Performance, error) {
	perf := Performance{TableID: tableID}
	err := s.db.QueryRowContext(ctx,
		`SELECT hit_count, miss_count, updated_at FROM cache_performance WHERE table_id = ?`, tableID,
	).Scan(&perf.HitCount, &perf.MissCount, &perf.UpdatedAt)
	if err == sql.ErrNoRows {
		return perf, nil
	}
	if err != nil {
		return perf, errors.New(ErrReadFailed, "failed to read performance row", err).AddContext("table_id", tableID)
	}
	return perf, nil
}

// ListPerformance returns every durable counter row.
func (s *Store) ListPerformance(ctx context.Context) ([]Performance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_id, hit_count, miss_count, updated_at FROM cache_performance ORDER BY hit_count DESC`)
	if err != nil {
		return nil, errors.New(ErrReadFailed, "failed to list performance rows", err)
	}
	defer rows.Close()

	var results []Performance
	for rows.Next() {
		var perf Performance
		if err := rows.Scan(&perf.TableID, &perf.HitCount, &perf.MissCount, &perf.UpdatedAt); err != nil {
			return nil, errors.New(ErrReadFailed, "failed to scan performance row", err)
		}
		results = append(results, perf)
	}
	return results, rows.Err()
}

// SetStat upserts one free-form scope/key stat.
func (s *Store) SetStat(ctx context.Context, scope, key, value string) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cache_stats (scope, key, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (scope, key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at`,
			scope, key, value, now(),
		)
		if err != nil {
			return errors.New(ErrWriteFailed, "failed to persist stat", err).AddContext("scope", scope).AddContext("key", key)
		}
		return nil
	})
}

// GetStat reads one stat value.
func (s *Store) GetStat(ctx context.Context, scope, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_stats WHERE scope = ? AND key = ?`, scope, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.New(ErrReadFailed, "failed to read stat", err).AddContext("scope", scope).AddContext("key", key)
	}
	return value, true, nil
}
