package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
)

// GetTTLConfig returns the configured TTL row for an upstream table.
func (s *Store) GetTTLConfig(ctx context.Context, tableID string) (*TTLConfig, bool, error) {
	var cfg TTLConfig
	err := s.db.QueryRowContext(ctx,
		`SELECT upstream_id, ttl_seconds, COALESCE(mutation_level, ''), COALESCE(notes, ''), updated_at
		 FROM cache_ttl_config WHERE upstream_id = ?`,
		tableID,
	).Scan(&cfg.UpstreamID, &cfg.TTLSeconds, &cfg.MutationLevel, &cfg.Notes, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(ErrReadFailed, "failed to read ttl config", err).AddContext("table_id", tableID)
	}
	return &cfg, true, nil
}

// SetTTLConfig persists a TTL for an upstream table. Record rows are not
// touched; the new TTL applies from the next populate.
func (s *Store) SetTTLConfig(ctx context.Context, tableID string, ttl time.Duration, mutationLevel, notes string) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cache_ttl_config (upstream_id, ttl_seconds, mutation_level, notes, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (upstream_id) DO UPDATE SET
				ttl_seconds = excluded.ttl_seconds,
				mutation_level = excluded.mutation_level,
				notes = excluded.notes,
				updated_at = excluded.updated_at`,
			tableID, int64(ttl/time.Second), mutationLevel, notes, now(),
		)
		if err != nil {
			return errors.New(ErrWriteFailed, "failed to persist ttl config", err).AddContext("table_id", tableID)
		}
		return nil
	})
}

// ListTTLConfigs returns every configured TTL row.
func (s *Store) ListTTLConfigs(ctx context.Context) ([]TTLConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT upstream_id, ttl_seconds, COALESCE(mutation_level, ''), COALESCE(notes, ''), updated_at
		 FROM cache_ttl_config ORDER BY upstream_id`)
	if err != nil {
		return nil, errors.New(ErrReadFailed, "failed to list ttl configs", err)
	}
	defer rows.Close()

	var configs []TTLConfig
	for rows.Next() {
		var cfg TTLConfig
		if err := rows.Scan(&cfg.UpstreamID, &cfg.TTLSeconds, &cfg.MutationLevel, &cfg.Notes, &cfg.UpdatedAt); err != nil {
			return nil, errors.New(ErrReadFailed, "failed to scan ttl config", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
