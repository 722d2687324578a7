package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/cache/schema"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
)

// registryColumn is the persisted form of a synthesized column.
type registryColumn struct {
	Slug    string             `json:"slug"`
	Name    string             `json:"name"`
	Type    schema.ColumnType  `json:"type"`
	Indexed bool               `json:"indexed"`
	Extract schema.ExtractKind `json:"extract"`
}

func encodeColumns(columns []schema.Column) (string, error) {
	persisted := make([]registryColumn, len(columns))
	for i, col := range columns {
		persisted[i] = registryColumn(col)
	}
	encoded, err := json.Marshal(persisted)
	if err != nil {
		return "", errors.New(ErrWriteFailed, "failed to encode registry columns", err)
	}
	return string(encoded), nil
}

func decodeColumns(encoded string) ([]schema.Column, error) {
	var persisted []registryColumn
	if err := json.Unmarshal([]byte(encoded), &persisted); err != nil {
		return nil, errors.New(ErrRegistryCorrupt, "failed to decode registry columns", err)
	}
	columns := make([]schema.Column, len(persisted))
	for i, col := range persisted {
		columns[i] = schema.Column(col)
	}
	return columns, nil
}

// GetRegistryEntry loads the persisted schema for an upstream table.
func (s *Store) GetRegistryEntry(ctx context.Context, tableID string) (*schema.TableSchema, bool, error) {
	var sqlTableName, columnsJSON, fp string
	err := s.db.QueryRowContext(ctx,
		`SELECT sql_table_name, columns_json, fingerprint FROM cache_table_registry WHERE upstream_id = ?`,
		tableID,
	).Scan(&sqlTableName, &columnsJSON, &fp)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(ErrReadFailed, "failed to read registry", err).AddContext("table_id", tableID)
	}

	columns, err := decodeColumns(columnsJSON)
	if err != nil {
		return nil, false, err
	}

	return &schema.TableSchema{
		TableID:     tableID,
		TableName:   sqlTableName,
		Columns:     columns,
		Fingerprint: fp,
	}, true, nil
}

// RegistryTableIDs returns every upstream table id with a materialized
// cache table.
func (s *Store) RegistryTableIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT upstream_id FROM cache_table_registry ORDER BY upstream_id`)
	if err != nil {
		return nil, errors.New(ErrReadFailed, "failed to list registry", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.New(ErrReadFailed, "failed to scan registry row", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateOrReplaceCacheTable materializes the storage table for an upstream
// table. When the fingerprint matches the registered schema the existing
// table (and its rows) survive; otherwise the table is dropped and
// recreated. Registry update and DDL run in one transaction.
func (s *Store) CreateOrReplaceCacheTable(ctx context.Context, tableID string, structure smartsuite.Structure) (*schema.TableSchema, error) {
	synthesized := schema.Synthesize(tableID, structure)

	existing, found, err := s.GetRegistryEntry(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if found && existing.Fingerprint == synthesized.Fingerprint {
		return existing, nil
	}

	columnsJSON, err := encodeColumns(synthesized.Columns)
	if err != nil {
		return nil, err
	}

	err = s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if found {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+existing.TableName); err != nil {
				return errors.New(ErrWriteFailed, "failed to drop stale cache table", err).AddContext("table", existing.TableName)
			}
		}

		if _, err := tx.ExecContext(ctx, synthesized.CreateTableDDL()); err != nil {
			return errors.New(ErrWriteFailed, "failed to create cache table", err).AddContext("table", synthesized.TableName)
		}
		for _, indexDDL := range synthesized.CreateIndexDDL() {
			if _, err := tx.ExecContext(ctx, indexDDL); err != nil {
				return errors.New(ErrWriteFailed, "failed to create index", err).AddContext("table", synthesized.TableName)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO cache_table_registry (upstream_id, sql_table_name, columns_json, fingerprint, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (upstream_id) DO UPDATE SET
				sql_table_name = excluded.sql_table_name,
				columns_json = excluded.columns_json,
				fingerprint = excluded.fingerprint,
				created_at = excluded.created_at`,
			tableID, synthesized.TableName, columnsJSON, synthesized.Fingerprint, now(),
		)
		if err != nil {
			return errors.New(ErrWriteFailed, "failed to update registry", err).AddContext("table_id", tableID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("table_id", tableID).
		Str("cache_table", synthesized.TableName).
		Int("columns", len(synthesized.Columns)).
		Msg("cache table (re)created")
	return synthesized, nil
}

// StoreRecords replaces the cached rows of one upstream table wholesale.
// Old rows are removed and new rows inserted inside a single transaction.
// Returns the number of rows written.
func (s *Store) StoreRecords(ctx context.Context, tableID string, structure smartsuite.Structure, records []smartsuite.Record, ttl time.Duration) (int, error) {
	tableSchema, err := s.CreateOrReplaceCacheTable(ctx, tableID, structure)
	if err != nil {
		return 0, err
	}

	cachedAt, expiresAt := expiry(ttl)

	columnNames := make([]string, 0, len(tableSchema.Columns)+3)
	columnNames = append(columnNames, "id")
	columnNames = append(columnNames, tableSchema.ColumnNames()...)
	columnNames = append(columnNames, "cached_at", "expires_at")

	insertSQL := "INSERT INTO " + tableSchema.TableName +
		" (" + strings.Join(columnNames, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(columnNames)), ", ") + ")"

	written := 0
	err = s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableSchema.TableName); err != nil {
			return errors.New(ErrWriteFailed, "failed to clear cache table", err).AddContext("table", tableSchema.TableName)
		}

		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return errors.New(ErrWriteFailed, "failed to prepare insert", err).AddContext("table", tableSchema.TableName)
		}
		defer stmt.Close()

		for _, record := range records {
			id := record.ID()
			if id == "" {
				s.logger.Warn().Str("table_id", tableID).Msg("skipping record without id")
				continue
			}

			args := make([]any, 0, len(columnNames))
			args = append(args, id)
			for _, col := range tableSchema.Columns {
				value, ok := schema.ExtractValue(col, record[col.Slug])
				if !ok {
					args = append(args, nil)
					continue
				}
				args = append(args, value)
			}
			args = append(args, cachedAt, expiresAt)

			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.New(ErrWriteFailed, "failed to insert record", err).
					AddContext("table", tableSchema.TableName).
					AddContext("record_id", id)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
