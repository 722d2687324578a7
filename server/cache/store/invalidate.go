package store

import (
	"context"
	"database/sql"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
)

// Invalidation removes rows; the dynamic tables and their registry entries
// stay so a later populate reuses the schema. Each call commits in one
// transaction: once it returns, every validity check observes the new
// state.

// ValidSolutions reports whether the solutions cache holds at least one
// non-expired row.
func (s *Store) ValidSolutions(ctx context.Context) (bool, error) {
	return s.anyFresh(ctx, `SELECT EXISTS (SELECT 1 FROM cached_solutions WHERE expires_at > ?)`, now())
}

// ValidTableList reports table-list freshness, globally or for one
// solution.
func (s *Store) ValidTableList(ctx context.Context, solutionID string) (bool, error) {
	if solutionID == "" {
		return s.anyFresh(ctx, `SELECT EXISTS (SELECT 1 FROM cached_tables WHERE expires_at > ?)`, now())
	}
	return s.anyFresh(ctx, `SELECT EXISTS (SELECT 1 FROM cached_tables WHERE solution_id = ? AND expires_at > ?)`, solutionID, now())
}

// ValidRecords reports record-cache freshness for one upstream table.
func (s *Store) ValidRecords(ctx context.Context, tableID string) (bool, error) {
	entry, found, err := s.GetRegistryEntry(ctx, tableID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return s.anyFresh(ctx, `SELECT EXISTS (SELECT 1 FROM `+entry.TableName+` WHERE expires_at > ?)`, now())
}

// ValidMembers reports members-cache freshness.
func (s *Store) ValidMembers(ctx context.Context) (bool, error) {
	return s.anyFresh(ctx, `SELECT EXISTS (SELECT 1 FROM cached_members WHERE expires_at > ?)`, now())
}

// ValidTeams reports teams-cache freshness.
func (s *Store) ValidTeams(ctx context.Context) (bool, error) {
	return s.anyFresh(ctx, `SELECT EXISTS (SELECT 1 FROM cached_teams WHERE expires_at > ?)`, now())
}

func (s *Store) anyFresh(ctx context.Context, query string, args ...any) (bool, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, errors.New(ErrReadFailed, "freshness check failed", err)
	}
	return exists == 1, nil
}

// InvalidateRecords clears the record cache of one upstream table. Unknown
// tables are a no-op.
func (s *Store) InvalidateRecords(ctx context.Context, tableID string) error {
	entry, found, err := s.GetRegistryEntry(ctx, tableID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+entry.TableName); err != nil {
			return errors.New(ErrWriteFailed, "failed to invalidate records", err).AddContext("table_id", tableID)
		}
		return nil
	})
}

// InvalidateTableList clears the table-list cache and cascades to the
// record caches underneath it. With a solution id the cascade covers that
// solution's tables; without one it covers every record cache
// system-wide.
func (s *Store) InvalidateTableList(ctx context.Context, solutionID string) error {
	cacheTables, err := s.cascadeTargets(ctx, solutionID)
	if err != nil {
		return err
	}

	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		for _, tableName := range cacheTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
				return errors.New(ErrWriteFailed, "failed to invalidate records", err).AddContext("table", tableName)
			}
		}
		if solutionID == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cached_tables`); err != nil {
				return errors.New(ErrWriteFailed, "failed to invalidate table list", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cached_tables WHERE solution_id = ?`, solutionID); err != nil {
				return errors.New(ErrWriteFailed, "failed to invalidate table list", err).AddContext("solution_id", solutionID)
			}
		}
		return nil
	})
}

// InvalidateSolutions clears the solutions cache and cascades to every
// table list and every record cache.
func (s *Store) InvalidateSolutions(ctx context.Context) error {
	cacheTables, err := s.cascadeTargets(ctx, "")
	if err != nil {
		return err
	}

	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		for _, tableName := range cacheTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
				return errors.New(ErrWriteFailed, "failed to invalidate records", err).AddContext("table", tableName)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_tables`); err != nil {
			return errors.New(ErrWriteFailed, "failed to invalidate table list", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_solutions`); err != nil {
			return errors.New(ErrWriteFailed, "failed to invalidate solutions", err)
		}
		return nil
	})
}

// InvalidateMembers clears the members cache.
func (s *Store) InvalidateMembers(ctx context.Context) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_members`); err != nil {
			return errors.New(ErrWriteFailed, "failed to invalidate members", err)
		}
		return nil
	})
}

// InvalidateTeams clears the teams cache.
func (s *Store) InvalidateTeams(ctx context.Context) error {
	return s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_teams`); err != nil {
			return errors.New(ErrWriteFailed, "failed to invalidate teams", err)
		}
		return nil
	})
}

// cascadeTargets resolves the physical record-cache tables reachable from
// a table-list scope. An empty solution id targets every registered
// table, including ones whose parent solution was never cached.
func (s *Store) cascadeTargets(ctx context.Context, solutionID string) ([]string, error) {
	if solutionID == "" {
		rows, err := s.db.QueryContext(ctx, `SELECT sql_table_name FROM cache_table_registry`)
		if err != nil {
			return nil, errors.New(ErrReadFailed, "failed to list cache tables", err)
		}
		defer rows.Close()

		var tables []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, errors.New(ErrReadFailed, "failed to scan cache table name", err)
			}
			tables = append(tables, name)
		}
		return tables, rows.Err()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.sql_table_name
		FROM cache_table_registry r
		JOIN cached_tables t ON t.id = r.upstream_id
		WHERE t.solution_id = ?`, solutionID)
	if err != nil {
		return nil, errors.New(ErrReadFailed, "failed to list cache tables for solution", err).AddContext("solution_id", solutionID)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.New(ErrReadFailed, "failed to scan cache table name", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
