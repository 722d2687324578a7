package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/server/smartsuite"
)

// StoreSolutions replaces the cached solutions wholesale.
func (s *Store) StoreSolutions(ctx context.Context, solutions []smartsuite.Solution, ttl time.Duration) (int, error) {
	cachedAt, expiresAt := expiry(ttl)

	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_solutions`); err != nil {
			return errors.New(ErrWriteFailed, "failed to clear cached solutions", err)
		}
		for _, solution := range solutions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cached_solutions (id, name, logo_icon, logo_color, cached_at, expires_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				solution.ID, solution.Name, solution.LogoIcon, solution.LogoColor, cachedAt, expiresAt,
			)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to insert solution", err).AddContext("solution_id", solution.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(solutions), nil
}

// StoreTableList replaces the cached table list. With a solution id only
// that solution's slice of the list is replaced; without one the whole
// list is.
func (s *Store) StoreTableList(ctx context.Context, solutionID string, tables []smartsuite.Table, ttl time.Duration) (int, error) {
	cachedAt, expiresAt := expiry(ttl)

	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if solutionID == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cached_tables`); err != nil {
				return errors.New(ErrWriteFailed, "failed to clear cached tables", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `DELETE FROM cached_tables WHERE solution_id = ?`, solutionID); err != nil {
				return errors.New(ErrWriteFailed, "failed to clear cached tables", err).AddContext("solution_id", solutionID)
			}
		}

		for _, table := range tables {
			structureJSON, err := json.Marshal(table.Structure)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to encode table structure", err).AddContext("table_id", table.ID)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cached_tables (id, solution_id, name, structure_json, cached_at, expires_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					solution_id = excluded.solution_id,
					name = excluded.name,
					structure_json = excluded.structure_json,
					cached_at = excluded.cached_at,
					expires_at = excluded.expires_at`,
				table.ID, table.SolutionID, table.Name, string(structureJSON), cachedAt, expiresAt,
			)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to insert table", err).AddContext("table_id", table.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(tables), nil
}

// GetCachedTable returns one cached table-list entry, expired rows
// included (structure lookups outlive record freshness).
func (s *Store) GetCachedTable(ctx context.Context, tableID string) (*smartsuite.Table, bool, error) {
	var table smartsuite.Table
	var structureJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, solution_id, name, structure_json FROM cached_tables WHERE id = ?`,
		tableID,
	).Scan(&table.ID, &table.SolutionID, &table.Name, &structureJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(ErrReadFailed, "failed to read cached table", err).AddContext("table_id", tableID)
	}

	if err := json.Unmarshal([]byte(structureJSON), &table.Structure); err != nil {
		return nil, false, errors.New(ErrRegistryCorrupt, "failed to decode table structure", err).AddContext("table_id", tableID)
	}
	return &table, true, nil
}

// StoreMembers replaces the cached members wholesale.
func (s *Store) StoreMembers(ctx context.Context, members []smartsuite.Member, ttl time.Duration) (int, error) {
	cachedAt, expiresAt := expiry(ttl)

	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_members`); err != nil {
			return errors.New(ErrWriteFailed, "failed to clear cached members", err)
		}
		for _, member := range members {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cached_members (id, email, role, first_name, last_name, full_name, job_title, department, status, deleted_date, cached_at, expires_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				member.ID, member.Email, member.Role, member.FirstName, member.LastName,
				member.FullName, member.JobTitle, member.Department, member.Status, member.DeletedDate,
				cachedAt, expiresAt,
			)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to insert member", err).AddContext("member_id", member.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// StoreTeams replaces the cached teams wholesale.
func (s *Store) StoreTeams(ctx context.Context, teams []smartsuite.Team, ttl time.Duration) (int, error) {
	cachedAt, expiresAt := expiry(ttl)

	err := s.inWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_teams`); err != nil {
			return errors.New(ErrWriteFailed, "failed to clear cached teams", err)
		}
		for _, team := range teams {
			membersJSON, err := json.Marshal(team.Members)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to encode team members", err).AddContext("team_id", team.ID)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cached_teams (id, name, description, member_count, members_json, cached_at, expires_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				team.ID, team.Name, team.Description, team.MemberCount, string(membersJSON), cachedAt, expiresAt,
			)
			if err != nil {
				return errors.New(ErrWriteFailed, "failed to insert team", err).AddContext("team_id", team.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(teams), nil
}

// TableCounts reports row count, freshness and the latest expiry of one
// physical table. Valid means at least one row has expires_at > now.
func (s *Store) TableCounts(ctx context.Context, tableName string, where string, args ...any) (count int64, valid bool, latestExpiry string, err error) {
	query := "SELECT COUNT(*), COALESCE(SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), 0), COALESCE(MAX(expires_at), '') FROM " + tableName
	queryArgs := append([]any{now()}, args...)
	if where != "" {
		query += " WHERE " + where
	}

	var freshCount int64
	err = s.db.QueryRowContext(ctx, query, queryArgs...).Scan(&count, &freshCount, &latestExpiry)
	if err != nil {
		return 0, false, "", errors.New(ErrReadFailed, "failed to count table rows", err).AddContext("table", tableName)
	}
	return count, freshCount > 0, latestExpiry, nil
}
