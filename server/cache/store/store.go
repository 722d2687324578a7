package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// ComponentType defines the cache store component type identifier
const ComponentType = "cache-store"

// timeFormat is the wire format of every cached_at/expires_at value.
// RFC3339 UTC strings compare lexicographically in SQL.
const timeFormat = time.RFC3339

// Store owns the single-file cache database. It is the only writer; all
// mutating operations serialize behind writeMu and run inside one
// transaction each.
type Store struct {
	db     *sql.DB
	bunDB  *bun.DB
	dbPath string
	logger zerolog.Logger

	writeMu sync.Mutex
}

// NewStore opens (or creates) the cache database at dbPath with owner-only
// permissions and creates the fixed metadata tables.
func NewStore(dbPath string, logger zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.New(ErrOpenFailed, "failed to create cache directory", err).AddContext("path", dbPath)
		}
	}

	// The store file carries credentials-adjacent workspace data; clamp it
	// to owner-only before SQLite writes anything.
	file, err := os.OpenFile(dbPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.New(ErrOpenFailed, "failed to create cache file", err).AddContext("path", dbPath)
	}
	file.Close()
	if err := os.Chmod(dbPath, 0600); err != nil {
		return nil, errors.New(ErrOpenFailed, "failed to set cache file permissions", err).AddContext("path", dbPath)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.New(ErrOpenFailed, "failed to open cache database", err).AddContext("path", dbPath)
	}

	store := &Store{
		db:     db,
		bunDB:  bun.NewDB(db, sqlitedialect.New()),
		dbPath: dbPath,
		logger: logger.With().Str("component", "cache-store").Logger(),
	}

	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the fixed metadata tables.
func (s *Store) migrate(ctx context.Context) error {
	for _, model := range fixedModels {
		if _, err := s.bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.New(ErrMigrationFailed, "failed to create metadata table", err)
		}
	}
	return nil
}

// GetType returns the component type identifier
func (s *Store) GetType() string {
	return ComponentType
}

// Shutdown gracefully shuts down the store
func (s *Store) Shutdown(ctx context.Context) error {
	return s.Close()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// now returns the current time in the store's wire format.
func now() string {
	return time.Now().UTC().Format(timeFormat)
}

// expiry computes cached_at/expires_at for a ttl.
func expiry(ttl time.Duration) (cachedAt, expiresAt string) {
	at := time.Now().UTC()
	return at.Format(timeFormat), at.Add(ttl).Format(timeFormat)
}

// inWriteTx runs fn inside a write transaction with the process-wide write
// lock held.
func (s *Store) inWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.New(ErrTransactionFailed, "failed to begin transaction", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.New(ErrTransactionFailed, "failed to commit transaction", err)
	}
	return nil
}

// QueryRows executes a read-only query and scans every row into a generic
// map. []byte values come back as strings.
func (s *Store) QueryRows(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(ErrReadFailed, "query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.New(ErrReadFailed, "failed to read columns", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.New(ErrReadFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, name := range columns {
			value := values[i]
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			row[name] = value
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(ErrReadFailed, "row iteration failed", err)
	}
	return results, nil
}

// QueryScalar executes a query expected to return a single integer.
func (s *Store) QueryScalar(ctx context.Context, query string, args ...any) (int64, error) {
	var value int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, errors.New(ErrReadFailed, "scalar query failed", err)
	}
	return value, nil
}
