package store

import "github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"

// Store-specific error codes
var (
	ErrOpenFailed        = errors.MustNewCode("store.open_failed")
	ErrMigrationFailed   = errors.MustNewCode("store.migration_failed")
	ErrTransactionFailed = errors.MustNewCode("store.transaction_failed")
	ErrWriteFailed       = errors.MustNewCode("store.write_failed")
	ErrReadFailed        = errors.MustNewCode("store.read_failed")
	ErrTableNotCached    = errors.MustNewCode("store.table_not_cached")
	ErrRegistryCorrupt   = errors.MustNewCode("store.registry_corrupt")
)
