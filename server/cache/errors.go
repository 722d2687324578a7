package cache

import "github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"

// Cache-level error codes. ErrCacheMiss and ErrCacheExpired are recovered
// by the dispatcher fetching upstream and repopulating; storage errors
// surface with their cause and the dispatcher returns them as tool errors
// without bypassing the cache.
var (
	ErrCacheMiss         = errors.MustNewCode("cache.miss")
	ErrCacheExpired      = errors.MustNewCode("cache.expired")
	ErrStructureRequired = errors.MustNewCode("cache.structure_required")
)
