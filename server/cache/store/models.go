package store

import (
	"github.com/uptrace/bun"
)

// Fixed-shape metadata and entity tables. Timestamps are RFC3339 UTC
// strings so SQL comparisons stay lexicographic.

// RegistryEntry represents the cache_table_registry table: one row per
// materialized upstream table.
type RegistryEntry struct {
	bun.BaseModel `bun:"table:cache_table_registry"`

	UpstreamID   string `bun:"upstream_id,pk" json:"upstream_id"`
	SQLTableName string `bun:"sql_table_name,notnull" json:"sql_table_name"`
	ColumnsJSON  string `bun:"columns_json,notnull" json:"columns_json"`
	Fingerprint  string `bun:"fingerprint,notnull" json:"fingerprint"`
	CreatedAt    string `bun:"created_at,notnull" json:"created_at"`
}

// TTLConfig represents the cache_ttl_config table.
type TTLConfig struct {
	bun.BaseModel `bun:"table:cache_ttl_config"`

	UpstreamID    string `bun:"upstream_id,pk" json:"upstream_id"`
	TTLSeconds    int64  `bun:"ttl_seconds,notnull" json:"ttl_seconds"`
	MutationLevel string `bun:"mutation_level" json:"mutation_level,omitempty"`
	Notes         string `bun:"notes" json:"notes,omitempty"`
	UpdatedAt     string `bun:"updated_at,notnull" json:"updated_at"`
}

// Stat represents the cache_stats table: free-form scope/key counters.
type Stat struct {
	bun.BaseModel `bun:"table:cache_stats"`

	Scope     string `bun:"scope,pk" json:"scope"`
	Key       string `bun:"key,pk" json:"key"`
	Value     string `bun:"value" json:"value"`
	UpdatedAt string `bun:"updated_at,notnull" json:"updated_at"`
}

// Performance represents the cache_performance table: durable hit/miss
// counters per upstream table.
type Performance struct {
	bun.BaseModel `bun:"table:cache_performance"`

	TableID   string `bun:"table_id,pk" json:"table_id"`
	HitCount  int64  `bun:"hit_count,notnull,default:0" json:"hit_count"`
	MissCount int64  `bun:"miss_count,notnull,default:0" json:"miss_count"`
	UpdatedAt string `bun:"updated_at,notnull" json:"updated_at"`
}

// CachedSolution represents the cached_solutions table.
type CachedSolution struct {
	bun.BaseModel `bun:"table:cached_solutions"`

	ID        string `bun:"id,pk" json:"id"`
	Name      string `bun:"name" json:"name"`
	LogoIcon  string `bun:"logo_icon" json:"logo_icon"`
	LogoColor string `bun:"logo_color" json:"logo_color"`
	CachedAt  string `bun:"cached_at,notnull" json:"cached_at"`
	ExpiresAt string `bun:"expires_at,notnull" json:"expires_at"`
}

// CachedTable represents the cached_tables table: the table list with the
// serialized structure each schema synthesis starts from.
type CachedTable struct {
	bun.BaseModel `bun:"table:cached_tables"`

	ID            string `bun:"id,pk" json:"id"`
	SolutionID    string `bun:"solution_id" json:"solution_id"`
	Name          string `bun:"name" json:"name"`
	StructureJSON string `bun:"structure_json" json:"structure_json"`
	CachedAt      string `bun:"cached_at,notnull" json:"cached_at"`
	ExpiresAt     string `bun:"expires_at,notnull" json:"expires_at"`
}

// CachedMember represents the cached_members table.
type CachedMember struct {
	bun.BaseModel `bun:"table:cached_members"`

	ID          string `bun:"id,pk" json:"id"`
	Email       string `bun:"email" json:"email"`
	Role        string `bun:"role" json:"role"`
	FirstName   string `bun:"first_name" json:"first_name"`
	LastName    string `bun:"last_name" json:"last_name"`
	FullName    string `bun:"full_name" json:"full_name"`
	JobTitle    string `bun:"job_title" json:"job_title"`
	Department  string `bun:"department" json:"department"`
	Status      string `bun:"status" json:"status"`
	DeletedDate string `bun:"deleted_date" json:"deleted_date"`
	CachedAt    string `bun:"cached_at,notnull" json:"cached_at"`
	ExpiresAt   string `bun:"expires_at,notnull" json:"expires_at"`
}

// CachedTeam represents the cached_teams table.
type CachedTeam struct {
	bun.BaseModel `bun:"table:cached_teams"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name" json:"name"`
	Description string `bun:"description" json:"description"`
	MemberCount int    `bun:"member_count,notnull,default:0" json:"member_count"`
	MembersJSON string `bun:"members_json" json:"members_json"`
	CachedAt    string `bun:"cached_at,notnull" json:"cached_at"`
	ExpiresAt   string `bun:"expires_at,notnull" json:"expires_at"`
}

// fixedModels lists every bun model created at startup.
var fixedModels = []any{
	(*RegistryEntry)(nil),
	(*TTLConfig)(nil),
	(*Stat)(nil),
	(*Performance)(nil),
	(*CachedSolution)(nil),
	(*CachedTable)(nil),
	(*CachedMember)(nil),
	(*CachedTeam)(nil),
}
