package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"catalog-admin/internal/metadata"
)

// Dialect abstracts database-specific SQL generation.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// NowExpr returns the SQL expression for the current timestamp.
	NowExpr() string

	// ColumnDDL maps a metadata column type to the DDL type.
	ColumnDDL(t metadata.ColumnType) string

	// AutoIncrementPK returns the DDL for an auto-incrementing integer
	// primary key column.
	AutoIncrementPK() string

	// ContainsExpr builds a case-insensitive substring condition on column,
	// adding the pattern parameter to pb.
	ContainsExpr(column string, pb ParamBuilder, value string) string

	// TableExists checks whether a table exists.
	TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error)

	// MapError maps a driver error to a well-known sentinel where applicable.
	MapError(err error) error

	// NeedsBoolFix returns true if boolean columns come back as integers.
	NeedsBoolFix() bool
}

// ParamBuilder accumulates query parameters and generates placeholders.
type ParamBuilder interface {
	// Add appends a value and returns its placeholder.
	Add(v any) string

	// Params returns all accumulated values.
	Params() []any

	// Count returns the number of parameters added so far.
	Count() int
}

// TimeParam formats a timestamp parameter for the dialect: SQLite keeps
// DateTime columns as RFC3339 TEXT compared lexicographically, postgres takes
// time.Time directly.
func TimeParam(d Dialect, t time.Time) any {
	if d.Name() == "sqlite" {
		return t.UTC().Format(time.RFC3339)
	}
	return t
}

// NewDialect creates a Dialect for the given driver name.
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

// likePattern wraps a raw filter value in %...% with LIKE metacharacters
// escaped, so user input is always matched literally.
func likePattern(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(value) + "%"
}

// --- PostgreSQL ParamBuilder ---

type pgParamBuilder struct {
	params []any
	n      int
}

func (p *pgParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("$%d", p.n)
}

func (p *pgParamBuilder) Params() []any { return p.params }
func (p *pgParamBuilder) Count() int    { return p.n }

// --- SQLite ParamBuilder ---

type sqliteParamBuilder struct {
	params []any
	n      int
}

func (p *sqliteParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("?%d", p.n)
}

func (p *sqliteParamBuilder) Params() []any { return p.params }
func (p *sqliteParamBuilder) Count() int    { return p.n }
