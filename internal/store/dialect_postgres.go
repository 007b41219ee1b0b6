package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catalog-admin/internal/metadata"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder { return &pgParamBuilder{} }

func (d *PostgresDialect) NowExpr() string    { return "NOW()" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) ColumnDDL(t metadata.ColumnType) string {
	switch t {
	case metadata.Int:
		return "INTEGER"
	case metadata.Float:
		return "DOUBLE PRECISION"
	case metadata.Boolean:
		return "BOOLEAN"
	case metadata.String:
		return "TEXT"
	case metadata.DateTime:
		return "TIMESTAMPTZ"
	case metadata.UUID:
		return "UUID"
	case metadata.File:
		return "TEXT"
	}
	return "TEXT"
}

func (d *PostgresDialect) AutoIncrementPK() string {
	return "INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
}

func (d *PostgresDialect) ContainsExpr(column string, pb ParamBuilder, value string) string {
	ph := pb.Add(likePattern(value))
	return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, ph)
}

func (d *PostgresDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1 AND table_schema = 'public')`,
		tableName,
	).Scan(&exists)
	return exists, err
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib the message carries the PG error code
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

var _ Dialect = (*PostgresDialect)(nil)
