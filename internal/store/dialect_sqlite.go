package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catalog-admin/internal/metadata"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder { return &sqliteParamBuilder{} }

func (d *SQLiteDialect) NowExpr() string    { return "datetime('now')" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) ColumnDDL(t metadata.ColumnType) string {
	switch t {
	case metadata.Int:
		return "INTEGER"
	case metadata.Float:
		return "REAL"
	case metadata.Boolean:
		return "INTEGER"
	case metadata.String:
		return "TEXT"
	case metadata.DateTime:
		return "TEXT"
	case metadata.UUID:
		return "TEXT"
	case metadata.File:
		return "TEXT"
	}
	return "TEXT"
}

func (d *SQLiteDialect) AutoIncrementPK() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *SQLiteDialect) ContainsExpr(column string, pb ParamBuilder, value string) string {
	// SQLite LIKE is case-insensitive for ASCII by default
	ph := pb.Add(likePattern(value))
	return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, column, ph)
}

func (d *SQLiteDialect) TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?1",
		tableName,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

var _ Dialect = (*SQLiteDialect)(nil)
