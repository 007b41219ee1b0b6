package store

import (
	"context"
	"fmt"
	"strings"

	"catalog-admin/internal/metadata"
)

// Migrator creates the catalog tables from the entity descriptors.
type Migrator struct {
	store *Store
	reg   *metadata.Registry
}

func NewMigrator(store *Store, reg *metadata.Registry) *Migrator {
	return &Migrator{store: store, reg: reg}
}

// EnsureSchema creates every entity table and many-to-many join table that
// does not exist yet. Existing tables are left untouched.
func (m *Migrator) EnsureSchema(ctx context.Context) error {
	for _, entity := range m.reg.Entities() {
		exists, err := m.store.Dialect.TableExists(ctx, m.store.DB, entity.Table)
		if err != nil {
			return fmt.Errorf("check table %s: %w", entity.Table, err)
		}
		if exists {
			continue
		}
		if err := m.createTable(ctx, entity); err != nil {
			return fmt.Errorf("create table %s: %w", entity.Table, err)
		}
	}

	seen := make(map[string]bool)
	for _, entity := range m.reg.Entities() {
		for i := range entity.Relations {
			rel := &entity.Relations[i]
			if rel.Cardinality != metadata.ManyToMany || seen[rel.JoinTable] {
				continue
			}
			seen[rel.JoinTable] = true
			if err := m.createJoinTable(ctx, entity, rel); err != nil {
				return fmt.Errorf("create join table %s: %w", rel.JoinTable, err)
			}
		}
	}

	return nil
}

func (m *Migrator) createTable(ctx context.Context, entity *metadata.Entity) error {
	defs := make([]string, 0, len(entity.Columns))
	for _, col := range entity.Columns {
		defs = append(defs, m.columnDef(entity, col))
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		entity.Table, strings.Join(defs, ",\n    "))
	_, err := m.store.DB.ExecContext(ctx, ddl)
	return err
}

func (m *Migrator) columnDef(entity *metadata.Entity, col metadata.Column) string {
	d := m.store.Dialect
	if col.PrimaryKey {
		if col.Type == metadata.Int {
			return col.DBName + " " + d.AutoIncrementPK()
		}
		// UUID keys are generated in application code
		return fmt.Sprintf("%s %s PRIMARY KEY", col.DBName, d.ColumnDDL(col.Type))
	}

	def := col.DBName + " " + d.ColumnDDL(col.Type)
	if col.Unique {
		def += " UNIQUE"
	}
	if target := m.fkTarget(entity, col); target != "" {
		def += " REFERENCES " + target
	}
	return def
}

// fkTarget returns "table(pk)" when a relation declares this column as a
// foreign key held on the entity itself.
func (m *Migrator) fkTarget(entity *metadata.Entity, col metadata.Column) string {
	for i := range entity.Relations {
		rel := &entity.Relations[i]
		if !rel.FKOnSelf || rel.FKColumn != col.DBName {
			continue
		}
		related := m.reg.Entity(rel.Entity)
		if related == nil || related.PrimaryKey() == nil {
			continue
		}
		return fmt.Sprintf("%s(%s)", related.Table, related.PrimaryKey().DBName)
	}
	return ""
}

func (m *Migrator) createJoinTable(ctx context.Context, entity *metadata.Entity, rel *metadata.Relation) error {
	related := m.reg.Entity(rel.Entity)
	if related == nil {
		return fmt.Errorf("unknown related entity %s", rel.Entity)
	}
	selfPK := entity.PrimaryKey()
	relatedPK := related.PrimaryKey()
	if selfPK == nil || relatedPK == nil {
		return fmt.Errorf("join table %s requires primary keys on both sides", rel.JoinTable)
	}

	d := m.store.Dialect
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
    %s %s NOT NULL REFERENCES %s(%s) ON DELETE CASCADE,
    %s %s NOT NULL REFERENCES %s(%s) ON DELETE CASCADE,
    PRIMARY KEY (%s, %s)
)`,
		rel.JoinTable,
		rel.JoinSelfKey, d.ColumnDDL(selfPK.Type), entity.Table, selfPK.DBName,
		rel.JoinRelatedKey, d.ColumnDDL(relatedPK.Type), related.Table, relatedPK.DBName,
		rel.JoinSelfKey, rel.JoinRelatedKey,
	)
	_, err := m.store.DB.ExecContext(ctx, ddl)
	return err
}
