package engine

import (
	"context"
	"fmt"
	"strings"

	"catalog-admin/internal/metadata"
	"catalog-admin/internal/store"
)

// attachIncludes eagerly attaches every declared relation one level deep,
// batched across the page: single object (or nil) when the row itself holds
// the reference or for 1:1 has-one, arrays for has-many and N:N.
func (r *Repository) attachIncludes(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range r.entity.Relations {
		rel := &r.entity.Relations[i]
		var err error
		switch {
		case rel.Cardinality == metadata.ManyToMany:
			err = r.attachManyToMany(ctx, rel, rows)
		case rel.FKOnSelf:
			err = r.attachBelongsTo(ctx, rel, rows)
		default:
			err = r.attachHasMany(ctx, rel, rows)
		}
		if err != nil {
			return fmt.Errorf("include %s.%s: %w", r.entity.Name, rel.Name, err)
		}
	}
	return nil
}

// attachBelongsTo resolves relations whose FK lives on this entity
// (stock.product, category.parent): one related object or nil per row.
func (r *Repository) attachBelongsTo(ctx context.Context, rel *metadata.Relation, rows []map[string]any) error {
	related := r.reg.Entity(rel.Entity)
	fkWire := wireNameFor(r.entity, rel.FKColumn)
	if related == nil || fkWire == "" {
		return nil
	}

	fks := distinctValues(rows, fkWire)
	byPK := make(map[string]map[string]any)
	if len(fks) > 0 {
		pb := r.store.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf("SELECT %s FROM %s WHERE %s.%s IN (%s)",
			r.sqlb.selectList(related), related.Table,
			related.Table, related.PrimaryKey().DBName, placeholders(pb, fks))
		relatedRows, err := store.QueryRows(ctx, r.store.DB, sqlStr, pb.Params()...)
		if err != nil {
			return err
		}
		r.normalizeRelated(related, relatedRows)
		for _, row := range relatedRows {
			byPK[groupKey(row[related.PrimaryKey().Name])] = row
		}
	}

	for _, row := range rows {
		fk := row[fkWire]
		if fk == nil {
			row[rel.Name] = nil
			continue
		}
		if match, ok := byPK[groupKey(fk)]; ok {
			row[rel.Name] = match
		} else {
			row[rel.Name] = nil
		}
	}
	return nil
}

// attachHasMany resolves relations whose FK lives on the related entity:
// product.stock (1:1, object or nil), product.pictures and category.children
// (1:N, arrays).
func (r *Repository) attachHasMany(ctx context.Context, rel *metadata.Relation, rows []map[string]any) error {
	related := r.reg.Entity(rel.Entity)
	if related == nil {
		return nil
	}
	fkWire := wireNameFor(related, rel.FKColumn)
	if fkWire == "" {
		return nil
	}

	pk := r.entity.PrimaryKey()
	selfIDs := distinctValues(rows, pk.Name)
	grouped := make(map[string][]map[string]any)
	if len(selfIDs) > 0 {
		pb := r.store.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf("SELECT %s FROM %s WHERE %s.%s IN (%s) ORDER BY %s.%s",
			r.sqlb.selectList(related), related.Table,
			related.Table, rel.FKColumn, placeholders(pb, selfIDs),
			related.Table, related.PrimaryKey().DBName)
		relatedRows, err := store.QueryRows(ctx, r.store.DB, sqlStr, pb.Params()...)
		if err != nil {
			return err
		}
		r.normalizeRelated(related, relatedRows)
		for _, row := range relatedRows {
			key := groupKey(row[fkWire])
			grouped[key] = append(grouped[key], row)
		}
	}

	for _, row := range rows {
		matches := grouped[groupKey(row[pk.Name])]
		if rel.Cardinality == metadata.OneToOne {
			if len(matches) > 0 {
				row[rel.Name] = matches[0]
			} else {
				row[rel.Name] = nil
			}
			continue
		}
		if matches == nil {
			matches = []map[string]any{}
		}
		row[rel.Name] = matches
	}
	return nil
}

// attachManyToMany resolves join-table relations as arrays per row.
func (r *Repository) attachManyToMany(ctx context.Context, rel *metadata.Relation, rows []map[string]any) error {
	related := r.reg.Entity(rel.Entity)
	if related == nil {
		return nil
	}

	pk := r.entity.PrimaryKey()
	selfIDs := distinctValues(rows, pk.Name)
	grouped := make(map[string][]map[string]any)
	if len(selfIDs) > 0 {
		pb := r.store.Dialect.NewParamBuilder()
		sqlStr := fmt.Sprintf(
			`SELECT %s, j.%s AS "__self" FROM %s j JOIN %s ON %s.%s = j.%s WHERE j.%s IN (%s) ORDER BY %s.%s`,
			r.sqlb.selectList(related), rel.JoinSelfKey,
			rel.JoinTable, related.Table,
			related.Table, related.PrimaryKey().DBName, rel.JoinRelatedKey,
			rel.JoinSelfKey, placeholders(pb, selfIDs),
			related.Table, related.PrimaryKey().DBName)
		relatedRows, err := store.QueryRows(ctx, r.store.DB, sqlStr, pb.Params()...)
		if err != nil {
			return err
		}
		r.normalizeRelated(related, relatedRows)
		for _, row := range relatedRows {
			key := groupKey(row["__self"])
			delete(row, "__self")
			grouped[key] = append(grouped[key], row)
		}
	}

	for _, row := range rows {
		matches := grouped[groupKey(row[pk.Name])]
		if matches == nil {
			matches = []map[string]any{}
		}
		row[rel.Name] = matches
	}
	return nil
}

func (r *Repository) normalizeRelated(related *metadata.Entity, rows []map[string]any) {
	if !r.store.Dialect.NeedsBoolFix() {
		return
	}
	store.NormalizeBooleans(rows, boolFields(related))
}

// wireNameFor maps a DB column name back to its wire name.
func wireNameFor(entity *metadata.Entity, dbName string) string {
	for _, col := range entity.Columns {
		if col.DBName == dbName {
			return col.Name
		}
	}
	return ""
}

// distinctValues collects the distinct non-nil values of one field across
// the page.
func distinctValues(rows []map[string]any, field string) []any {
	seen := make(map[string]bool)
	var vals []any
	for _, row := range rows {
		v := row[field]
		if v == nil {
			continue
		}
		key := groupKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		vals = append(vals, v)
	}
	return vals
}

func placeholders(pb store.ParamBuilder, vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = pb.Add(v)
	}
	return strings.Join(parts, ", ")
}

// groupKey normalizes a value for map grouping; drivers may hand back the
// same key as int64 in one query and string in another.
func groupKey(v any) string {
	return fmt.Sprint(v)
}
