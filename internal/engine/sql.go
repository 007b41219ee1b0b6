package engine

import (
	"fmt"
	"strings"
	"time"

	"catalog-admin/internal/metadata"
	"catalog-admin/internal/store"
)

// SQLBuilder renders FilterSpec / SortSpec into dialect-aware, fully
// parameterized SQL. Identifiers come from the static metadata, never from
// the request; only values travel as parameters.
type SQLBuilder struct {
	reg     *metadata.Registry
	dialect store.Dialect
}

func NewSQLBuilder(reg *metadata.Registry, dialect store.Dialect) *SQLBuilder {
	return &SQLBuilder{reg: reg, dialect: dialect}
}

// BuildListSQL renders the paginated list query with wire-name aliases.
func (b *SQLBuilder) BuildListSQL(entity *metadata.Entity, filter FilterSpec, sort SortSpec, page Page) (string, []any) {
	pb := b.dialect.NewParamBuilder()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.selectList(entity))
	sb.WriteString(" FROM ")
	sb.WriteString(entity.Table)
	if where := b.whereClause(entity, filter, pb); where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	sb.WriteString(" ")
	sb.WriteString(b.orderClause(entity, sort))
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", pb.Add(page.Size), pb.Add(page.Offset()))

	return sb.String(), pb.Params()
}

// BuildCountSQL renders the total count over the same filtered set,
// independent of the page window.
func (b *SQLBuilder) BuildCountSQL(entity *metadata.Entity, filter FilterSpec) (string, []any) {
	pb := b.dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(`SELECT COUNT(*) AS "total" FROM %s`, entity.Table)
	if where := b.whereClause(entity, filter, pb); where != "" {
		sqlStr += " WHERE " + where
	}
	return sqlStr, pb.Params()
}

// BuildGetSQL renders a single-record lookup by primary key.
func (b *SQLBuilder) BuildGetSQL(entity *metadata.Entity, id any) (string, []any) {
	pb := b.dialect.NewParamBuilder()
	pk := entity.PrimaryKey()
	sqlStr := fmt.Sprintf("SELECT %s FROM %s WHERE %s.%s = %s",
		b.selectList(entity), entity.Table, entity.Table, pk.DBName, pb.Add(id))
	return sqlStr, pb.Params()
}

// selectList aliases snake_case columns to their wire names so scanned rows
// serialize directly. Sensitive columns are never selected.
func (b *SQLBuilder) selectList(entity *metadata.Entity) string {
	cols := entity.ReadColumns()
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		qualified := entity.Table + "." + col.DBName
		if col.Name != col.DBName {
			parts = append(parts, fmt.Sprintf(`%s AS "%s"`, qualified, col.Name))
		} else {
			parts = append(parts, qualified)
		}
	}
	return strings.Join(parts, ", ")
}

func (b *SQLBuilder) whereClause(entity *metadata.Entity, filter FilterSpec, pb store.ParamBuilder) string {
	var conds []string
	for i, c := range filter.Conditions {
		rendered := b.renderCondition(entity, c, i, pb)
		if rendered != "" {
			conds = append(conds, rendered)
		}
	}
	return strings.Join(conds, " AND ")
}

func (b *SQLBuilder) renderCondition(entity *metadata.Entity, c Condition, idx int, pb store.ParamBuilder) string {
	if c.Relation != nil {
		return b.renderRelationCondition(entity, c.Relation, c.Value.(string), idx, pb)
	}

	qualified := entity.Table + "." + c.Column.DBName
	switch c.Op {
	case OpEquals:
		return fmt.Sprintf("%s = %s", qualified, pb.Add(c.Value))
	case OpContains:
		return b.dialect.ContainsExpr(qualified, pb, c.Value.(string))
	case OpBetween:
		lo := b.timeParam(c.Value.(time.Time))
		hi := b.timeParam(c.Hi.(time.Time))
		return fmt.Sprintf("%s >= %s AND %s <= %s", qualified, pb.Add(lo), qualified, pb.Add(hi))
	}
	return ""
}

// renderRelationCondition emits an EXISTS subquery matching "at least one
// related record whose display key contains the value". Three row linkages:
// join table (N:N), FK held on this entity, FK held on the related entity.
// Aliases are indexed per condition so self-referential relations stay
// unambiguous.
func (b *SQLBuilder) renderRelationCondition(entity *metadata.Entity, rel *metadata.Relation, value string, idx int, pb store.ParamBuilder) string {
	related := b.reg.Entity(rel.Entity)
	if related == nil {
		return ""
	}
	display := related.Column(rel.DisplayKey)
	pk := entity.PrimaryKey()
	relatedPK := related.PrimaryKey()
	if display == nil || pk == nil || relatedPK == nil {
		return ""
	}

	alias := fmt.Sprintf("r%d", idx)
	contains := b.dialect.ContainsExpr(alias+"."+display.DBName, pb, value)

	switch {
	case rel.Cardinality == metadata.ManyToMany:
		join := fmt.Sprintf("j%d", idx)
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s %s JOIN %s %s ON %s.%s = %s.%s WHERE %s.%s = %s.%s AND %s)",
			rel.JoinTable, join, related.Table, alias,
			alias, relatedPK.DBName, join, rel.JoinRelatedKey,
			join, rel.JoinSelfKey, entity.Table, pk.DBName,
			contains)
	case rel.FKOnSelf:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.%s AND %s)",
			related.Table, alias,
			alias, relatedPK.DBName, entity.Table, rel.FKColumn,
			contains)
	default:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.%s AND %s)",
			related.Table, alias,
			alias, rel.FKColumn, entity.Table, pk.DBName,
			contains)
	}
}

// orderClause renders the single sort key. Nested sort keys become a
// correlated scalar subquery; MIN collapses has-many relations to one value
// per row.
func (b *SQLBuilder) orderClause(entity *metadata.Entity, sort SortSpec) string {
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}

	if sort.Relation == nil {
		return fmt.Sprintf("ORDER BY %s.%s %s", entity.Table, sort.Column.DBName, dir)
	}

	rel := sort.Relation
	related := b.reg.Entity(rel.Entity)
	display := related.Column(rel.DisplayKey)
	var sub string
	if rel.FKOnSelf {
		sub = fmt.Sprintf("(SELECT s.%s FROM %s s WHERE s.%s = %s.%s)",
			display.DBName, related.Table, related.PrimaryKey().DBName, entity.Table, rel.FKColumn)
	} else {
		sub = fmt.Sprintf("(SELECT MIN(s.%s) FROM %s s WHERE s.%s = %s.%s)",
			display.DBName, related.Table, rel.FKColumn, entity.Table, entity.PrimaryKey().DBName)
	}
	return fmt.Sprintf("ORDER BY %s %s", sub, dir)
}

func (b *SQLBuilder) timeParam(t time.Time) any {
	return store.TimeParam(b.dialect, t)
}
