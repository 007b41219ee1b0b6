package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-admin/internal/metadata"
	"catalog-admin/internal/store"
)

func TestBuildFilterScalarDispatch(t *testing.T) {
	reg := metadata.Catalog()
	product := reg.Entity("product")

	tests := []struct {
		name   string
		field  string
		value  string
		wantOp Op
		want   any
		kept   bool
	}{
		{"int equals", "id", "42", OpEquals, int64(42), true},
		{"int garbage dropped", "id", "abc", 0, nil, false},
		{"float equals", "price", "999.5", OpEquals, 999.5, true},
		{"float garbage dropped", "price", "cheap", 0, nil, false},
		{"string contains", "name", "lap", OpContains, "lap", true},
		{"unknown field dropped", "color", "red", 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := BuildFilter(product, map[string]string{
				"filterField_0": tt.field,
				"filterValue_0": tt.value,
			})
			if !tt.kept {
				assert.Empty(t, spec.Conditions)
				return
			}
			require.Len(t, spec.Conditions, 1)
			cond := spec.Conditions[0]
			assert.Equal(t, tt.wantOp, cond.Op)
			assert.Equal(t, tt.want, cond.Value)
		})
	}
}

func TestBuildFilterBoolean(t *testing.T) {
	reg := metadata.Catalog()
	user := reg.Entity("user")

	spec := BuildFilter(user, map[string]string{"filterField_0": "active", "filterValue_0": "TRUE"})
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, true, spec.Conditions[0].Value)

	spec = BuildFilter(user, map[string]string{"filterField_0": "active", "filterValue_0": "yes"})
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, false, spec.Conditions[0].Value, "anything but true is false")
}

func TestBuildFilterDateRange(t *testing.T) {
	reg := metadata.Catalog()
	product := reg.Entity("product")

	spec := BuildFilter(product, map[string]string{
		"filterField_0": "date",
		"filterValue_0": "2024-01-01,2024-06-30T23:59:59Z",
	})
	require.Len(t, spec.Conditions, 1)
	cond := spec.Conditions[0]
	assert.Equal(t, OpBetween, cond.Op)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cond.Value)

	// both bounds must parse or the pair is dropped
	spec = BuildFilter(product, map[string]string{
		"filterField_0": "date",
		"filterValue_0": "2024-01-01,never",
	})
	assert.Empty(t, spec.Conditions)

	// a single value is not a range
	spec = BuildFilter(product, map[string]string{
		"filterField_0": "date",
		"filterValue_0": "2024-01-01",
	})
	assert.Empty(t, spec.Conditions)
}

func TestBuildFilterRelation(t *testing.T) {
	reg := metadata.Catalog()
	product := reg.Entity("product")

	spec := BuildFilter(product, map[string]string{
		"filterField_0": "categories",
		"filterValue_0": "electro",
		"filterField_1": "name",
		"filterValue_1": "lap",
	})
	require.Len(t, spec.Conditions, 2)
	assert.NotNil(t, spec.Conditions[0].Relation)
	assert.Equal(t, "categories", spec.Conditions[0].Relation.Name)
	assert.NotNil(t, spec.Conditions[1].Column)
}

func TestBuildFilterIgnoresIndexGaps(t *testing.T) {
	reg := metadata.Catalog()
	product := reg.Entity("product")

	// the index only disambiguates repeats; a gap drops nothing
	spec := BuildFilter(product, map[string]string{
		"filterField_0": "name",
		"filterValue_0": "a",
		"filterField_2": "name",
		"filterValue_2": "b",
	})
	require.Len(t, spec.Conditions, 2)
	assert.Equal(t, "a", spec.Conditions[0].Value)
	assert.Equal(t, "b", spec.Conditions[1].Value)

	spec = BuildFilter(product, map[string]string{
		"filterField_1": "name",
		"filterValue_1": "widget",
	})
	require.Len(t, spec.Conditions, 1, "pairs need not start at index 0")
	assert.Equal(t, "widget", spec.Conditions[0].Value)
}

func TestBuildFilterNeedsBothFieldAndValue(t *testing.T) {
	reg := metadata.Catalog()
	user := reg.Entity("user")
	product := reg.Entity("product")

	// a field without a value is not a condition, not a false-filter
	spec := BuildFilter(user, map[string]string{"filterField_0": "active"})
	assert.Empty(t, spec.Conditions)

	// an empty value is treated the same as a missing one
	spec = BuildFilter(product, map[string]string{
		"filterField_0": "name",
		"filterValue_0": "",
	})
	assert.Empty(t, spec.Conditions)

	spec = BuildFilter(product, map[string]string{
		"filterField_0": "categories",
		"filterValue_0": "",
	})
	assert.Empty(t, spec.Conditions, "empty relation filter is a no-op, not an any-related match")

	spec = BuildFilter(product, map[string]string{"filterValue_0": "lap"})
	assert.Empty(t, spec.Conditions)
}

func TestBuildSort(t *testing.T) {
	reg := metadata.Catalog()
	product := reg.Entity("product")

	sort := BuildSort(product, map[string]string{"sortField": "price", "sortOrder": "ascend"})
	require.NotNil(t, sort.Column)
	assert.Equal(t, "price", sort.Column.Name)
	assert.False(t, sort.Desc)

	sort = BuildSort(product, map[string]string{"sortField": "price", "sortOrder": "whatever"})
	assert.True(t, sort.Desc, "anything but ascend/asc sorts descending")

	// dotted field through a 1:1 relation
	sort = BuildSort(product, map[string]string{"sortField": "stock.quantity", "sortOrder": "asc"})
	require.NotNil(t, sort.Relation)
	assert.Equal(t, "stock", sort.Relation.Name)

	// N:N is not sortable-through; falls back to PK ascending
	sort = BuildSort(product, map[string]string{"sortField": "category.name", "sortOrder": "asc"})
	require.NotNil(t, sort.Column)
	assert.Equal(t, "id", sort.Column.Name)
	assert.False(t, sort.Desc)

	// no sortField at all
	sort = BuildSort(product, map[string]string{})
	require.NotNil(t, sort.Column)
	assert.Equal(t, "id", sort.Column.Name)
	assert.False(t, sort.Desc)
}

func TestBuildListSQLShapes(t *testing.T) {
	reg := metadata.Catalog()
	b := NewSQLBuilder(reg, &store.SQLiteDialect{})
	product := reg.Entity("product")

	filter := BuildFilter(product, map[string]string{
		"filterField_0": "categories",
		"filterValue_0": "electro",
		"filterField_1": "price",
		"filterValue_1": "10",
	})
	sort := BuildSort(product, map[string]string{"sortField": "date", "sortOrder": "descend"})

	sqlStr, args := b.BuildListSQL(product, filter, sort, Page{Number: 2, Size: 10})
	assert.Contains(t, sqlStr, "EXISTS (SELECT 1 FROM product_categories j0 JOIN categories r0")
	assert.Contains(t, sqlStr, "products.price = ")
	assert.Contains(t, sqlStr, "ORDER BY products.date DESC")
	assert.Contains(t, sqlStr, "LIMIT")
	// contains pattern, price, limit, offset
	require.Len(t, args, 4)
	assert.Equal(t, "%electro%", args[0])
	assert.Equal(t, 10, args[2])
	assert.Equal(t, 10, args[3])
}

func TestBuildListSQLNestedSort(t *testing.T) {
	reg := metadata.Catalog()
	b := NewSQLBuilder(reg, &store.SQLiteDialect{})
	product := reg.Entity("product")

	sort := BuildSort(product, map[string]string{"sortField": "stock.quantity", "sortOrder": "asc"})
	sqlStr, _ := b.BuildListSQL(product, FilterSpec{}, sort, Page{Number: 1, Size: 50})
	assert.Contains(t, sqlStr, "(SELECT MIN(s.quantity) FROM stocks s WHERE s.product_id = products.id) ASC")
}

func TestBuildListSQLSelfReferentialFilter(t *testing.T) {
	reg := metadata.Catalog()
	b := NewSQLBuilder(reg, &store.SQLiteDialect{})
	category := reg.Entity("category")

	filter := BuildFilter(category, map[string]string{
		"filterField_0": "parent",
		"filterValue_0": "root",
	})
	sqlStr, args := b.BuildCountSQL(category, filter)
	assert.Contains(t, sqlStr, "EXISTS (SELECT 1 FROM categories r0 WHERE r0.id = categories.category_parent_id")
	require.Len(t, args, 1)
	assert.Equal(t, "%root%", args[0])
}

func TestBuildGetSQLAliasesWireNames(t *testing.T) {
	reg := metadata.Catalog()
	b := NewSQLBuilder(reg, &store.SQLiteDialect{})
	category := reg.Entity("category")

	sqlStr, args := b.BuildGetSQL(category, int64(7))
	assert.Contains(t, sqlStr, `category_parent_id AS "categoryParentId"`)
	assert.Contains(t, sqlStr, "WHERE categories.id = ?1")
	assert.Equal(t, []any{int64(7)}, args)
}

func TestLikePatternEscaping(t *testing.T) {
	reg := metadata.Catalog()
	b := NewSQLBuilder(reg, &store.SQLiteDialect{})
	product := reg.Entity("product")

	filter := BuildFilter(product, map[string]string{
		"filterField_0": "name",
		"filterValue_0": "50%_off",
	})
	_, args := b.BuildCountSQL(product, filter)
	require.Len(t, args, 1)
	assert.Equal(t, `%50\%\_off%`, args[0])
}
