package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIntegrity(t *testing.T) {
	reg := Catalog()
	entities := reg.Entities()
	require.Len(t, entities, 5)

	for _, entity := range entities {
		t.Run(entity.Name, func(t *testing.T) {
			pkCount := 0
			for _, col := range entity.Columns {
				if col.PrimaryKey {
					pkCount++
				}
			}
			assert.Equal(t, 1, pkCount, "exactly one primary key")

			for _, rel := range entity.Relations {
				related := reg.Entity(rel.Entity)
				require.NotNil(t, related, "relation %s points at registered entity", rel.Name)
				assert.NotNil(t, related.Column(rel.DisplayKey),
					"display key %s exists on %s", rel.DisplayKey, rel.Entity)

				if rel.Cardinality == ManyToMany {
					assert.NotEmpty(t, rel.JoinTable)
					assert.NotEmpty(t, rel.JoinSelfKey)
					assert.NotEmpty(t, rel.JoinRelatedKey)
				} else {
					assert.NotEmpty(t, rel.FKColumn)
				}
			}
		})
	}
}

func TestCatalogRelationShapes(t *testing.T) {
	reg := Catalog()

	category := reg.Entity("category")
	require.NotNil(t, category)
	parent := category.Relation("parent")
	require.NotNil(t, parent)
	assert.True(t, parent.SelfReferential)
	assert.True(t, parent.FKOnSelf)
	children := category.Relation("children")
	require.NotNil(t, children)
	assert.False(t, children.FKOnSelf)

	product := reg.Entity("product")
	require.NotNil(t, product)
	stock := product.Relation("stock")
	require.NotNil(t, stock)
	assert.Equal(t, OneToOne, stock.Cardinality)
	assert.True(t, stock.SortableThrough())

	categories := product.Relation("categories")
	require.NotNil(t, categories)
	assert.Equal(t, ManyToMany, categories.Cardinality)
	assert.True(t, categories.Writable)
	assert.False(t, categories.SortableThrough())
}

func TestEntityColumnSets(t *testing.T) {
	reg := Catalog()
	user := reg.Entity("user")
	require.NotNil(t, user)

	for _, col := range user.ReadColumns() {
		assert.NotEqual(t, "password", col.Name, "sensitive columns are never read")
	}
	writableNames := make(map[string]bool)
	for _, col := range user.WritableColumns() {
		writableNames[col.Name] = true
	}
	assert.False(t, writableNames["id"], "generated keys are not writable")
	assert.False(t, writableNames["createdAt"], "auto stamps are not writable")
	assert.True(t, writableNames["password"])

	picture := reg.Entity("picture")
	require.NotNil(t, picture)
	assert.True(t, picture.HasFileColumns())
	assert.False(t, user.HasFileColumns())
}
