package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-admin/internal/metadata"
)

func TestRules(t *testing.T) {
	reg := metadata.Catalog()
	rules, err := NewRules(reg)
	require.NoError(t, err)

	product := reg.Entity("product")

	assert.NoError(t, rules.Run(product, map[string]any{"name": "ok", "price": 10.0}))
	assert.NoError(t, rules.Run(product, map[string]any{"name": "no price"}),
		"absent values pass the nil guard")

	err = rules.Run(product, map[string]any{"price": -1.0})
	require.Error(t, err)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 422, appErr.Status)
	assert.Equal(t, "price must not be negative", appErr.Message)

	user := reg.Entity("user")
	assert.NoError(t, rules.Run(user, map[string]any{"email": "a@b.c"}))
	assert.Error(t, rules.Run(user, map[string]any{"email": "nope"}))

	stock := reg.Entity("stock")
	assert.Error(t, rules.Run(stock, map[string]any{"quantity": int64(-3)}))
	assert.NoError(t, rules.Run(stock, map[string]any{"quantity": int64(0)}))
}
