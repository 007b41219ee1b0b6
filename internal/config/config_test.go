package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24, cfg.Auth.TokenTTL)
	assert.EqualValues(t, 10485760, cfg.Storage.MaxFileSize)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CATALOG_DATABASE_DRIVER", "sqlite")
	t.Setenv("CATALOG_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5433,
		User: "app", Password: "pw", Name: "catalog",
	}
	assert.Equal(t, "postgres://app:pw@db:5433/catalog?sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Name: "catalog", Path: "/tmp/data"}
	assert.Equal(t, "/tmp/data/catalog.db", lite.DSN())
}
