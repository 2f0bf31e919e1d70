package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/tigerroll/rlsgen/pkg/batch/adapter/database/config"
)

func TestDecode_WeaklyTypedPort(t *testing.T) {
	cfg, err := dbconfig.Decode(map[string]interface{}{
		"type":     "postgres",
		"host":     "db.local",
		"port":     "6543",
		"user":     "postgres",
		"password": "secret",
		"database": "app",
	})
	require.NoError(t, err)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "disable", cfg.Sslmode)
	assert.Empty(t, cfg.MissingFields())
}

func TestMissingFields(t *testing.T) {
	cfg, err := dbconfig.Decode(map[string]interface{}{"type": "postgres", "host": "db.local", "port": ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"port", "user", "password", "database"}, cfg.MissingFields())
}
