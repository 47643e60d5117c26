package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "@every 1m", cfg.DispatchSchedule)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 10*time.Minute, cfg.ClaimLease)
	assert.Equal(t, time.Duration(0), cfg.StaleAfter)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.Release)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"GIN_MODE":             "release",
		"REMINDER_BATCH_SIZE":  10,
		"REMINDER_STALE_AFTER": "48h",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com, https://admin.example.com",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Release)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 48*time.Hour, cfg.StaleAfter)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestFromViper_InvalidValues(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"REMINDER_CLAIM_LEASE": "soon"}))
	assert.ErrorContains(t, err, "REMINDER_CLAIM_LEASE")

	_, err = fromViper(newViper(map[string]any{"REMINDER_BATCH_SIZE": 0}))
	assert.ErrorContains(t, err, "REMINDER_BATCH_SIZE")
}

func TestDSN(t *testing.T) {
	cfg := &Config{Release: true}
	_, err := cfg.DSN()
	assert.ErrorContains(t, err, "DATABASE_URL")

	cfg.DatabaseURL = "postgres://u:p@db:5432/bookwell"
	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/bookwell", dsn)

	cfg = &Config{DBHost: "localhost", DBUser: "u", DBPassword: "p", DBName: "bookwell", DBPort: "5432", DBSSLMode: "disable"}
	dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=bookwell")
	assert.Contains(t, dsn, "TimeZone=UTC")

	cfg.DBPort = ""
	_, err = cfg.DSN()
	assert.ErrorContains(t, err, "DB_PORT")
}
