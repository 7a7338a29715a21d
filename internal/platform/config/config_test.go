package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ADDR", "RUN_MIGRATIONS", "MAX_BODY_BYTES", "PAYROLL_INSS_PERCENT", "PAYROLL_FGTS_PERCENT"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, int64(1048576), cfg.MaxBodyBytes)
	assert.True(t, cfg.INSSPercent.Equal(decimal.RequireFromString("11")))
	assert.True(t, cfg.FGTSPercent.Equal(decimal.RequireFromString("8")))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gestor")
	t.Setenv("PAYROLL_INSS_PERCENT", "9.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	assert.Equal(t, "postgres://localhost/gestor", cfg.DatabaseURL)
	assert.True(t, cfg.INSSPercent.Equal(decimal.RequireFromString("9.5")))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingDatabaseURL(t *testing.T) {
	cfg := Load()
	cfg.DatabaseURL = ""
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangePercent(t *testing.T) {
	cfg := Load()
	cfg.DatabaseURL = "postgres://localhost/gestor"
	cfg.IRRFPercent = decimal.RequireFromString("120")
	require.Error(t, cfg.Validate())
}
