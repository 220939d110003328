package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalyzer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEGALYZER_SERVER_PORT", ":9000")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, int64(50), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(50*1024*1024), cfg.Upload.MaxFileSizeBytes())
	assert.Equal(t, []string{"pdf", "png", "jpg", "jpeg", "tiff", "bmp"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 5, cfg.Analysis.MaxConcurrent)
	assert.Equal(t, 7.0, cfg.Analysis.HighRiskThreshold)
	assert.Equal(t, 4.0, cfg.Analysis.MediumRiskThreshold)
	assert.Equal(t, 120*time.Second, cfg.Export.RenderTimeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)

	providers := cfg.Analysis.Providers()
	require.Len(t, providers, 1)
	assert.Equal(t, "openai", providers[0].Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEGALYZER_SERVER_PORT", ":9000")
	t.Setenv("LEGALYZER_UPLOAD_ALLOWED_EXTENSIONS", ".PDF, png ,")
	t.Setenv("LEGALYZER_ANALYSIS_SECONDARY_PROVIDER", "claude")
	t.Setenv("LEGALYZER_ANALYSIS_SECONDARY_DEFAULT_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("LEGALYZER_ANALYSIS_MAX_CONCURRENT", "2")
	t.Setenv("LEGALYZER_EXPORT_RENDER_TIMEOUT", "45s")
	t.Setenv("LEGALYZER_RETENTION_ANALYSIS_TTL", "0s")
	t.Setenv("LEGALYZER_METRICS_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"pdf", "png"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 2, cfg.Analysis.MaxConcurrent)
	assert.Equal(t, 45*time.Second, cfg.Export.RenderTimeout)
	assert.Zero(t, cfg.Retention.AnalysisTTL)
	assert.False(t, cfg.Metrics.Enabled)

	providers := cfg.Analysis.Providers()
	require.Len(t, providers, 2)
	assert.Equal(t, "claude", providers[1].Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", providers[1].DefaultModel)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "8080")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoad_RejectsNonPositiveConcurrency(t *testing.T) {
	t.Setenv("LEGALYZER_ANALYSIS_MAX_CONCURRENT", "0")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "legal", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/legal?sslmode=disable", db.DSN())
}
