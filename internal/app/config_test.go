package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"GENERATION_PROVIDER", "SSE_HEARTBEAT_SECONDS", "RETRIEVAL_MIN_SIMILARITY", "CORS_ORIGINS", "DB_DRIVER", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(testLogger(t))
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 15*time.Second, cfg.Heartbeat)
	assert.InDelta(t, 0.65, cfg.MinSimilarity, 1e-9)
	assert.Equal(t, 75, cfg.ComplianceThreshold)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "Vertex")
	t.Setenv("SSE_HEARTBEAT_SECONDS", "5")
	t.Setenv("RETRIEVAL_MIN_SIMILARITY", "0.5")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")

	cfg := LoadConfig(testLogger(t))
	assert.Equal(t, ProviderVertex, cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat)
	assert.InDelta(t, 0.5, cfg.MinSimilarity, 1e-9)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.NotEmpty(t, cfg.DBDSN)
}

func TestLoadConfigRejectsUnknownProviderAndBadFloat(t *testing.T) {
	t.Setenv("GENERATION_PROVIDER", "llama")
	t.Setenv("RETRIEVAL_MIN_SIMILARITY", "high")
	cfg := LoadConfig(testLogger(t))
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.InDelta(t, 0.65, cfg.MinSimilarity, 1e-9)
}

func TestWireServicesRequiresModelClient(t *testing.T) {
	_, err := wireServices(nil, testLogger(t), Config{Provider: ProviderVertex}, Repos{}, Clients{}, nil)
	assert.Error(t, err)
}
