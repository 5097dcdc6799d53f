package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/regdraft-backend/internal/modules/compliance"
	"github.com/yungbote/regdraft-backend/internal/modules/knowledge"
	"github.com/yungbote/regdraft-backend/internal/platform/envutil"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
	"github.com/yungbote/regdraft-backend/internal/sse"
)

const (
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string
	Port        string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RunLeaseTTL   time.Duration

	Provider            string
	LLMCompliance       bool
	ComplianceThreshold int
	MinSimilarity       float64
	ExpectedChars       int

	JWTSecret       string
	CORSOrigins     []string
	Heartbeat       time.Duration
	SeedOnStart     bool
	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName: envutil.String("SERVICE_NAME", "regdraft"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),
		Port:        envutil.String("PORT", "8080"),

		DBDriver: envutil.String("DB_DRIVER", "postgres"),
		DBDSN:    envutil.String("DATABASE_URL", ""),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RunLeaseTTL:   envutil.Seconds("GENERATION_LEASE_SECONDS", 30*time.Second),

		Provider:            strings.ToLower(envutil.String("GENERATION_PROVIDER", ProviderOpenAI)),
		LLMCompliance:       envutil.Bool("COMPLIANCE_USE_MODEL", true),
		ComplianceThreshold: envutil.Int("COMPLIANCE_THRESHOLD", compliance.DefaultThreshold),
		MinSimilarity:       envFloat(log, "RETRIEVAL_MIN_SIMILARITY", knowledge.DefaultMinSimilarity),
		ExpectedChars:       envutil.Int("GENERATION_EXPECTED_CHARS", 12000),

		JWTSecret:       envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:     envutil.List("CORS_ORIGINS", nil),
		Heartbeat:       envutil.Seconds("SSE_HEARTBEAT_SECONDS", sse.DefaultHeartbeat),
		SeedOnStart:     envutil.Bool("SEED_ON_START", false),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
	}
	if cfg.DBDSN == "" && strings.EqualFold(cfg.DBDriver, "sqlite") {
		cfg.DBDSN = "regdraft.db?_foreign_keys=on"
	}
	if cfg.Provider != ProviderOpenAI && cfg.Provider != ProviderVertex {
		log.Warn("Unknown GENERATION_PROVIDER; using openai", "value", cfg.Provider)
		cfg.Provider = ProviderOpenAI
	}
	if cfg.JWTSecret == "" {
		log.Info("JWT_SECRET_KEY not set; bearer tokens will be rejected and X-Reviewer is trusted")
	}
	return cfg
}

func envFloat(log *logger.Logger, name string, def float64) float64 {
	raw := envutil.String(name, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn("Invalid float env var; using default", "name", name, "value", raw, "default", def)
		return def
	}
	return f
}
