package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
	"github.com/yungbote/regdraft-backend/internal/platform/openai"
	"github.com/yungbote/regdraft-backend/internal/platform/vertex"
)

// Clients holds external connections. Any of them may be nil when not
// configured.
type Clients struct {
	Redis  goredis.UniversalClient
	OpenAI openai.Client
	Vertex *vertex.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DialTimeout: 5 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		c.Redis = rdb
	}

	// Openai
	oaCfg := openai.ConfigFromEnv()
	if oaCfg.APIKey != "" {
		client, err := openai.NewClient(log, oaCfg)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		c.OpenAI = client
	} else if cfg.Provider == ProviderOpenAI {
		c.Close()
		return Clients{}, fmt.Errorf("GENERATION_PROVIDER=openai requires OPENAI_API_KEY")
	}

	// Vertex
	if cfg.Provider == ProviderVertex {
		client, err := vertex.NewClient(ctx, log, vertex.ConfigFromEnv())
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init vertex client: %w", err)
		}
		c.Vertex = client
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Vertex != nil {
		_ = c.Vertex.Close()
	}
}
