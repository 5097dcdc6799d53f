package vertex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"

	"github.com/yungbote/regdraft-backend/internal/platform/envutil"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type Config struct {
	ProjectID       string
	Region          string
	Model           string
	Temperature     *float32
	MaxOutputTokens int32
}

func ConfigFromEnv() Config {
	cfg := Config{
		ProjectID:       envutil.String("VERTEX_PROJECT_ID", ""),
		Region:          envutil.String("VERTEX_REGION", "us-central1"),
		Model:           envutil.String("VERTEX_MODEL", "gemini-1.5-pro"),
		MaxOutputTokens: int32(envutil.Int("VERTEX_MAX_OUTPUT_TOKENS", 8192)),
	}
	if t := envutil.String("VERTEX_TEMPERATURE", ""); t != "" {
		if v, err := strconv.ParseFloat(t, 32); err == nil {
			f := float32(v)
			cfg.Temperature = &f
		}
	}
	return cfg
}

// Client streams Gemini output through Vertex AI.
type Client struct {
	base *genai.Client
	cfg  Config
	log  *logger.Logger
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex: project id and region are required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{base: base, cfg: cfg, log: log.With("client", "VertexClient")}, nil
}

func (c *Client) model(system string) *genai.GenerativeModel {
	m := c.base.GenerativeModel(c.cfg.Model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	if c.cfg.Temperature != nil {
		m.Temperature = genai.Ptr(*c.cfg.Temperature)
	}
	if c.cfg.MaxOutputTokens > 0 {
		m.MaxOutputTokens = genai.Ptr(c.cfg.MaxOutputTokens)
	}
	return m
}

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	resp, err := c.model(system).GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	return responseText(resp), nil
}

// StreamText calls onDelta for each non-empty increment and returns the
// full text once the iterator is exhausted.
func (c *Client) StreamText(ctx context.Context, system string, user string, onDelta func(delta string)) (string, error) {
	it := c.model(system).GenerateContentStream(ctx, genai.Text(user))
	var full strings.Builder
	for {
		resp, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("vertex stream: %w", err)
		}
		delta := responseText(resp)
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	return full.String(), nil
}

func (c *Client) Close() error {
	if c == nil || c.base == nil {
		return nil
	}
	return c.base.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
