package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/regdraft-backend/internal/platform/envutil"
	"github.com/yungbote/regdraft-backend/internal/platform/httpx"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
	// StreamText forwards each output_text delta to onDelta in arrival order
	// and returns the concatenated text.
	StreamText(ctx context.Context, system string, user string, onDelta func(delta string)) (string, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbedModel     string
	MaxOutputToken int
	Temperature    *float64
	Timeout        time.Duration
	StreamTimeout  time.Duration
	MaxRetries     int
}

// ConfigFromEnv reads OPENAI_* settings.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:         envutil.String("OPENAI_API_KEY", ""),
		BaseURL:        envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:          envutil.String("OPENAI_MODEL", "gpt-4.1"),
		EmbedModel:     envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		MaxOutputToken: envutil.Int("OPENAI_MAX_OUTPUT_TOKENS", 8192),
		Timeout:        envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		StreamTimeout:  envutil.Seconds("OPENAI_STREAM_TIMEOUT_SECONDS", 600*time.Second),
		MaxRetries:     envutil.Int("OPENAI_MAX_RETRIES", 4),
	}
	if !envutil.Bool("OPENAI_DISABLE_TEMPERATURE", false) {
		t := 0.2
		cfg.Temperature = &t
	}
	return cfg
}

type client struct {
	log          *logger.Logger
	cfg          Config
	httpClient   *http.Client
	streamClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = 600 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:          log.With("service", "OpenAIClient"),
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{Timeout: cfg.StreamTimeout},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do sends a JSON request, retrying transient failures with jittered backoff.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries || ctx.Err() != nil {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i, s := range inputs {
		if s = strings.TrimSpace(s); s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", embeddingsRequest{Model: c.cfg.EmbedModel, Input: clean}, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for pos, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = pos
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("openai embeddings missing index %d: requested=%d returned=%d", i, len(clean), len(resp.Data))
		}
	}
	return out, nil
}

// -------------------- Responses API --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	Temperature     *float64       `json:"temperature,omitempty"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	Stream          bool           `json:"stream,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func (c *client) responsesRequest(system, user string, stream bool) responsesRequest {
	return responsesRequest{
		Model: c.cfg.Model,
		Input: []inputMessage{
			{Role: "system", Content: strings.TrimSpace(system)},
			{Role: "user", Content: user},
		},
		Temperature:     c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxOutputToken,
		Stream:          stream,
	}
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String()
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", c.responsesRequest(system, user, false), &resp); err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

// StreamText is not retried: once deltas have been forwarded a retry would
// duplicate them.
func (c *client) StreamText(ctx context.Context, system string, user string, onDelta func(delta string)) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", c.responsesRequest(system, user, true))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var full strings.Builder
	err = streamSSE(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var obj struct {
			Type    string          `json:"type"`
			Delta   string          `json:"delta"`
			Refusal string          `json:"refusal"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil
		}
		evt := strings.TrimSpace(event)
		if t := strings.TrimSpace(obj.Type); t != "" {
			evt = t
		}
		if strings.TrimSpace(obj.Refusal) != "" {
			return fmt.Errorf("model refused: %s", obj.Refusal)
		}
		if len(obj.Error) > 0 && string(obj.Error) != "null" {
			return fmt.Errorf("openai stream error: %s", string(obj.Error))
		}
		if evt == "response.failed" || evt == "error" {
			return fmt.Errorf("openai stream failed: %s", data)
		}
		d := strings.TrimRight(obj.Delta, "\u0000")
		if d == "" || !strings.Contains(evt, "output_text.delta") {
			return nil
		}
		full.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
		return nil
	})
	if err != nil {
		return full.String(), err
	}
	return full.String(), nil
}
