package streamclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxErrorBody = 4096

// StatusError carries the raw status and body of a rejected stream request.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("stream request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("stream request failed: %d %s", e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

type HTTPTransport struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (t *HTTPTransport) Open(ctx context.Context, submissionID string) (io.ReadCloser, error) {
	u := strings.TrimRight(t.BaseURL, "/") + "/api/v1/submissions/" + url.PathEscape(submissionID) + "/generate-stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return resp.Body, nil
}
