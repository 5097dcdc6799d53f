package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc, retries int) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "m", EmbedModel: "e", MaxRetries: retries})
	require.NoError(t, err)
	return c
}

func TestStreamTextForwardsDeltasInOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body responsesRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.True(t, body.Stream)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: response.output_text.delta\ndata: {\"type\":\"response.output_text.delta\",\"delta\":\"Sec\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"tion 1\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"response.created\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"...\"}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}, 0)

	var got []string
	full, err := c.StreamText(context.Background(), "sys", "user", func(d string) { got = append(got, d) })
	require.NoError(t, err)
	assert.Equal(t, []string{"Sec", "tion 1", "..."}, got)
	assert.Equal(t, "Section 1...", full)
}

func TestStreamTextSurfacesStreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"response.output_text.delta\",\"delta\":\"a\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":{\"message\":\"overloaded\"}}\n\n")
	}, 0)
	_, err := c.StreamText(context.Background(), "sys", "user", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestStreamTextHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}, 0)
	_, err := c.StreamText(context.Background(), "sys", "user", nil)
	var he *openAIHTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 401, he.HTTPStatusCode())
}

func TestGenerateTextRetriesTransientFailure(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Compliance Score: 88"}]}]}`)
	}, 1)

	text, err := c.GenerateText(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Compliance Score: 88", text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/embeddings"))
		fmt.Fprint(w, `{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`)
	}, 0)
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	assert.Error(t, err)
}
