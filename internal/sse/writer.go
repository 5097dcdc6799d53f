package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

const DefaultHeartbeat = 15 * time.Second

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Writer frames JSON payloads as server-sent events: one "data: <json>" line
// followed by a blank line. Heartbeats are comment frames.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Writer{w: w, flusher: flusher}, nil
}

func (s *Writer) Send(payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	return s.write("data: " + string(raw) + "\n\n")
}

func (s *Writer) Ping() error {
	return s.write(": ping\n\n")
}

func (s *Writer) write(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Pump forwards every value from events until the channel closes, sending a
// heartbeat whenever the stream has been idle for heartbeat. It returns early
// when ctx is done or a write fails.
func Pump[T any](ctx context.Context, s *Writer, events <-chan T, heartbeat time.Duration, log *logger.Logger) error {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("SSE client context done", "err", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := s.Ping(); err != nil {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(ev); err != nil {
				log.Warn("Failed to write SSE frame", "error", err)
				return err
			}
			ticker.Reset(heartbeat)
		}
	}
}
