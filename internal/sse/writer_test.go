package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type frame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func TestPumpWritesFramesInOrder(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	ch := make(chan frame, 3)
	ch <- frame{Type: "started"}
	ch <- frame{Type: "chunk", Text: "Sec"}
	ch <- frame{Type: "chunk", Text: "tion 1"}
	close(ch)

	if err := Pump(context.Background(), w, ch, time.Minute, logger.Nop()); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	want := "data: {\"type\":\"started\"}\n\n" +
		"data: {\"type\":\"chunk\",\"text\":\"Sec\"}\n\n" +
		"data: {\"type\":\"chunk\",\"text\":\"tion 1\"}\n\n"
	if got := rec.Body.String(); got != want {
		t.Fatalf("body=%q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestPumpSendsHeartbeatWhenIdle(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)
	ch := make(chan frame)
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := Pump(ctx, w, ch, 20*time.Millisecond, logger.Nop())
	if err != context.DeadlineExceeded {
		t.Fatalf("Pump err=%v", err)
	}
	if !strings.Contains(rec.Body.String(), ": ping\n\n") {
		t.Fatalf("no heartbeat in %q", rec.Body.String())
	}
}

type noFlush struct{ http.ResponseWriter }

func TestNewWriterRequiresFlusher(t *testing.T) {
	if _, err := NewWriter(noFlush{httptest.NewRecorder()}); err != ErrStreamingUnsupported {
		t.Fatalf("err=%v", err)
	}
}
