package streamclient

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yungbote/regdraft-backend/internal/modules/generation"
)

var frameDelim = []byte("\n\n")

// Decoder splits a byte stream into events. Bytes after the last frame
// delimiter are kept until a later Feed completes them, so any split of the
// same stream yields the same events.
type Decoder struct {
	buf []byte
}

func (d *Decoder) Feed(p []byte) []generation.Event {
	for _, b := range p {
		if b != '\r' {
			d.buf = append(d.buf, b)
		}
	}
	var out []generation.Event
	for {
		i := bytes.Index(d.buf, frameDelim)
		if i < 0 {
			break
		}
		frame := string(d.buf[:i])
		d.buf = d.buf[i+len(frameDelim):]
		if ev, ok := parseFrame(frame); ok {
			out = append(out, ev)
		}
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return out
}

// Pending reports how many bytes of an incomplete frame are buffered.
func (d *Decoder) Pending() int { return len(d.buf) }

// parseFrame returns false for comment-only, empty and malformed frames.
func parseFrame(frame string) (generation.Event, bool) {
	var data []string
	for _, line := range strings.Split(frame, "\n") {
		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if len(data) == 0 {
		return generation.Event{}, false
	}
	var ev generation.Event
	if err := json.Unmarshal([]byte(strings.Join(data, "\n")), &ev); err != nil || ev.Type == "" {
		return generation.Event{}, false
	}
	return ev, true
}
