package generation

import (
	"context"
	"fmt"
)

// Provider streams generated text. onDelta is called in order for every
// increment; Generate returns once the stream ends or fails.
type Provider interface {
	Generate(ctx context.Context, prompt Prompt, onDelta func(delta string)) error
}

// TextStreamer is satisfied by both the OpenAI and Vertex clients.
type TextStreamer interface {
	StreamText(ctx context.Context, system string, user string, onDelta func(delta string)) (string, error)
}

type streamingProvider struct {
	name     string
	streamer TextStreamer
}

func NewStreamingProvider(name string, streamer TextStreamer) (Provider, error) {
	if streamer == nil {
		return nil, fmt.Errorf("%s provider: streamer required", name)
	}
	return &streamingProvider{name: name, streamer: streamer}, nil
}

func (p *streamingProvider) Generate(ctx context.Context, prompt Prompt, onDelta func(delta string)) error {
	if _, err := p.streamer.StreamText(ctx, prompt.System, prompt.User, onDelta); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}
