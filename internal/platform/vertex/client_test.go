package vertex

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Sec"), genai.Blob{MIMEType: "image/png"}, genai.Text("tion 1")}}},
			nil,
			{Content: nil},
		},
	}
	if got := responseText(resp); got != "Section 1" {
		t.Fatalf("responseText=%q", got)
	}
	if responseText(nil) != "" {
		t.Fatalf("nil response should be empty")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VERTEX_PROJECT_ID", "proj")
	t.Setenv("VERTEX_TEMPERATURE", "0.2")
	cfg := ConfigFromEnv()
	if cfg.ProjectID != "proj" || cfg.Region != "us-central1" || cfg.Model != "gemini-1.5-pro" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.2) {
		t.Fatalf("temperature=%v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 8192 {
		t.Fatalf("max tokens=%d", cfg.MaxOutputTokens)
	}
}
