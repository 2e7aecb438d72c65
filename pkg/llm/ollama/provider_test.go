package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProviderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("expected path /api/embed, got %s", r.URL.Path)
		}

		resp := embedResponse{
			Model:      "nomic-embed-text",
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	provider := NewProviderWithConfig(cfg)

	embeddings, err := provider.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(embeddings))
	}
}

func TestProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected path /api/generate, got %s", r.URL.Path)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.System != "系统提示" {
			t.Errorf("expected system prompt passthrough, got %q", req.System)
		}

		resp := generateResponse{
			Model:           "llama3.1:8b",
			Response:        "生成结果",
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	provider := NewProviderWithConfig(cfg)

	result, err := provider.Generate(context.Background(), "提示", "系统提示")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Content != "生成结果" {
		t.Errorf("expected content '生成结果', got %q", result.Content)
	}
	if result.TokenUsage.TotalTokens != 20 {
		t.Errorf("expected 20 total tokens, got %d", result.TokenUsage.TotalTokens)
	}
}

func TestProviderEmbedEmpty(t *testing.T) {
	provider := NewProviderWithConfig(DefaultConfig())

	embeddings, err := provider.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed with empty texts failed: %v", err)
	}
	if embeddings != nil {
		t.Error("expected nil embeddings for empty input")
	}
}
