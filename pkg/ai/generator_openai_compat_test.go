package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateText(t *testing.T) {
	var gotAuth string
	var gotBody oaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  generated text  "}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL, "key-1", "model-x", 700, time.Second)
	text, err := g.GenerateText(context.Background(), "be brief", "write a report")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "generated text" {
		t.Fatalf("text = %q", text)
	}
	if gotAuth != "Bearer key-1" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.Model != "model-x" || gotBody.MaxTokens != 700 {
		t.Fatalf("request body = %+v", gotBody)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
}

func TestGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit reached", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL, "", "model-x", 0, time.Second)
	if _, err := g.GenerateText(context.Background(), "", "prompt"); err == nil {
		t.Fatalf("expected error for non-success status")
	}
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL, "", "model-x", 0, time.Second)
	if _, err := g.GenerateText(context.Background(), "", "prompt"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
