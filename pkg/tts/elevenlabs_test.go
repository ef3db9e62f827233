package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody synthesizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	s := NewElevenLabsSynthesizer(srv.URL, "el-key", time.Second)
	audio, err := s.Synthesize(context.Background(), "hello world", "voice-7")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("audio = %q", audio)
	}
	if gotPath != "/v1/text-to-speech/voice-7" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "el-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if gotBody.Text != "hello world" {
		t.Fatalf("body text = %q", gotBody.Text)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid voice"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewElevenLabsSynthesizer(srv.URL, "el-key", time.Second)
	if _, err := s.Synthesize(context.Background(), "hello", "voice-7"); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestSynthesizeRequiresVoice(t *testing.T) {
	s := NewElevenLabsSynthesizer("http://localhost", "k", time.Second)
	if _, err := s.Synthesize(context.Background(), "hello", " "); err == nil {
		t.Fatalf("expected error for empty voice id")
	}
}
