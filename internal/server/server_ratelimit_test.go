package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"riskintel/internal/ratelimit"
)

func TestGenerationRateLimited(t *testing.T) {
	s, _ := newTestServer(t, 10<<20)
	mr := miniredis.RunT(t)
	limiter, err := ratelimit.New(mr.Addr(), "", "riskintel:test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	s.genLimiter = limiter

	body := map[string]any{
		"countries": []string{"France"},
		"risks":     []string{"cyber"},
		"year":      2026,
	}
	w := doJSON(t, s, http.MethodPost, "/media/generate-document", "u1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("first call status = %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, s, http.MethodPost, "/media/generate-document", "u1", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second call status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}

	// other users keep their own budget
	w = doJSON(t, s, http.MethodPost, "/media/generate-document", "u2", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("other user status = %d", w.Code)
	}
}
