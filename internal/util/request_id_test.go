package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestIDGeneratesID(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatalf("request id not set in context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("header id = %q, context id = %q", got, seen)
	}
}

func TestWithRequestIDPropagatesIncoming(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", seen)
	}
}

func TestClientIPDirectPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := ClientIP(req, false); got != "10.1.2.3" {
		t.Fatalf("ClientIP = %q, want 10.1.2.3", got)
	}
	if got := ClientIP(req, true); got != "198.51.100.7" {
		t.Fatalf("ClientIP trusted = %q, want 198.51.100.7", got)
	}
}
