package usertoken

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifySubject(t *testing.T) {
	v, err := New("secret-1")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := signToken(t, "secret-1", "user-42", time.Now().Add(time.Hour))
	sub, err := v.VerifySubject(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "user-42" {
		t.Fatalf("subject = %q, want user-42", sub)
	}
}

func TestVerifySubjectRejectsWrongSecret(t *testing.T) {
	v, _ := New("secret-1")
	token := signToken(t, "secret-2", "user-42", time.Now().Add(time.Hour))
	if _, err := v.VerifySubject(token); err == nil {
		t.Fatalf("expected error for token signed with other secret")
	}
}

func TestVerifySubjectRejectsExpired(t *testing.T) {
	v, _ := New("secret-1")
	token := signToken(t, "secret-1", "user-42", time.Now().Add(-time.Hour))
	if _, err := v.VerifySubject(token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := BearerToken(r); ok {
		t.Fatalf("expected no token without header")
	}
	r.Header.Set("Authorization", "Bearer abc")
	token, ok := BearerToken(r)
	if !ok || token != "abc" {
		t.Fatalf("token = %q ok=%v, want abc true", token, ok)
	}
	r.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(r); ok {
		t.Fatalf("expected rejection of non-bearer scheme")
	}
}
