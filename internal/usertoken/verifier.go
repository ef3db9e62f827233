package usertoken

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates HS256 bearer tokens issued by the identity provider and
// extracts the owning user id. Authentication itself lives outside this
// service; only token verification happens here.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// New builds a Verifier for the shared HMAC secret.
func New(secret string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("usertoken: secret is required")
	}
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}, nil
}

// VerifySubject parses and validates the token and returns its subject.
func (v *Verifier) VerifySubject(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
