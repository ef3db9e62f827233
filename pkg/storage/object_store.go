package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore provides access to durable artifact storage. Keys are opaque
// slash-separated paths like users/{owner}/{uuid}.pdf.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// URLSigner is an optional capability of stores that can mint time-limited
// download URLs. Backends without it are served inline by the API instead.
type URLSigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
