package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"riskintel/pkg/ai"
	"riskintel/pkg/domain"
	"riskintel/pkg/render"
	"riskintel/pkg/storage"
	"riskintel/pkg/store"
	"riskintel/pkg/tts"
)

// ReportQueue hands a report request id to a background worker. A nil queue
// means deferred reports are processed inline.
type ReportQueue interface {
	Enqueue(ctx context.Context, reportID string) error
}

// Config wires the application's collaborators.
type Config struct {
	Store             store.Store
	Objects           storage.ObjectStore
	ReportGenerator   ai.TextGenerator
	PodcastGenerator  ai.TextGenerator
	Synthesizer       tts.Synthesizer
	VoiceID           string
	DefaultQuotaBytes int64
	PresignExpiry     time.Duration
	Queue             ReportQueue
}

// App orchestrates the generation pipeline over the catalog, the quota
// ledger, the object store and the external adapters.
type App struct {
	store             store.Store
	objects           storage.ObjectStore
	reportGen         ai.TextGenerator
	podcastGen        ai.TextGenerator
	synth             tts.Synthesizer
	renderer          *render.PDFRenderer
	queue             ReportQueue
	voiceID           string
	defaultQuotaBytes int64
	presignExpiry     time.Duration
}

// New constructs the application service.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Objects == nil {
		return nil, errors.New("object store is required")
	}
	if cfg.ReportGenerator == nil || cfg.PodcastGenerator == nil {
		return nil, errors.New("text generators are required")
	}
	if cfg.Synthesizer == nil {
		return nil, errors.New("speech synthesizer is required")
	}
	if cfg.VoiceID == "" {
		return nil, errors.New("voice id is required")
	}
	quota := cfg.DefaultQuotaBytes
	if quota <= 0 {
		quota = 100 << 20
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &App{
		store:             cfg.Store,
		objects:           cfg.Objects,
		reportGen:         cfg.ReportGenerator,
		podcastGen:        cfg.PodcastGenerator,
		synth:             cfg.Synthesizer,
		renderer:          render.NewPDFRenderer(),
		queue:             cfg.Queue,
		voiceID:           cfg.VoiceID,
		defaultQuotaBytes: quota,
		presignExpiry:     expiry,
	}, nil
}

// ListArtifacts returns the caller's artifacts, newest first.
func (a *App) ListArtifacts(ownerID string) ([]domain.Artifact, error) {
	return a.store.ListArtifactsByOwner(ownerID)
}

// GetArtifact returns one of the caller's artifacts. Artifacts of other
// owners are reported as not found so ids stay non-enumerable.
func (a *App) GetArtifact(ownerID, id string) (domain.Artifact, error) {
	artifact, ok, err := a.store.GetArtifact(id)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("load artifact: %w", err)
	}
	if !ok || artifact.OwnerID != ownerID {
		return domain.Artifact{}, ErrArtifactNotFound
	}
	return artifact, nil
}

// DeleteArtifact releases the stored bytes and then removes the catalog row.
func (a *App) DeleteArtifact(ctx context.Context, ownerID, id string) error {
	artifact, err := a.GetArtifact(ownerID, id)
	if err != nil {
		return err
	}
	if artifact.StorageKey != "" {
		if err := a.objects.Delete(ctx, artifact.StorageKey); err != nil {
			return &StorageError{Err: fmt.Errorf("delete object: %w", err)}
		}
	}
	if err := a.store.DeleteArtifact(id); err != nil {
		return &StorageError{Err: fmt.Errorf("delete artifact row: %w", err)}
	}
	return nil
}

// DownloadRef is the polymorphic download reference: a presigned URL when the
// backend can sign, otherwise an API path the server serves inline.
type DownloadRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Inline   bool   `json:"-"`
}

// Download resolves the artifact's download reference and touches its
// last-access timestamp.
func (a *App) Download(ctx context.Context, ownerID, id string) (DownloadRef, error) {
	artifact, err := a.GetArtifact(ownerID, id)
	if err != nil {
		return DownloadRef{}, err
	}
	if artifact.Status != domain.StatusCompleted || artifact.StorageKey == "" {
		return DownloadRef{}, ErrArtifactNotReady
	}
	_ = a.store.TouchArtifact(id, time.Now().UTC())

	if signer, ok := a.objects.(storage.URLSigner); ok {
		url, err := signer.PresignGet(ctx, artifact.StorageKey, a.presignExpiry)
		if err != nil {
			return DownloadRef{}, &StorageError{Err: fmt.Errorf("presign: %w", err)}
		}
		return DownloadRef{URL: url, Filename: artifact.OriginalFilename}, nil
	}
	return DownloadRef{
		URL:      "/media/" + artifact.ID + "/file",
		Filename: artifact.OriginalFilename,
		Inline:   true,
	}, nil
}

// OpenArtifact streams the stored bytes for inline serving.
func (a *App) OpenArtifact(ctx context.Context, ownerID, id string) (io.ReadCloser, domain.Artifact, error) {
	artifact, err := a.GetArtifact(ownerID, id)
	if err != nil {
		return nil, domain.Artifact{}, err
	}
	if artifact.Status != domain.StatusCompleted || artifact.StorageKey == "" {
		return nil, domain.Artifact{}, ErrArtifactNotReady
	}
	rc, err := a.objects.Get(ctx, artifact.StorageKey)
	if err != nil {
		return nil, domain.Artifact{}, &StorageError{Err: fmt.Errorf("open object: %w", err)}
	}
	_ = a.store.TouchArtifact(id, time.Now().UTC())
	return rc, artifact, nil
}
