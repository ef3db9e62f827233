package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"

	"riskintel/pkg/domain"
	"riskintel/pkg/storage"
	"riskintel/pkg/store"
)

type fakeGenerator struct {
	generate func(risk string) (string, error)
	calls    int
}

func (f *fakeGenerator) GenerateText(_ context.Context, _, userPrompt string) (string, error) {
	f.calls++
	return f.generate(userPrompt)
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _, _ string) ([]byte, error) {
	return f.audio, f.err
}

type testEnv struct {
	app   *App
	store *store.MemoryStore
	gen   *fakeGenerator
	synth *fakeSynthesizer
}

func newTestEnv(t *testing.T, quotaBytes int64) *testEnv {
	t.Helper()
	mem := store.NewMemoryStore()
	objects, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	gen := &fakeGenerator{generate: func(string) (string, error) {
		return "Analysis body text for the requested risk.", nil
	}}
	synth := &fakeSynthesizer{audio: []byte("mp3-bytes")}
	a, err := New(Config{
		Store:             mem,
		Objects:           objects,
		ReportGenerator:   gen,
		PodcastGenerator:  gen,
		Synthesizer:       synth,
		VoiceID:           "voice-1",
		DefaultQuotaBytes: quotaBytes,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testEnv{app: a, store: mem, gen: gen, synth: synth}
}

// seedUsed records an already-completed artifact so the quota ledger sees the
// given usage.
func seedUsed(t *testing.T, mem *store.MemoryStore, ownerID string, size int64) {
	t.Helper()
	err := mem.CreateArtifact(domain.Artifact{
		ID:          fmt.Sprintf("seed-%d", size),
		OwnerID:     ownerID,
		Kind:        domain.KindDocument,
		SizeBytes:   size,
		Status:      domain.StatusCompleted,
		GeneratedAt: time.Now().UTC(),
		AccessedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
}

func countArtifacts(t *testing.T, mem *store.MemoryStore, ownerID string) int {
	t.Helper()
	list, err := mem.ListArtifactsByOwner(ownerID)
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	return len(list)
}

func TestGenerateDocumentHappyPath(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	got, err := env.app.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France", "Germany"},
		Risks:     []string{"Cyber", "climate"},
		Year:      2026,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.SizeBytes <= 0 {
		t.Fatalf("size = %d, want > 0", got.SizeBytes)
	}
	if got.Kind != domain.KindDocument {
		t.Fatalf("kind = %s", got.Kind)
	}
	if !strings.HasSuffix(got.OriginalFilename, ".pdf") {
		t.Fatalf("filename = %q, want .pdf suffix", got.OriginalFilename)
	}
	if len(got.Risks) != 2 || got.Risks[0] != "cyber" {
		t.Fatalf("risks not normalized: %v", got.Risks)
	}

	// used bytes grew by exactly the persisted size
	used, err := env.store.UsedBytes("u1")
	if err != nil {
		t.Fatalf("used bytes: %v", err)
	}
	if used != got.SizeBytes {
		t.Fatalf("used = %d, want %d", used, got.SizeBytes)
	}

	// bytes are durable and readable
	rc, artifact, err := env.app.OpenArtifact(context.Background(), "u1", got.ID)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if int64(len(data)) != artifact.SizeBytes {
		t.Fatalf("stored %d bytes, catalog says %d", len(data), artifact.SizeBytes)
	}
}

func TestGenerateDocumentRejectsEmptyRisks(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	_, err := env.app.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France"},
		Year:      2026,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if n := countArtifacts(t, env.store, "u1"); n != 0 {
		t.Fatalf("artifact count = %d, want 0 after validation failure", n)
	}
}

func TestGenerateDocumentRejectsUnknownRiskAndFormat(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	base := GenerateRequest{Countries: []string{"France"}, Risks: []string{"cyber"}, Year: 2026}

	bad := base
	bad.Risks = []string{"volcano"}
	if _, err := env.app.GenerateDocument(context.Background(), "u1", bad); err == nil {
		t.Fatalf("unknown risk accepted")
	}

	bad = base
	bad.Format = "docx"
	if _, err := env.app.GenerateDocument(context.Background(), "u1", bad); err == nil {
		t.Fatalf("unsupported format accepted")
	}

	bad = base
	bad.Year = 1500
	if _, err := env.app.GenerateDocument(context.Background(), "u1", bad); err == nil {
		t.Fatalf("out-of-range year accepted")
	}
}

func TestGenerateDocumentFailedTopicGetsPlaceholder(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	env.gen.generate = func(userPrompt string) (string, error) {
		if strings.Contains(userPrompt, "cyber") {
			return "", errors.New("upstream 503")
		}
		return "Normal section content.", nil
	}

	got, err := env.app.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France"},
		Risks:     []string{"climate", "cyber", "water"},
		Year:      2026,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed despite one failed topic", got.Status)
	}

	rc, _, err := env.app.OpenArtifact(context.Background(), "u1", got.ID)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	if reader.NumPage() != 4 {
		t.Fatalf("page count = %d, want cover + 3 topic pages", reader.NumPage())
	}
	var all strings.Builder
	for p := 2; p <= reader.NumPage(); p++ {
		text, err := reader.Page(p).GetPlainText(nil)
		if err != nil {
			t.Fatalf("page %d text: %v", p, err)
		}
		all.WriteString(text)
	}
	if !strings.Contains(all.String(), "Content generation failed for risk cyber") {
		t.Fatalf("placeholder missing from rendered document")
	}
	if !strings.Contains(all.String(), "Normal section content.") {
		t.Fatalf("healthy topics missing from rendered document")
	}
}

func TestGenerateAudioQuotaBoundaryAccepted(t *testing.T) {
	env := newTestEnv(t, 100)
	seedUsed(t, env.store, "u1", 95)
	env.synth.audio = bytes.Repeat([]byte{0xAB}, 5)

	got, err := env.app.GenerateAudio(context.Background(), "u1", GenerateRequest{
		Countries: []string{"Kenya"},
		Risks:     []string{"water"},
		Year:      2027,
	})
	if err != nil {
		t.Fatalf("generate audio: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.SizeBytes != 5 {
		t.Fatalf("artifact = %+v", got)
	}
	used, _ := env.store.UsedBytes("u1")
	if used != 100 {
		t.Fatalf("used = %d, want 100 (exact fit accepted)", used)
	}
}

func TestGenerateAudioQuotaExceededDeletesReservation(t *testing.T) {
	env := newTestEnv(t, 100)
	seedUsed(t, env.store, "u1", 95)
	env.synth.audio = bytes.Repeat([]byte{0xAB}, 6)

	before := countArtifacts(t, env.store, "u1")
	_, err := env.app.GenerateAudio(context.Background(), "u1", GenerateRequest{
		Countries: []string{"Kenya"},
		Risks:     []string{"water"},
		Year:      2027,
	})
	var qErr *QuotaExceededError
	if !errors.As(err, &qErr) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}
	if qErr.QuotaLimitBytes != 100 || qErr.UsedBytes != 95 || qErr.AttemptedSizeBytes != 6 {
		t.Fatalf("quota error = %+v", qErr)
	}
	if after := countArtifacts(t, env.store, "u1"); after != before {
		t.Fatalf("artifact count changed %d -> %d, reservation should be deleted", before, after)
	}
	used, _ := env.store.UsedBytes("u1")
	if used != 95 {
		t.Fatalf("used = %d, want unchanged 95", used)
	}
}

func TestGenerateAudioSynthesisFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	env.synth.err = errors.New("tts unavailable")

	_, err := env.app.GenerateAudio(context.Background(), "u1", GenerateRequest{
		Countries: []string{"Kenya"},
		Risks:     []string{"water"},
		Year:      2027,
	})
	var sErr *SynthesisError
	if !errors.As(err, &sErr) {
		t.Fatalf("err = %v, want SynthesisError", err)
	}
	list, _ := env.store.ListArtifactsByOwner("u1")
	if len(list) != 1 {
		t.Fatalf("artifact count = %d, want 1 failed row", len(list))
	}
	a := list[0]
	if a.Status != domain.StatusFailed || a.ErrorMessage == "" {
		t.Fatalf("artifact = %+v, want failed with message", a)
	}
	if used, _ := env.store.UsedBytes("u1"); used != 0 {
		t.Fatalf("used = %d, want 0 (no quota consumed)", used)
	}
}

func TestDeleteArtifactReleasesBytesBeforeRow(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	got, err := env.app.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France"},
		Risks:     []string{"cyber"},
		Year:      2026,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	if err := env.app.DeleteArtifact(context.Background(), "u1", got.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.app.GetArtifact("u1", got.ID); !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("err = %v, want not found after delete", err)
	}
	if used, _ := env.store.UsedBytes("u1"); used != 0 {
		t.Fatalf("used = %d, want 0 after delete", used)
	}
}

func TestGetArtifactHidesOtherOwners(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	got, err := env.app.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France"},
		Risks:     []string{"cyber"},
		Year:      2026,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	if _, err := env.app.GetArtifact("u2", got.ID); !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("cross-owner read returned %v, want not found", err)
	}
}

func TestDownloadInlineForLocalBackend(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	got, err := env.app.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France"},
		Risks:     []string{"cyber"},
		Year:      2026,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	ref, err := env.app.Download(context.Background(), "u1", got.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !ref.Inline {
		t.Fatalf("file backend should serve inline, got %+v", ref)
	}
	if ref.URL != "/media/"+got.ID+"/file" {
		t.Fatalf("url = %q", ref.URL)
	}
	if ref.Filename != got.OriginalFilename {
		t.Fatalf("filename = %q, want %q", ref.Filename, got.OriginalFilename)
	}

	// download touches the access timestamp
	after, err := env.app.GetArtifact("u1", got.ID)
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	if after.AccessedAt.Before(got.AccessedAt) {
		t.Fatalf("accessedAt not advanced")
	}
}

type signingStore struct {
	storage.ObjectStore
}

func (s *signingStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func TestDownloadPresignedForSigningBackend(t *testing.T) {
	mem := store.NewMemoryStore()
	fs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	gen := &fakeGenerator{generate: func(string) (string, error) { return "body", nil }}
	a, err := New(Config{
		Store:            mem,
		Objects:          &signingStore{ObjectStore: fs},
		ReportGenerator:  gen,
		PodcastGenerator: gen,
		Synthesizer:      &fakeSynthesizer{audio: []byte("x")},
		VoiceID:          "voice-1",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	got, err := a.GenerateDocument(context.Background(), "u1", GenerateRequest{
		Countries: []string{"France"},
		Risks:     []string{"cyber"},
		Year:      2026,
	})
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	ref, err := a.Download(context.Background(), "u1", got.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if ref.Inline {
		t.Fatalf("signing backend should not serve inline")
	}
	if !strings.HasPrefix(ref.URL, "https://signed.example/users/u1/") {
		t.Fatalf("url = %q", ref.URL)
	}
}

func TestStorageInfoDerivedFromCatalog(t *testing.T) {
	env := newTestEnv(t, 1000)
	seedUsed(t, env.store, "u1", 400)

	info, err := env.app.StorageInfo("u1")
	if err != nil {
		t.Fatalf("storage info: %v", err)
	}
	if info.QuotaLimitBytes != 1000 || info.UsedBytes != 400 || info.RemainingBytes != 600 {
		t.Fatalf("info = %+v", info)
	}
}
