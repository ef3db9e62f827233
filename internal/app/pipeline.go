package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"riskintel/pkg/ai"
	"riskintel/pkg/domain"
	"riskintel/pkg/render"
)

// genConcurrency bounds the per-topic fan-out against the text API.
const genConcurrency = 4

// GenerateDocument runs the full pipeline for a PDF report: reserve a catalog
// row, generate one section per risk, render, enforce the quota and persist.
func (a *App) GenerateDocument(ctx context.Context, ownerID string, req GenerateRequest) (domain.Artifact, error) {
	if err := validateRequest(&req, true); err != nil {
		return domain.Artifact{}, err
	}

	artifact, err := a.reserveArtifact(ownerID, domain.KindDocument, req, "pdf",
		fmt.Sprintf("Risk Report %d", req.Year))
	if err != nil {
		return domain.Artifact{}, err
	}

	topics := a.generateTopics(ctx, a.reportGen, reportPrompt, reportSystemPrompt, req)
	data, err := a.renderer.Render(render.TitleBlock{
		Title:       artifact.Title,
		Subject:     strings.Join(req.Countries, ", "),
		GeneratedAt: artifact.GeneratedAt,
	}, topics)
	if err != nil {
		renderErr := &RenderError{Err: err}
		a.failArtifact(artifact.ID, renderErr)
		return domain.Artifact{}, renderErr
	}

	return a.persist(ctx, artifact, data, "application/pdf")
}

// GenerateAudio runs the pipeline for a narrated podcast: per-risk script
// segments, one synthesis call over the joined script, quota check, persist.
// A synthesis failure aborts the whole attempt.
func (a *App) GenerateAudio(ctx context.Context, ownerID string, req GenerateRequest) (domain.Artifact, error) {
	if err := validateRequest(&req, false); err != nil {
		return domain.Artifact{}, err
	}

	artifact, err := a.reserveArtifact(ownerID, domain.KindAudio, req, "mp3",
		fmt.Sprintf("Risk Podcast %d", req.Year))
	if err != nil {
		return domain.Artifact{}, err
	}

	topics := a.generateTopics(ctx, a.podcastGen, podcastPrompt, podcastSystemPrompt, req)
	var script strings.Builder
	for i, topic := range topics {
		if i > 0 {
			script.WriteString("\n\n")
		}
		script.WriteString(topic.Body)
	}

	audio, err := a.synth.Synthesize(ctx, script.String(), a.voiceID)
	if err != nil {
		synthErr := &SynthesisError{Err: err}
		a.failArtifact(artifact.ID, synthErr)
		return domain.Artifact{}, synthErr
	}

	return a.persist(ctx, artifact, audio, "audio/mpeg")
}

// reserveArtifact inserts the processing row before any external call so
// every attempt leaves an auditable trace.
func (a *App) reserveArtifact(ownerID string, kind domain.ArtifactKind, req GenerateRequest, ext, defaultTitle string) (domain.Artifact, error) {
	id := uuid.NewString()
	title := req.Title
	if title == "" {
		title = defaultTitle
	}
	now := time.Now().UTC()
	artifact := domain.Artifact{
		ID:               id,
		OwnerID:          ownerID,
		Kind:             kind,
		SizeBytes:        0,
		OriginalFilename: fmt.Sprintf("risk_%s_%d_%s.%s", kind, req.Year, id[:8], ext),
		Countries:        req.Countries,
		Risks:            req.Risks,
		Year:             req.Year,
		Params:           map[string]string{"ext": ext},
		Status:           domain.StatusProcessing,
		Title:            title,
		Description:      req.Description,
		Tags:             req.Tags,
		GeneratedAt:      now,
		AccessedAt:       now,
	}
	if err := a.store.CreateArtifact(artifact); err != nil {
		return domain.Artifact{}, &StorageError{Err: fmt.Errorf("reserve artifact: %w", err)}
	}
	return artifact, nil
}

// generateTopics fans out one generation call per risk with bounded
// concurrency. A failed call never aborts the run: its topic body becomes a
// visible placeholder and the remaining topics proceed.
func (a *App) generateTopics(ctx context.Context, gen ai.TextGenerator, prompt func(string, []string, int) string, systemPrompt string, req GenerateRequest) []render.Topic {
	topics := make([]render.Topic, len(req.Risks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(genConcurrency)
	for i, risk := range req.Risks {
		i, risk := i, risk
		g.Go(func() error {
			body, err := gen.GenerateText(gctx, systemPrompt, prompt(risk, req.Countries, req.Year))
			if err != nil {
				slog.Warn("topic generation failed", "risk", risk, "error", err)
				body = failedTopicPlaceholder(risk, err)
			}
			topics[i] = render.Topic{Name: risk, Body: body}
			return nil
		})
	}
	_ = g.Wait()
	return topics
}

// persist is the size_checked -> persisted step: measure, consult the quota
// ledger, write the bytes and finalize the row. On quota rejection the
// reserved row is deleted outright so the attempt never consumed quota; on a
// storage failure the row is left failed with a message.
func (a *App) persist(ctx context.Context, artifact domain.Artifact, data []byte, contentType string) (domain.Artifact, error) {
	size := int64(len(data))

	ok, info, err := a.canAccept(artifact.OwnerID, size)
	if err != nil {
		storeErr := &StorageError{Err: err}
		a.failArtifact(artifact.ID, storeErr)
		return domain.Artifact{}, storeErr
	}
	if !ok {
		if err := a.store.DeleteArtifact(artifact.ID); err != nil {
			slog.Error("failed to roll back quota-rejected artifact", "artifact_id", artifact.ID, "error", err)
		}
		return domain.Artifact{}, &QuotaExceededError{
			QuotaLimitBytes:    info.QuotaLimitBytes,
			UsedBytes:          info.UsedBytes,
			AttemptedSizeBytes: size,
		}
	}

	key := fmt.Sprintf("users/%s/%s.%s", artifact.OwnerID, artifact.ID, artifact.Params["ext"])
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), size, contentType); err != nil {
		storeErr := &StorageError{Err: fmt.Errorf("write object: %w", err)}
		a.failArtifact(artifact.ID, storeErr)
		return domain.Artifact{}, storeErr
	}
	if err := a.store.FinalizeArtifact(artifact.ID, size, key); err != nil {
		_ = a.objects.Delete(ctx, key)
		storeErr := &StorageError{Err: fmt.Errorf("finalize artifact: %w", err)}
		a.failArtifact(artifact.ID, storeErr)
		return domain.Artifact{}, storeErr
	}

	final, ok2, err := a.store.GetArtifact(artifact.ID)
	if err != nil || !ok2 {
		return domain.Artifact{}, &StorageError{Err: fmt.Errorf("reload artifact: %w", err)}
	}
	return final, nil
}

func (a *App) failArtifact(id string, cause error) {
	if err := a.store.MarkArtifactFailed(id, cause.Error()); err != nil {
		slog.Error("failed to mark artifact failed", "artifact_id", id, "error", err)
	}
}
