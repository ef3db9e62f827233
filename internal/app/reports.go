package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"riskintel/internal/util"
	"riskintel/pkg/domain"
)

// SubmitReport records a deferred document generation and hands it to the
// queue. Without a queue the report is processed inline before returning, so
// the caller still gets a terminal status on the follow-up GET.
func (a *App) SubmitReport(ctx context.Context, ownerID string, req GenerateRequest) (domain.ReportRequest, error) {
	if err := validateRequest(&req, true); err != nil {
		return domain.ReportRequest{}, err
	}
	report := domain.ReportRequest{
		ID:        util.NewID(),
		OwnerID:   ownerID,
		Countries: req.Countries,
		Risks:     req.Risks,
		Year:      req.Year,
		Status:    domain.ReportPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateReportRequest(report); err != nil {
		return domain.ReportRequest{}, &StorageError{Err: fmt.Errorf("create report request: %w", err)}
	}

	if a.queue == nil {
		if err := a.ProcessReport(ctx, report.ID); err != nil {
			slog.Warn("inline report processing failed", "report_id", report.ID, "error", err)
		}
	} else if err := a.queue.Enqueue(ctx, report.ID); err != nil {
		now := time.Now().UTC()
		_ = a.store.SetReportRequestStatus(report.ID, domain.ReportFailed, "", "enqueue failed: "+err.Error(), &now)
		return domain.ReportRequest{}, &StorageError{Err: fmt.Errorf("enqueue report: %w", err)}
	}

	stored, ok, err := a.store.GetReportRequest(report.ID)
	if err != nil || !ok {
		return report, nil
	}
	return stored, nil
}

// GetReport returns one of the caller's report requests.
func (a *App) GetReport(ownerID, id string) (domain.ReportRequest, error) {
	report, ok, err := a.store.GetReportRequest(id)
	if err != nil {
		return domain.ReportRequest{}, fmt.Errorf("load report request: %w", err)
	}
	if !ok || report.OwnerID != ownerID {
		return domain.ReportRequest{}, ErrReportNotFound
	}
	return report, nil
}

// ListReports returns the caller's report requests, newest first.
func (a *App) ListReports(ownerID string) ([]domain.ReportRequest, error) {
	return a.store.ListReportRequestsByOwner(ownerID)
}

// ProcessReport is the queue handler: it drives one report request through
// the document pipeline and records the terminal status on the row. A
// returned error asks the queue to retry; validation and quota rejections are
// terminal and do not.
func (a *App) ProcessReport(ctx context.Context, reportID string) error {
	report, ok, err := a.store.GetReportRequest(reportID)
	if err != nil {
		return fmt.Errorf("load report request: %w", err)
	}
	if !ok {
		slog.Warn("report request vanished", "report_id", reportID)
		return nil
	}
	if report.Status == domain.ReportCompleted {
		return nil
	}
	if err := a.store.SetReportRequestStatus(reportID, domain.ReportProcessing, "", "", nil); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	artifact, err := a.GenerateDocument(ctx, report.OwnerID, GenerateRequest{
		Countries: report.Countries,
		Risks:     report.Risks,
		Year:      report.Year,
	})
	now := time.Now().UTC()
	if err != nil {
		_ = a.store.SetReportRequestStatus(reportID, domain.ReportFailed, "", err.Error(), &now)
		var vErr *ValidationError
		var qErr *QuotaExceededError
		if errors.As(err, &vErr) || errors.As(err, &qErr) {
			return nil
		}
		return err
	}
	if err := a.store.SetReportRequestStatus(reportID, domain.ReportCompleted, artifact.ID, "", &now); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	return nil
}
