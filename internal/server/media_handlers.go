package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"riskintel/internal/app"
	"riskintel/pkg/domain"
)

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request, ownerID string) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	if !s.allowGeneration(w, r, ownerID) {
		return
	}
	var req app.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
		return
	}
	artifact, err := s.app.GenerateDocument(r.Context(), ownerID, req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}

func (s *Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request, ownerID string) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}
	if !s.allowGeneration(w, r, ownerID) {
		return
	}
	var req app.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
		return
	}
	artifact, err := s.app.GenerateAudio(r.Context(), ownerID, req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request, ownerID string) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	items, err := s.app.ListArtifacts(ownerID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleStorageInfo(w http.ResponseWriter, r *http.Request, ownerID string) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	info, err := s.app.StorageInfo(ownerID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// /media/{id}, /media/{id}/download, /media/{id}/file
func (s *Server) handleMediaByID(w http.ResponseWriter, r *http.Request, ownerID string) {
	rest := strings.TrimPrefix(r.URL.Path, "/media/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "download":
			s.handleDownload(w, r, ownerID, id)
		case "file":
			s.handleFile(w, r, ownerID, id)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		artifact, err := s.app.GetArtifact(ownerID, id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, artifact)
	case http.MethodDelete:
		if err := s.app.DeleteArtifact(r.Context(), ownerID, id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		s.methodNotAllowed(w, r)
	}
}

// handleDownload returns the polymorphic download reference: a presigned URL
// for signing backends, an inline API path otherwise.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, ownerID, id string) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	ref, err := s.app.Download(r.Context(), ownerID, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

// handleFile streams the stored bytes for backends without presigned URLs.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request, ownerID, id string) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	rc, artifact, err := s.app.OpenArtifact(r.Context(), ownerID, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeForKind(artifact.Kind))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.OriginalFilename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", artifact.SizeBytes))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func contentTypeForKind(kind domain.ArtifactKind) string {
	switch kind {
	case domain.KindDocument:
		return "application/pdf"
	case domain.KindAudio:
		return "audio/mpeg"
	case domain.KindText:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, ownerID string) {
	switch r.Method {
	case http.MethodPost:
		if !s.allowGeneration(w, r, ownerID) {
			return
		}
		var req app.GenerateRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", "validation")
			return
		}
		report, err := s.app.SubmitReport(r.Context(), ownerID, req)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, report)
	case http.MethodGet:
		items, err := s.app.ListReports(ownerID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request, ownerID string) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/reports/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	report, err := s.app.GetReport(ownerID, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
