package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"riskintel/internal/app"
	"riskintel/internal/ratelimit"
	"riskintel/internal/usertoken"
	"riskintel/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	TokenVerifier  *usertoken.Verifier
	GenLimiter     *ratelimit.FixedWindowLimiter
	TrustForwarded bool
}

// Server exposes the HTTP surface: reference-data CRUD, media generation and
// access, quota info, and deferred report requests.
type Server struct {
	app            *app.App
	tokenVerifier  *usertoken.Verifier
	genLimiter     *ratelimit.FixedWindowLimiter
	trustForwarded bool
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	if cfg.TokenVerifier == nil {
		return nil, errors.New("token verifier is required")
	}
	s := &Server{
		app:            cfg.App,
		tokenVerifier:  cfg.TokenVerifier,
		genLimiter:     cfg.GenLimiter,
		trustForwarded: cfg.TrustForwarded,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// reference data
	s.mux.Handle("/countries", s.authenticated(s.handleCountries))
	s.mux.Handle("/countries/", s.authenticated(s.handleCountryByID))
	s.mux.Handle("/risk-categories", s.authenticated(s.handleRiskCategories))
	s.mux.Handle("/risk-categories/", s.authenticated(s.handleRiskCategoryByID))
	s.mux.Handle("/risk-data", s.authenticated(s.handleRiskData))
	s.mux.Handle("/risk-data/", s.authenticated(s.handleRiskDataByID))
	s.mux.Handle("/risk-forecasts", s.authenticated(s.handleRiskForecasts))
	s.mux.Handle("/risk-forecasts/", s.authenticated(s.handleRiskForecastByID))

	// media
	s.mux.Handle("/media/generate-document", s.authenticated(s.handleGenerateDocument))
	s.mux.Handle("/media/generate-audio", s.authenticated(s.handleGenerateAudio))
	s.mux.Handle("/media/storage", s.authenticated(s.handleStorageInfo))
	s.mux.Handle("/media", s.authenticated(s.handleMedia))
	s.mux.Handle("/media/", s.authenticated(s.handleMediaByID))

	// deferred reports
	s.mux.Handle("/reports", s.authenticated(s.handleReports))
	s.mux.Handle("/reports/", s.authenticated(s.handleReportByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownerHandler receives the verified token subject as the owner id.
type ownerHandler func(http.ResponseWriter, *http.Request, string)

func (s *Server) authenticated(next ownerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := usertoken.BearerToken(r)
		if !ok {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		ownerID, err := s.tokenVerifier.VerifySubject(token)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		next(w, r, ownerID)
	})
}

// allowGeneration applies the per-user fixed-window limit to the expensive
// generation endpoints. A nil limiter disables the check.
func (s *Server) allowGeneration(w http.ResponseWriter, r *http.Request, ownerID string) bool {
	if s.genLimiter == nil {
		return true
	}
	key := ownerID + "|" + util.ClientIP(r, s.trustForwarded)
	if s.genLimiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	s.writeError(w, r, http.StatusTooManyRequests, "too many generation requests", "rate_limited")
	return false
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`

	QuotaLimitBytes    int64 `json:"quota_limit_bytes,omitempty"`
	UsedBytes          int64 `json:"used_bytes,omitempty"`
	AttemptedSizeBytes int64 `json:"attempted_size_bytes,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: util.RequestIDFromRequest(r),
	})
}

// writeAppError maps the pipeline error taxonomy onto HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *app.ValidationError
	if errors.As(err, &vErr) {
		s.writeError(w, r, http.StatusBadRequest, vErr.Msg, "validation")
		return
	}
	var qErr *app.QuotaExceededError
	if errors.As(err, &qErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error:              "storage quota exceeded",
			Code:               "quota_exceeded",
			RequestID:          util.RequestIDFromRequest(r),
			QuotaLimitBytes:    qErr.QuotaLimitBytes,
			UsedBytes:          qErr.UsedBytes,
			AttemptedSizeBytes: qErr.AttemptedSizeBytes,
		})
		return
	}
	switch {
	case errors.Is(err, app.ErrArtifactNotFound),
		errors.Is(err, app.ErrReportNotFound),
		errors.Is(err, app.ErrCountryNotFound),
		errors.Is(err, app.ErrRiskCategoryNotFound),
		errors.Is(err, app.ErrRiskDataNotFound),
		errors.Is(err, app.ErrRiskForecastNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error(), "not_found")
		return
	case errors.Is(err, app.ErrArtifactNotReady):
		s.writeError(w, r, http.StatusConflict, err.Error(), "not_ready")
		return
	}

	logger := util.LoggerFromContext(r.Context())
	logger.Error("request failed", "path", r.URL.Path, "error", err)

	var genErr *app.GenerationError
	var synthErr *app.SynthesisError
	var renderErr *app.RenderError
	switch {
	case errors.As(err, &genErr):
		s.writeError(w, r, http.StatusInternalServerError, "text generation failed", "generation_failed")
	case errors.As(err, &synthErr):
		s.writeError(w, r, http.StatusInternalServerError, "speech synthesis failed", "synthesis_failed")
	case errors.As(err, &renderErr):
		s.writeError(w, r, http.StatusInternalServerError, "document rendering failed", "render_failed")
	default:
		s.writeError(w, r, http.StatusInternalServerError, "internal error", "internal")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}

// ListenAndServe runs the server with sane timeouts until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return srv.ListenAndServe()
}
