package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wardbook/internal/config"
	"wardbook/internal/credentials"
	"wardbook/internal/domain"
	"wardbook/internal/metrics"
	"wardbook/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking coordination API.
type HTTPServer struct {
	cfg      config.APIConfig
	bookings *service.BookingService
	comments *service.CommentService
	sessions *service.SessionService
	creds    *credentials.Manager
	exports  *ExportService
	logger   *zerolog.Logger
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	bookings *service.BookingService,
	comments *service.CommentService,
	sessions *service.SessionService,
	creds *credentials.Manager,
	exports *ExportService,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		bookings: bookings,
		comments: comments,
		sessions: sessions,
		creds:    creds,
		exports:  exports,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/api/v1/comments", srv.handleCommentsChrono)
	mux.HandleFunc("/api/v1/mrn-check", srv.handleMRNCheck)
	mux.HandleFunc("/api/v1/sessions", srv.handleSessions)
	mux.HandleFunc("/api/v1/presence/", srv.handlePresence)
	mux.HandleFunc("/api/v1/stats", srv.handleStats)
	mux.HandleFunc("/api/v1/exports/registry", srv.handleRegistryExport)
	mux.HandleFunc("/api/v1/staff-password/verify", srv.handleStaffPasswordVerify)
	mux.HandleFunc("/api/v1/staff-password", srv.handleStaffPasswordUpdate)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler exposes the composed handler, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError translates domain errors to HTTP statuses. Admission
// conflicts carry the existing booking summary so clients can show it.
func writeDomainError(w http.ResponseWriter, err error) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    conflict.Message,
			"existing": conflict.Existing,
		})
		return
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		writeError(w, http.StatusBadRequest, validation.Error())
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if errors.Is(err, credentials.ErrWrongPassword) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	writeError(w, http.StatusInternalServerError, "internal error")
}
