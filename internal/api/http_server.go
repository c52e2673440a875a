package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"wrenchbid/internal/config"
	"wrenchbid/internal/service"
)

// HTTPServer exposes the marketplace over JSON. Authentication of end
// users happens upstream; callers forward the acting user in the
// X-Actor-Id header and authenticate themselves with API keys.
type HTTPServer struct {
	cfg        config.Config
	rfqs       *service.RfqService
	bids       *service.BidService
	resolution *service.ResolutionService
	tracker    engagementTracker
	logger     zerolog.Logger
	server     *http.Server
	auth       *HTTPAuth
}

// engagementTracker is the slice of domain.EngagementTracker the HTTP
// layer needs: view counters and per-actor submission throttling.
type engagementTracker interface {
	TrackView(ctx context.Context, rfqID, workshopID string) error
	ViewCount(ctx context.Context, rfqID string) (int64, error)
	CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error)
}

func NewHTTPServer(
	cfg config.Config,
	rfqs *service.RfqService,
	bids *service.BidService,
	resolution *service.ResolutionService,
	tracker engagementTracker,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:        cfg,
		rfqs:       rfqs,
		bids:       bids,
		resolution: resolution,
		tracker:    tracker,
		logger:     logger.With().Str("component", "http").Logger(),
	}
	srv.auth = NewHTTPAuth(cfg.API)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(&srv.logger))

	r.Get("/healthz", srv.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(srv.auth.Wrap)

		r.Route("/rfqs", func(r chi.Router) {
			r.Post("/", srv.handleOpenRfq)
			r.Get("/", srv.handleListRfqs)

			r.Route("/{rfqID}", func(r chi.Router) {
				r.Get("/", srv.handleGetRfq)
				r.Post("/cancel", srv.handleCancelRfq)
				r.Post("/close-expired", srv.handleCloseExpired)
				r.Post("/views", srv.handleRecordView)

				r.Post("/bids", srv.handleSubmitBid)
				r.Get("/bids", srv.handleListRfqBids)
				r.Post("/bids/{bidID}/accept", srv.handleAcceptBid)
			})
		})

		r.Get("/workshops/{workshopID}/bids", srv.handleListWorkshopBids)
	})

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.API.HTTP.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.API.HTTP.WriteTimeout) * time.Second,
	}

	return srv
}

// Handler returns the routing stack without the listener, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actorID extracts the upstream-authenticated user. Every mutating
// endpoint requires it.
func actorID(r *http.Request) string {
	return r.Header.Get("X-Actor-Id")
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, reason, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error":  message,
		"reason": reason,
	})
}

// writeMappedError is the one funnel for errors bubbling out of the
// service layer.
func (s *HTTPServer) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, reason, "internal error")
		return
	}
	writeError(w, status, reason, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
