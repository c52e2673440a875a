package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"wrenchbid/internal/database"
	"wrenchbid/internal/models"
)

func (s *HTTPServer) handleOpenRfq(w http.ResponseWriter, r *http.Request) {
	var rfq models.Rfq
	if err := decodeJSON(r, &rfq); err != nil {
		writeError(w, http.StatusBadRequest, reasonInvalidParameters, "invalid JSON body")
		return
	}
	if rfq.CustomerID == "" {
		rfq.CustomerID = actorID(r)
	}

	if err := s.rfqs.Open(r.Context(), &rfq); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &rfq)
}

func (s *HTTPServer) handleListRfqs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := database.RfqFilter{
		Status:         models.RfqStatus(q.Get("status")),
		IssueCategory:  q.Get("issue_category"),
		Urgency:        q.Get("urgency"),
		HideAlreadyBid: q.Get("hide_already_bid"),
		Limit:          queryInt(q.Get("limit")),
		Offset:         queryInt(q.Get("offset")),
	}

	var err error
	if f.BudgetMin, err = queryFloat(q.Get("budget_min")); err != nil {
		writeError(w, http.StatusBadRequest, reasonInvalidParameters, "invalid budget_min")
		return
	}
	if f.BudgetMax, err = queryFloat(q.Get("budget_max")); err != nil {
		writeError(w, http.StatusBadRequest, reasonInvalidParameters, "invalid budget_max")
		return
	}

	rfqs, err := s.rfqs.List(r.Context(), f)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rfqs": rfqs})
}

func (s *HTTPServer) handleGetRfq(w http.ResponseWriter, r *http.Request) {
	rfq, err := s.rfqs.Get(r.Context(), chi.URLParam(r, "rfqID"))
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	resp := map[string]any{"rfq": rfq}
	// View counts are engagement telemetry; their absence never fails
	// the read.
	if views, err := s.tracker.ViewCount(r.Context(), rfq.ID); err == nil {
		resp["view_count"] = views
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleCancelRfq(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusForbidden, reasonForbidden, "missing actor identity")
		return
	}

	rfqID := chi.URLParam(r, "rfqID")
	if err := s.rfqs.Cancel(r.Context(), rfqID, actor); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":     rfqID,
		"status": string(models.RfqStatusCancelled),
	})
}

// handleCloseExpired is an idempotent maintenance endpoint: fetching
// through the service applies lazy expiry, so the response reflects
// the post-deadline status whether or not the sweeper ran.
func (s *HTTPServer) handleCloseExpired(w http.ResponseWriter, r *http.Request) {
	rfq, err := s.rfqs.Get(r.Context(), chi.URLParam(r, "rfqID"))
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":     rfq.ID,
		"status": string(rfq.Status),
	})
}

func (s *HTTPServer) handleRecordView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WorkshopID string `json:"workshop_id"`
	}
	if err := decodeJSON(r, &body); err != nil || strings.TrimSpace(body.WorkshopID) == "" {
		writeError(w, http.StatusBadRequest, reasonInvalidParameters, "workshop_id is required")
		return
	}

	rfqID := chi.URLParam(r, "rfqID")
	if err := s.rfqs.RecordView(r.Context(), rfqID, body.WorkshopID); err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	if err := s.tracker.TrackView(r.Context(), rfqID, body.WorkshopID); err != nil {
		s.logger.Warn().Err(err).Str("rfq_id", rfqID).Msg("view counter update failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitBidRequest struct {
	WorkshopID string `json:"workshop_id"`
	models.BidPayload
}

func (s *HTTPServer) handleSubmitBid(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusForbidden, reasonForbidden, "missing actor identity")
		return
	}

	var body submitBidRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, reasonInvalidParameters, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.WorkshopID) == "" {
		writeError(w, http.StatusBadRequest, reasonInvalidParameters, "workshop_id is required")
		return
	}

	allowed, err := s.tracker.CheckRateLimit(r.Context(), actor,
		s.cfg.Bidding.SubmitRateLimit, s.cfg.Bidding.SubmitRateWindowDuration())
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, reasonRateLimited, "too many bid submissions")
		return
	}

	bid, err := s.bids.Submit(r.Context(), chi.URLParam(r, "rfqID"), body.WorkshopID, actor, &body.BidPayload)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bid)
}

func (s *HTTPServer) handleListRfqBids(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusForbidden, reasonForbidden, "missing actor identity")
		return
	}

	bids, err := s.bids.ListForRfq(r.Context(), chi.URLParam(r, "rfqID"), actor, bidFilter(r))
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

func (s *HTTPServer) handleAcceptBid(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusForbidden, reasonForbidden, "missing actor identity")
		return
	}

	winner, err := s.resolution.Accept(r.Context(),
		chi.URLParam(r, "rfqID"), chi.URLParam(r, "bidID"), actor)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, winner)
}

func (s *HTTPServer) handleListWorkshopBids(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusForbidden, reasonForbidden, "missing actor identity")
		return
	}

	bids, err := s.bids.ListForWorkshop(r.Context(), chi.URLParam(r, "workshopID"), actor, bidFilter(r))
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

func bidFilter(r *http.Request) database.BidFilter {
	q := r.URL.Query()
	return database.BidFilter{
		Status: models.BidStatus(q.Get("status")),
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	}
}

func queryInt(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func queryFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
