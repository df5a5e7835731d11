// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/service"
)

// ReviewHandler serves the public approval link. The hash in the URL is the
// only credential.
type ReviewHandler struct {
	Campaigns   *service.CampaignService
	Submissions *service.SubmissionService
	Log         *zap.Logger
}

func (h *ReviewHandler) Routes(r chi.Router) {
	r.Get("/review/{hash}", h.GetReviewHandler)
	r.Post("/review/{hash}/submit", h.SubmitReviewHandler)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErrors.WriteHTTP(w, err) {
		h.Log.Error("review request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

// GetReviewHandler returns the campaign bundle and marks it as viewed.
func (h *ReviewHandler) GetReviewHandler(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.Campaigns.GetReviewBundle(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// SubmitReviewHandler applies a batch of piece reviews.
func (h *ReviewHandler) SubmitReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reviewer string                  `json:"reviewer"`
		Reviews  []service.ReviewOutcome `json:"reviews"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		appErrors.WriteBadRequest(w, "invalid request body")
		return
	}

	result, err := h.Submissions.SubmitReview(r.Context(), chi.URLParam(r, "hash"), payload.Reviewer, payload.Reviews)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the database is reachable.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
