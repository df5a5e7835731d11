// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/auth"
	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/service"
)

// CampaignController serves the agency side of the approval workflow. Every
// route expects auth.Verifier.Middleware to have stored the owner ID.
type CampaignController struct {
	CampaignService *service.CampaignService
	AccessService   *service.AccessService
	Log             *zap.Logger
}

// Routes mounts the agency endpoints on r.
func (c *CampaignController) Routes(r chi.Router) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", c.CreateCampaign)
		r.Get("/", c.ListCampaigns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", c.GetCampaignDetails)
			r.Delete("/", c.DeleteCampaign)
			r.Post("/lines", c.CreateCreativeLine)
			r.Post("/attach", c.AttachPieces)
			r.Post("/detach", c.DetachPieces)
			r.Post("/send", c.SendForApproval)
			r.Post("/resend", c.Resend)
			r.Get("/clients", c.ListClients)
			r.Post("/clients", c.AssignClient)
			r.Delete("/clients/{clientId}", c.UnassignClient)
		})
	})
	r.Post("/lines/{lineId}/pieces", c.UploadPiece)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (c *CampaignController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if appErrors.WriteHTTP(w, err) {
		c.Log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		appErrors.WriteBadRequest(w, "invalid body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		appErrors.WriteBadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (c *CampaignController) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID, ok := auth.OwnerFrom(r.Context())
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing owner"}}`))
		return 0, false
	}
	return ownerID, true
}

func (c *CampaignController) ownerAndCampaign(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	ownerID, ok := c.owner(w, r)
	if !ok {
		return 0, 0, false
	}
	campaignID, ok := pathID(w, r, "id")
	return ownerID, campaignID, ok
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := c.owner(w, r)
	if !ok {
		return
	}
	var body struct {
		Name           string `json:"name"`
		MasterClientID int64  `json:"master_client_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), ownerID, body.MasterClientID, body.Name)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"campaign":      campaign,
		"approval_link": c.CampaignService.ApprovalLink(campaign),
	})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := c.owner(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), ownerID, page, pageSize, status)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	details, err := c.CampaignService.GetCampaignDetails(r.Context(), campaignID, ownerID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	if err := c.CampaignService.DeleteCampaign(r.Context(), campaignID, ownerID); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) CreateCreativeLine(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	line, err := c.CampaignService.CreateCreativeLine(r.Context(), campaignID, ownerID, body.Name)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (c *CampaignController) UploadPiece(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := c.owner(w, r)
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineId")
	if !ok {
		return
	}
	var body struct {
		Filename string `json:"filename"`
	}
	if !decode(w, r, &body) {
		return
	}
	piece, err := c.CampaignService.UploadPiece(r.Context(), lineID, ownerID, body.Filename)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, piece)
}

type pieceIDsBody struct {
	PieceIDs []int64 `json:"piece_ids"`
}

func (c *CampaignController) AttachPieces(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	var body pieceIDsBody
	if !decode(w, r, &body) {
		return
	}
	n, err := c.CampaignService.AttachPieces(r.Context(), campaignID, ownerID, body.PieceIDs)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"attached": n})
}

func (c *CampaignController) DetachPieces(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	var body pieceIDsBody
	if !decode(w, r, &body) {
		return
	}
	n, err := c.CampaignService.DetachPieces(r.Context(), campaignID, ownerID, body.PieceIDs)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"detached": n})
}

func lifecycleResponse(res *service.LifecycleResult) map[string]any {
	return map[string]any{
		"campaign_id":     res.Campaign.ID,
		"campaign_status": res.Campaign.Status,
		"approval_link":   res.ApprovalLink,
	}
}

func (c *CampaignController) SendForApproval(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	var body struct {
		ClientIDs []int64 `json:"client_ids"`
	}
	// The body is optional.
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}

	res, err := c.CampaignService.SendForApproval(r.Context(), campaignID, ownerID, body.ClientIDs)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycleResponse(res))
}

func (c *CampaignController) Resend(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	res, err := c.CampaignService.Resend(r.Context(), campaignID, ownerID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lifecycleResponse(res))
}

func (c *CampaignController) ListClients(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	assignments, err := c.AccessService.ListAssignments(r.Context(), campaignID, ownerID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": assignments})
}

func (c *CampaignController) AssignClient(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	body := struct {
		ClientID   int64 `json:"client_id"`
		CanApprove *bool `json:"can_approve"`
		CanComment *bool `json:"can_comment"`
	}{}
	if !decode(w, r, &body) {
		return
	}
	canApprove, canComment := true, true
	if body.CanApprove != nil {
		canApprove = *body.CanApprove
	}
	if body.CanComment != nil {
		canComment = *body.CanComment
	}

	res, err := c.AccessService.Assign(r.Context(), campaignID, ownerID, body.ClientID, canApprove, canComment)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign_status": res.Campaign.Status,
		"assignment":      res.Assignment,
	})
}

func (c *CampaignController) UnassignClient(w http.ResponseWriter, r *http.Request) {
	ownerID, campaignID, ok := c.ownerAndCampaign(w, r)
	if !ok {
		return
	}
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}
	if err := c.AccessService.Unassign(r.Context(), campaignID, ownerID, clientID); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
