package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/auth"
	"github.com/unclebandit/suno-approvals/internal/controller"
	"github.com/unclebandit/suno-approvals/internal/service"
)

type RouterDeps struct {
	Campaigns   *service.CampaignService
	Access      *service.AccessService
	Submissions *service.SubmissionService
	Verifier    *auth.Verifier
	DB          Pinger
	Log         *zap.Logger
}

// NewRouter wires the public review routes and the JWT protected agency
// routes.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", HealthHandler(d.DB))

	review := &ReviewHandler{Campaigns: d.Campaigns, Submissions: d.Submissions, Log: d.Log}
	review.Routes(r)

	agency := &controller.CampaignController{CampaignService: d.Campaigns, AccessService: d.Access, Log: d.Log}
	r.Group(func(r chi.Router) {
		r.Use(d.Verifier.Middleware)
		agency.Routes(r)
	})
	return r
}
