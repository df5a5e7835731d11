package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/auth"
	"github.com/unclebandit/suno-approvals/internal/controller"
	"github.com/unclebandit/suno-approvals/internal/idgen"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/service"
	"github.com/unclebandit/suno-approvals/internal/storage"
	"github.com/unclebandit/suno-approvals/internal/testutil"
)

const ownerID int64 = 7

type setup struct {
	router http.Handler
	ctrl   *controller.CampaignController
	store  *repository.Store
	org    *model.MasterClient
	client *model.Client
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	ctx := context.Background()

	store := repository.NewStore(testutil.NewTestDB(t))
	ids, err := idgen.New(3)
	require.NoError(t, err)

	org := &model.MasterClient{ID: ids.NextID(), Name: "Acme"}
	require.NoError(t, store.Clients.CreateMasterClient(ctx, org, time.Now().UTC()))
	client := &model.Client{ID: ids.NextID(), MasterClientID: org.ID, Name: "Ana", Email: "ana@acme.test", Active: true}
	require.NoError(t, store.Clients.Create(ctx, client, time.Now().UTC()))

	svc := &service.CampaignService{
		Store:         store,
		IDs:           ids,
		Files:         storage.StaticResolver{BaseURL: "https://files.test"},
		Log:           zap.NewNop(),
		PublicBaseURL: "https://suno.test/",
	}
	ctrl := &controller.CampaignController{
		CampaignService: svc,
		AccessService:   &service.AccessService{Campaigns: svc},
		Log:             zap.NewNop(),
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithOwner(req.Context(), ownerID)))
		})
	})
	ctrl.Routes(r)

	return &setup{router: r, ctrl: ctrl, store: store, org: org, client: client}
}

func (s *setup) call(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func (s *setup) createCampaign(t *testing.T, name string) int64 {
	t.Helper()
	w := s.call(t, http.MethodPost, "/campaigns", map[string]any{"name": name, "master_client_id": s.org.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Campaign     model.Campaign `json:"campaign"`
		ApprovalLink string         `json:"approval_link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://suno.test/review/"+resp.Campaign.ApprovalHash, resp.ApprovalLink)
	return resp.Campaign.ID
}

func TestListCampaignsHandler(t *testing.T) {
	s := newSetup(t)
	for i := 0; i < 3; i++ {
		s.createCampaign(t, fmt.Sprintf("Campaign %d", i))
	}

	w := s.call(t, http.MethodGet, "/campaigns?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []model.Campaign `json:"data"`
		Pagination map[string]int   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 3, resp.Pagination["total_count"])
	assert.Equal(t, 2, resp.Pagination["total_pages"])

	w = s.call(t, http.MethodGet, "/campaigns?status=bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAssignClientDefaultsToFullRights(t *testing.T) {
	s := newSetup(t)
	campaignID := s.createCampaign(t, "Launch")

	w := s.call(t, http.MethodPost, fmt.Sprintf("/campaigns/%d/clients", campaignID), map[string]any{"client_id": s.client.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		CampaignStatus model.CampaignStatus           `json:"campaign_status"`
		Assignment     model.CampaignClientAssignment `json:"assignment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.CampaignDraft, resp.CampaignStatus)
	assert.True(t, resp.Assignment.CanApprove)
	assert.True(t, resp.Assignment.CanComment)

	w = s.call(t, http.MethodPost, fmt.Sprintf("/campaigns/%d/clients", campaignID), map[string]any{"client_id": s.client.ID, "can_approve": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Assignment.CanApprove)

	w = s.call(t, http.MethodDelete, fmt.Sprintf("/campaigns/%d/clients/%d", campaignID, s.client.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteCampaignHandler(t *testing.T) {
	s := newSetup(t)
	campaignID := s.createCampaign(t, "Short lived")

	w := s.call(t, http.MethodDelete, fmt.Sprintf("/campaigns/%d", campaignID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.call(t, http.MethodGet, fmt.Sprintf("/campaigns/%d", campaignID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidBody(t *testing.T) {
	s := newSetup(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewBufferString("not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMissingOwner(t *testing.T) {
	s := newSetup(t)
	w := httptest.NewRecorder()
	s.ctrl.ListCampaigns(w, httptest.NewRequest(http.MethodGet, "/campaigns", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
