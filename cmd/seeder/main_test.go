package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/idgen"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/service"
	"github.com/unclebandit/suno-approvals/internal/testutil"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	ids, err := idgen.New(5)
	require.NoError(t, err)
	svc := &service.CampaignService{
		Store: repository.NewStore(testutil.NewTestDB(t)),
		IDs:   ids,
		Log:   zap.NewNop(),
	}

	res, err := seed(ctx, svc, 3)
	require.NoError(t, err)
	assert.Len(t, res.Clients, 3)

	clients, err := svc.Store.Clients.ListByMasterClient(ctx, res.MasterClient.ID)
	require.NoError(t, err)
	assert.Len(t, clients, 3)

	details, err := svc.GetCampaignDetails(ctx, res.Campaign.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignDraft, details.Status)
	assert.Equal(t, 3, details.Stats[string(model.PieceAttached)])

	// The seeded campaign is ready to send.
	_, err = svc.SendForApproval(ctx, res.Campaign.ID, 3, []int64{res.Clients[0].ID})
	require.NoError(t, err)
}
