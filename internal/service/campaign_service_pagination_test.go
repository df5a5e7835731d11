package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
)

func TestListCampaignsPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		_, err := f.svc.CreateCampaign(f.ctx, ownerID, f.org.ID, fmt.Sprintf("Campaign %d", i))
		require.NoError(t, err)
	}
	_, err := f.svc.CreateCampaign(f.ctx, 2002, f.org.ID, "Someone else's")
	require.NoError(t, err)

	campaigns, pagination, err := f.svc.ListCampaigns(f.ctx, ownerID, 1, 2, "")
	require.NoError(t, err)
	assert.Len(t, campaigns, 2)
	assert.Equal(t, "Campaign 4", campaigns[0].Name, "newest first")
	assert.Equal(t, 5, pagination["total_count"])
	assert.Equal(t, 3, pagination["total_pages"])

	campaigns, pagination, err = f.svc.ListCampaigns(f.ctx, ownerID, 3, 2, "")
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
	assert.Equal(t, 3, pagination["page"])

	campaigns, pagination, err = f.svc.ListCampaigns(f.ctx, ownerID, 0, 0, "")
	require.NoError(t, err)
	assert.Len(t, campaigns, 5)
	assert.Equal(t, 1, pagination["page"])
	assert.Equal(t, 20, pagination["page_size"])
}

func TestListCampaignsStatusFilter(t *testing.T) {
	f := newFixture(t)
	f.sentWithPieces(t, 1)
	f.draftWithPieces(t, 0, false)

	campaigns, pagination, err := f.svc.ListCampaigns(f.ctx, ownerID, 1, 10, string(model.CampaignSentForApproval))
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, model.CampaignSentForApproval, campaigns[0].Status)
	assert.Equal(t, 1, pagination["total_count"])

	_, _, err = f.svc.ListCampaigns(f.ctx, ownerID, 1, 10, "archived")
	assert.True(t, appErrors.Is(err, appErrors.KindValidation))
}
