package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/suno-approvals/internal/model"
)

func TestNewCampaign(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a, err := model.NewCampaign(1, "Launch", 2, 3, now)
	require.NoError(t, err)
	b, err := model.NewCampaign(4, "Launch", 2, 3, now)
	require.NoError(t, err)

	assert.Equal(t, model.CampaignDraft, a.Status)
	assert.Equal(t, int64(3), a.CreatedBy)
	assert.Len(t, a.ApprovalHash, 64)
	assert.NotEqual(t, a.ApprovalHash, b.ApprovalHash)
	assert.Nil(t, a.SentForApprovalAt)
	assert.Nil(t, a.ApprovedAt)
}

func TestPieceStatusClasses(t *testing.T) {
	tests := []struct {
		status                         model.PieceStatus
		outcome, needsComment, wasSent bool
	}{
		{model.PieceUploaded, false, false, false},
		{model.PieceAttached, false, false, false},
		{model.PiecePending, false, false, true},
		{model.PieceApproved, true, false, true},
		{model.PieceNeedsAdjustment, true, true, true},
		{model.PieceCriticalPoints, true, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.outcome, tt.status.ClientOutcome())
			assert.Equal(t, tt.needsComment, tt.status.RequiresComment())
			assert.Equal(t, tt.wasSent, tt.status.Sent())
		})
	}

	_, err := model.ParsePieceStatus("rejected")
	assert.Error(t, err)
}

func TestCampaignStatusReviewable(t *testing.T) {
	assert.False(t, model.CampaignDraft.Reviewable())
	for _, s := range []model.CampaignStatus{
		model.CampaignSentForApproval, model.CampaignInReview, model.CampaignNeedsChanges, model.CampaignApproved,
	} {
		assert.True(t, s.Reviewable(), s)
	}

	s, err := model.ParseCampaignStatus("in_review")
	require.NoError(t, err)
	assert.Equal(t, model.CampaignInReview, s)
	_, err = model.ParseClientStatus("archived")
	assert.Error(t, err)
}
