package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/storage"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, filename string) (string, error) {
	args := m.Called(ctx, filename)
	return args.String(0), args.Error(1)
}

func TestGetReviewBundle(t *testing.T) {
	f := newFixture(t)
	c, pieces := f.draftWithPieces(t, 4, false)
	_, err := f.svc.AttachPieces(f.ctx, c.ID, ownerID, []int64{pieces[0].ID, pieces[1].ID, pieces[2].ID})
	require.NoError(t, err)
	_, err = f.svc.SendForApproval(f.ctx, c.ID, ownerID, nil)
	require.NoError(t, err)

	files := &mockResolver{}
	files.On("Resolve", mock.Anything, pieces[0].Filename).Return("https://cdn.test/a", nil)
	files.On("Resolve", mock.Anything, pieces[1].Filename).Return("", storage.ErrNoFile)
	files.On("Resolve", mock.Anything, pieces[2].Filename).Return("", errors.New("bucket offline"))
	f.svc.Files = files

	bundle, err := f.svc.GetReviewBundle(f.ctx, c.ApprovalHash)
	require.NoError(t, err)

	assert.Equal(t, model.CampaignInReview, bundle.Campaign.Status)
	require.Len(t, bundle.Pieces, 1)
	assert.Equal(t, pieces[0].ID, bundle.Pieces[0].ID)
	assert.Equal(t, "https://cdn.test/a", bundle.Pieces[0].URL)
	assert.Equal(t, "Key visuals", bundle.Pieces[0].CreativeLine)
	require.Len(t, bundle.CreativeLines, 1)

	files.AssertExpectations(t)
	files.AssertNotCalled(t, "Resolve", mock.Anything, pieces[3].Filename)
	assert.Equal(t, []string{model.EventCampaignSent, model.EventCampaignViewed}, f.queue.types())

	// A second visit does not publish another view.
	_, err = f.svc.GetReviewBundle(f.ctx, c.ApprovalHash)
	require.NoError(t, err)
	assert.Len(t, f.queue.types(), 2)
}

func TestGetReviewBundleHidesDrafts(t *testing.T) {
	f := newFixture(t)
	c, _ := f.draftWithPieces(t, 1, true)

	_, err := f.svc.GetReviewBundle(f.ctx, c.ApprovalHash)
	assert.True(t, appErrors.Is(err, appErrors.KindNotFound))

	_, err = f.svc.GetReviewBundle(f.ctx, "nope")
	assert.True(t, appErrors.Is(err, appErrors.KindNotFound))
	assert.Equal(t, model.CampaignDraft, f.campaign(t, c.ID).Status)
}
