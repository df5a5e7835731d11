package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/service"
)

type mockPieceRepo struct {
	mock.Mock
}

func (m *mockPieceRepo) Create(ctx context.Context, p *model.Piece) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPieceRepo) GetByID(ctx context.Context, id int64) (*model.Piece, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Piece)
	return p, args.Error(1)
}

func (m *mockPieceRepo) ListByCampaign(ctx context.Context, campaignID int64) ([]*model.Piece, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]*model.Piece), args.Error(1)
}

func (m *mockPieceRepo) IDsByCampaignAndStatus(ctx context.Context, campaignID int64, statuses ...model.PieceStatus) ([]int64, error) {
	args := m.Called(ctx, campaignID, statuses)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockPieceRepo) StatusCounts(ctx context.Context, campaignID int64) (map[string]int, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockPieceRepo) Attach(ctx context.Context, campaignID int64, ids []int64, now time.Time) (int, error) {
	args := m.Called(ctx, campaignID, ids, now)
	return args.Int(0), args.Error(1)
}

func (m *mockPieceRepo) Detach(ctx context.Context, campaignID int64, ids []int64) (int, error) {
	args := m.Called(ctx, campaignID, ids)
	return args.Int(0), args.Error(1)
}

func (m *mockPieceRepo) MarkPending(ctx context.Context, ids []int64) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *mockPieceRepo) RecordReview(ctx context.Context, id int64, status model.PieceStatus, comment *string, reviewer string, now time.Time) error {
	return m.Called(ctx, id, status, comment, reviewer, now).Error(0)
}

func (m *mockPieceRepo) ResetAdjusted(ctx context.Context, ids []int64) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

var ledgerNow = time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)

func newLedger(repo *mockPieceRepo) *service.PieceLedger {
	return service.NewPieceLedger(repo, func() time.Time { return ledgerNow })
}

func TestLedgerRecordReview(t *testing.T) {
	ctx := context.Background()
	repo := &mockPieceRepo{}
	repo.On("GetByID", ctx, int64(1)).Return(&model.Piece{ID: 1, Status: model.PiecePending}, nil)
	repo.On("RecordReview", ctx, int64(1), model.PieceNeedsAdjustment, mock.MatchedBy(func(c *string) bool {
		return c != nil && *c == "more contrast"
	}), "ana", ledgerNow).Return(nil)

	err := newLedger(repo).RecordReview(ctx, 1, model.PieceNeedsAdjustment, "  more contrast ", "ana")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLedgerRecordReviewUnchangedIsNoop(t *testing.T) {
	ctx := context.Background()
	comment := "more contrast"
	repo := &mockPieceRepo{}
	repo.On("GetByID", ctx, int64(1)).
		Return(&model.Piece{ID: 1, Status: model.PieceNeedsAdjustment, Comment: &comment}, nil)

	err := newLedger(repo).RecordReview(ctx, 1, model.PieceNeedsAdjustment, comment, "ana")
	require.NoError(t, err)
	repo.AssertNotCalled(t, "RecordReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerRecordReviewValidation(t *testing.T) {
	tests := []struct {
		name    string
		status  model.PieceStatus
		comment string
	}{
		{"agency status", model.PiecePending, ""},
		{"unknown status", "archived", ""},
		{"adjustment without comment", model.PieceNeedsAdjustment, ""},
		{"critical without comment", model.PieceCriticalPoints, " \t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockPieceRepo{}
			err := newLedger(repo).RecordReview(context.Background(), 1, tt.status, tt.comment, "ana")
			assert.True(t, appErrors.Is(err, appErrors.KindValidation))
			repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestLedgerApprovalClearsComment(t *testing.T) {
	ctx := context.Background()
	comment := "old note"
	repo := &mockPieceRepo{}
	repo.On("GetByID", ctx, int64(2)).
		Return(&model.Piece{ID: 2, Status: model.PieceNeedsAdjustment, Comment: &comment}, nil)
	repo.On("RecordReview", ctx, int64(2), model.PieceApproved, (*string)(nil), "client", ledgerNow).Return(nil)

	require.NoError(t, newLedger(repo).RecordReview(ctx, 2, model.PieceApproved, "", "client"))
	repo.AssertExpectations(t)
}

func TestLedgerCreatePiece(t *testing.T) {
	ctx := context.Background()
	repo := &mockPieceRepo{}
	repo.On("Create", ctx, mock.AnythingOfType("*model.Piece")).Return(nil)

	p, err := newLedger(repo).CreatePiece(ctx, 9, 3, " hero.jpg ")
	require.NoError(t, err)
	assert.Equal(t, "hero.jpg", p.Filename)
	assert.Equal(t, model.PieceUploaded, p.Status)
	assert.Equal(t, ledgerNow, p.CreatedAt)

	_, err = newLedger(repo).CreatePiece(ctx, 10, 3, "")
	assert.True(t, appErrors.Is(err, appErrors.KindValidation))
	repo.AssertNumberOfCalls(t, "Create", 1)
}
