package service

import (
	"fmt"

	"github.com/unclebandit/suno-approvals/internal/model"
)

// ComputeCampaignStatus derives the campaign status from the statuses of
// its pieces. Precedence is pending, then requested changes, then approved.
// Pieces that were never sent (uploaded, attached) do not take part. When
// no piece takes part ok is false and the caller keeps the current status.
//
// The result depends only on the multiset of statuses.
func ComputeCampaignStatus(statuses []model.PieceStatus) (status model.CampaignStatus, ok bool) {
	var pending, changes, approved int
	for _, s := range statuses {
		switch s {
		case model.PiecePending:
			pending++
		case model.PieceNeedsAdjustment, model.PieceCriticalPoints:
			changes++
		case model.PieceApproved:
			approved++
		case model.PieceUploaded, model.PieceAttached:
		default:
			panic(fmt.Sprintf("aggregation: unhandled piece status %q", s))
		}
	}

	switch {
	case pending > 0:
		return model.CampaignInReview, true
	case changes > 0:
		return model.CampaignNeedsChanges, true
	case approved > 0:
		return model.CampaignApproved, true
	default:
		return "", false
	}
}
