package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
)

// DefaultReviewer is recorded as reviewedBy when the client does not name
// themselves. The approval link carries no user identity.
const DefaultReviewer = "client"

type ReviewOutcome struct {
	PieceID int64  `json:"piece_id"`
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type SubmissionResult struct {
	CampaignStatus model.CampaignStatus `json:"campaign_status"`
	Applied        map[string]int       `json:"applied"`
	AppliedTotal   int                  `json:"applied_total"`
	Skipped        int                  `json:"skipped"`
	SkippedIDs     []int64              `json:"skipped_piece_ids"`
}

// SubmissionService applies a client's batch review received through the
// public approval link.
type SubmissionService struct {
	Campaigns *CampaignService
}

// SubmitReview applies outcomes to the campaign identified by hash.
//
// Piece ids that do not belong to the campaign are skipped and reported.
// An unknown status value, or a missing comment on a change request,
// rejects the whole batch. A piece named more than once keeps its last
// outcome. The piece updates and the recomputed campaign
// status commit in one transaction. Submitting the same batch twice leaves
// the same state as submitting it once.
func (s *SubmissionService) SubmitReview(ctx context.Context, hash, reviewer string, outcomes []ReviewOutcome) (*SubmissionResult, error) {
	if len(outcomes) == 0 {
		return nil, appErrors.Validation("at least one review is required")
	}
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		reviewer = DefaultReviewer
	}

	cs := s.Campaigns
	var (
		c      *model.Campaign
		result = &SubmissionResult{Applied: map[string]int{}, SkippedIDs: []int64{}}
	)
	err := cs.Store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		c, err = tx.Campaigns.GetByHashForUpdate(ctx, hash)
		if err != nil {
			return err
		}
		if !c.Status.Reviewable() {
			return appErrors.NotFound("approval link not found")
		}

		pieces, err := tx.Pieces.ListByCampaign(ctx, c.ID)
		if err != nil {
			return err
		}
		valid := make(map[int64]bool, len(pieces))
		for _, p := range pieces {
			valid[p.ID] = true
		}

		type pending struct {
			pieceID int64
			status  model.PieceStatus
			comment string
		}
		var apply []pending
		seen := make(map[int64]int, len(outcomes))
		for i, o := range outcomes {
			if !valid[o.PieceID] {
				result.Skipped++
				result.SkippedIDs = append(result.SkippedIDs, o.PieceID)
				continue
			}
			status := model.PieceStatus(o.Status)
			if !status.ClientOutcome() {
				return appErrors.Validation(
					fmt.Sprintf("invalid status %q for piece %d", o.Status, o.PieceID),
					appErrors.WithDetails(appErrors.Detail{Field: fmt.Sprintf("reviews[%d].status", i), Message: "must be approved, needs_adjustment or critical_points"}),
				)
			}
			next := pending{pieceID: o.PieceID, status: status, comment: strings.TrimSpace(o.Comment)}
			if at, ok := seen[o.PieceID]; ok {
				apply[at] = next
				continue
			}
			seen[o.PieceID] = len(apply)
			apply = append(apply, next)
		}
		for _, p := range apply {
			if p.status.RequiresComment() && p.comment == "" {
				return appErrors.Validation(
					fmt.Sprintf("a comment is required for piece %d", p.pieceID),
					appErrors.WithDetails(appErrors.Detail{Field: fmt.Sprintf("piece_%d.comment", p.pieceID), Message: "required when requesting changes"}),
				)
			}
		}

		ledger := cs.ledger(tx)
		for _, p := range apply {
			if err := ledger.RecordReview(ctx, p.pieceID, p.status, p.comment, reviewer); err != nil {
				return err
			}
			result.Applied[string(p.status)]++
			result.AppliedTotal++
		}

		return cs.ApplySubmission(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}

	result.CampaignStatus = c.Status
	cs.Log.Info("review submitted",
		zap.Int64("campaign_id", c.ID),
		zap.String("campaign_status", string(c.Status)),
		zap.Int("applied", result.AppliedTotal),
		zap.Int("skipped", result.Skipped),
	)
	cs.publish(model.EventCampaignReviewed, c)
	return result, nil
}
