// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/idgen"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/queue"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/storage"
)

// CampaignService owns the campaign lifecycle:
//
//	draft -> sent_for_approval -> in_review -> needs_changes | approved
//	needs_changes -> sent_for_approval (Resend)
//
// Every transition runs in a transaction holding the campaign row lock.
type CampaignService struct {
	Store         *repository.Store
	IDs           *idgen.Generator
	Queue         queue.Queue
	Files         storage.FileResolver
	Log           *zap.Logger
	PublicBaseURL string
	Now           func() time.Time
}

// LifecycleResult is returned by agency-side transitions.
type LifecycleResult struct {
	Campaign     *model.Campaign `json:"campaign"`
	ApprovalLink string          `json:"approval_link"`
}

type CampaignDetails struct {
	*model.Campaign
	ApprovalLink  string                `json:"approval_link"`
	CreativeLines []*model.CreativeLine `json:"creative_lines"`
	Pieces        []*model.Piece        `json:"pieces"`
	Stats         map[string]int        `json:"stats"`
}

// ReviewCampaign is the part of a campaign a client may see.
type ReviewCampaign struct {
	ID                int64                `json:"id"`
	Name              string               `json:"name"`
	Status            model.CampaignStatus `json:"status"`
	SentForApprovalAt *time.Time           `json:"sent_for_approval_at,omitempty"`
	ApprovedAt        *time.Time           `json:"approved_at,omitempty"`
}

type ReviewPiece struct {
	*model.Piece
	CreativeLine string `json:"creative_line"`
	URL          string `json:"url"`
}

type ReviewBundle struct {
	Campaign      ReviewCampaign        `json:"campaign"`
	CreativeLines []*model.CreativeLine `json:"creative_lines"`
	Pieces        []ReviewPiece         `json:"pieces"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CampaignService) ledger(tx *repository.Store) *PieceLedger {
	return NewPieceLedger(tx.Pieces, s.now)
}

func (s *CampaignService) ApprovalLink(c *model.Campaign) string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/review/" + c.ApprovalHash
}

func (s *CampaignService) publish(eventType string, c *model.Campaign) {
	if s.Queue == nil {
		return
	}
	ev := model.CampaignEvent{Type: eventType, CampaignID: c.ID, Status: c.Status, OccurredAt: s.now()}
	if err := s.Queue.Publish(queue.TopicCampaignEvents, ev); err != nil {
		s.Log.Warn("failed to publish campaign event",
			zap.String("type", eventType), zap.Int64("campaign_id", c.ID), zap.Error(err))
	}
}

// loadOwned fetches the campaign and checks it belongs to ownerID. With
// lock set it also takes the campaign row lock.
func loadOwned(ctx context.Context, repo *repository.CampaignRepository, campaignID, ownerID int64, lock bool) (*model.Campaign, error) {
	var (
		c   *model.Campaign
		err error
	)
	if lock {
		c, err = repo.GetByIDForUpdate(ctx, campaignID)
	} else {
		c, err = repo.GetByID(ctx, campaignID)
	}
	if err != nil {
		return nil, err
	}
	if c.CreatedBy != ownerID {
		return nil, appErrors.Forbidden("campaign belongs to another owner")
	}
	return c, nil
}

// ====================== Campaign CRUD ======================

func (s *CampaignService) CreateCampaign(ctx context.Context, ownerID, masterClientID int64, name string) (*model.Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Validation("campaign name is required")
	}
	if _, err := s.Store.Clients.GetMasterClient(ctx, masterClientID); err != nil {
		if appErrors.Is(err, appErrors.KindNotFound) {
			return nil, appErrors.Validation(fmt.Sprintf("master client %d does not exist", masterClientID))
		}
		return nil, err
	}

	c, err := model.NewCampaign(s.IDs.NextID(), name, masterClientID, ownerID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.Campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Log.Info("campaign created", zap.Int64("campaign_id", c.ID), zap.Int64("owner_id", ownerID))
	return c, nil
}

// ListCampaigns fetches the owner's campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, ownerID int64, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if status != "" && !model.CampaignStatus(status).Valid() {
		return nil, nil, appErrors.Validation(fmt.Sprintf("unknown campaign status %q", status))
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.Store.Campaigns.ListByOwner(ctx, ownerID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetails(ctx context.Context, campaignID, ownerID int64) (*CampaignDetails, error) {
	c, err := loadOwned(ctx, s.Store.Campaigns, campaignID, ownerID, false)
	if err != nil {
		return nil, err
	}
	lines, err := s.Store.CreativeLines.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	pieces, err := s.Store.Pieces.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Store.Pieces.StatusCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{
		Campaign:      c,
		ApprovalLink:  s.ApprovalLink(c),
		CreativeLines: lines,
		Pieces:        pieces,
		Stats:         stats,
	}, nil
}

// DeleteCampaign removes the campaign together with its creative lines,
// pieces and client assignments.
func (s *CampaignService) DeleteCampaign(ctx context.Context, campaignID, ownerID int64) error {
	return s.Store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true); err != nil {
			return err
		}
		return tx.Campaigns.Delete(ctx, campaignID)
	})
}

func (s *CampaignService) CreateCreativeLine(ctx context.Context, campaignID, ownerID int64, name string) (*model.CreativeLine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Validation("creative line name is required")
	}
	if _, err := loadOwned(ctx, s.Store.Campaigns, campaignID, ownerID, false); err != nil {
		return nil, err
	}
	line := &model.CreativeLine{ID: s.IDs.NextID(), CampaignID: campaignID, Name: name, CreatedAt: s.now()}
	if err := s.Store.CreativeLines.Create(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UploadPiece registers a file already stored by the upload service.
func (s *CampaignService) UploadPiece(ctx context.Context, lineID, ownerID int64, filename string) (*model.Piece, error) {
	var piece *model.Piece
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		line, err := tx.CreativeLines.GetByID(ctx, lineID)
		if err != nil {
			return err
		}
		if _, err := loadOwned(ctx, tx.Campaigns, line.CampaignID, ownerID, true); err != nil {
			return err
		}
		piece, err = s.ledger(tx).CreatePiece(ctx, s.IDs.NextID(), lineID, filename)
		return err
	})
	return piece, err
}

func (s *CampaignService) AttachPieces(ctx context.Context, campaignID, ownerID int64, pieceIDs []int64) (int, error) {
	var n int
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true); err != nil {
			return err
		}
		var err error
		n, err = s.ledger(tx).Attach(ctx, pieceIDs, campaignID)
		return err
	})
	return n, err
}

func (s *CampaignService) DetachPieces(ctx context.Context, campaignID, ownerID int64, pieceIDs []int64) (int, error) {
	var n int
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true); err != nil {
			return err
		}
		var err error
		n, err = s.ledger(tx).Detach(ctx, pieceIDs, campaignID)
		return err
	})
	return n, err
}

// ====================== Lifecycle transitions ======================

// SendForApproval marks every attached piece pending and moves a draft
// campaign to sent_for_approval. clientIDs, when given, are assigned with
// full rights in the same transaction.
func (s *CampaignService) SendForApproval(ctx context.Context, campaignID, ownerID int64, clientIDs []int64) (*LifecycleResult, error) {
	var c *model.Campaign
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		c, err = loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true)
		if err != nil {
			return err
		}
		for _, clientID := range clientIDs {
			a := &model.CampaignClientAssignment{CampaignID: c.ID, ClientID: clientID, CanApprove: true, CanComment: true}
			if err := s.upsertAssignment(ctx, tx, c, a); err != nil {
				return err
			}
		}
		return s.sendInTx(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("campaign sent for approval", zap.Int64("campaign_id", c.ID))
	s.publish(model.EventCampaignSent, c)
	return &LifecycleResult{Campaign: c, ApprovalLink: s.ApprovalLink(c)}, nil
}

func (s *CampaignService) sendInTx(ctx context.Context, tx *repository.Store, c *model.Campaign) error {
	if c.Status != model.CampaignDraft {
		return appErrors.Conflict(fmt.Sprintf("campaign cannot be sent in status %s", c.Status))
	}
	attached, err := tx.Pieces.IDsByCampaignAndStatus(ctx, c.ID, model.PieceAttached)
	if err != nil {
		return err
	}
	if len(attached) == 0 {
		return appErrors.Conflict("campaign has no attached pieces")
	}
	if _, err := s.ledger(tx).MarkPending(ctx, attached); err != nil {
		return err
	}

	now := s.now()
	c.Status = model.CampaignSentForApproval
	c.SentForApprovalAt = &now
	if err := tx.Campaigns.Update(ctx, c, now); err != nil {
		return err
	}
	_, err = tx.Assignments.SetClientStatus(ctx, c.ID, model.ClientPending)
	return err
}

// Resend returns a campaign with requested changes to the client. Pieces
// flagged for changes go back to pending; approved pieces keep their
// review.
func (s *CampaignService) Resend(ctx context.Context, campaignID, ownerID int64) (*LifecycleResult, error) {
	var c *model.Campaign
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		c, err = loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true)
		if err != nil {
			return err
		}
		return s.resendInTx(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("campaign resent", zap.Int64("campaign_id", c.ID))
	s.publish(model.EventCampaignResent, c)
	return &LifecycleResult{Campaign: c, ApprovalLink: s.ApprovalLink(c)}, nil
}

func (s *CampaignService) resendInTx(ctx context.Context, tx *repository.Store, c *model.Campaign) error {
	if c.Status != model.CampaignNeedsChanges {
		return appErrors.Conflict(fmt.Sprintf("campaign can only be resent from %s, current status is %s", model.CampaignNeedsChanges, c.Status))
	}
	ids, err := tx.Pieces.IDsByCampaignAndStatus(ctx, c.ID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if _, err := s.ledger(tx).ResetAdjusted(ctx, ids); err != nil {
			return err
		}
	}

	now := s.now()
	c.Status = model.CampaignSentForApproval
	c.SentForApprovalAt = &now
	if err := tx.Campaigns.Update(ctx, c, now); err != nil {
		return err
	}
	_, err = tx.Assignments.SetClientStatus(ctx, c.ID, model.ClientPending)
	return err
}

// MarkViewed flips sent_for_approval to in_review and is a no-op in any
// other status. Concurrent calls are safe; only one reports a change.
func (s *CampaignService) MarkViewed(ctx context.Context, campaignID int64) (bool, error) {
	var changed bool
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		changed, err = tx.Campaigns.MarkViewed(ctx, campaignID, s.now())
		if err != nil || !changed {
			return err
		}
		_, err = tx.Assignments.SetClientStatus(ctx, campaignID, model.ClientViewed, model.ClientPending)
		return err
	})
	return changed, err
}

// ApplySubmission recomputes the aggregate over every piece of c and
// persists it. approvedAt is stamped the first time the campaign becomes
// approved and is kept afterwards. Must run inside the submission
// transaction.
func (s *CampaignService) ApplySubmission(ctx context.Context, tx *repository.Store, c *model.Campaign) error {
	pieces, err := tx.Pieces.ListByCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	statuses := make([]model.PieceStatus, len(pieces))
	for i, p := range pieces {
		statuses[i] = p.Status
	}

	status, ok := ComputeCampaignStatus(statuses)
	if !ok {
		return nil
	}

	stampApproval := status == model.CampaignApproved && c.ApprovedAt == nil
	if status != c.Status || stampApproval {
		now := s.now()
		c.Status = status
		if stampApproval {
			c.ApprovedAt = &now
		}
		if err := tx.Campaigns.Update(ctx, c, now); err != nil {
			return err
		}
	}
	_, err = tx.Assignments.SetClientStatus(ctx, c.ID, model.ClientCompleted)
	return err
}

// ====================== Public review ======================

// GetReviewBundle serves the public review page. Opening it marks the
// campaign as viewed. Only pieces that were sent and whose file resolves
// are returned.
func (s *CampaignService) GetReviewBundle(ctx context.Context, hash string) (*ReviewBundle, error) {
	c, err := s.Store.Campaigns.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !c.Status.Reviewable() {
		return nil, appErrors.NotFound("approval link not found")
	}

	changed, err := s.MarkViewed(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if changed {
		c.Status = model.CampaignInReview
		s.publish(model.EventCampaignViewed, c)
	}

	lines, err := s.Store.CreativeLines.ListByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	pieces, err := s.Store.Pieces.ListByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	lineNames := make(map[int64]string, len(lines))
	for _, l := range lines {
		lineNames[l.ID] = l.Name
	}

	bundle := &ReviewBundle{
		Campaign: ReviewCampaign{
			ID:                c.ID,
			Name:              c.Name,
			Status:            c.Status,
			SentForApprovalAt: c.SentForApprovalAt,
			ApprovedAt:        c.ApprovedAt,
		},
		CreativeLines: lines,
		Pieces:        []ReviewPiece{},
	}
	for _, p := range pieces {
		if !p.Status.Sent() {
			continue
		}
		u, err := s.Files.Resolve(ctx, p.Filename)
		if err != nil {
			if !errors.Is(err, storage.ErrNoFile) {
				s.Log.Warn("failed to resolve piece file", zap.Int64("piece_id", p.ID), zap.Error(err))
			}
			continue
		}
		bundle.Pieces = append(bundle.Pieces, ReviewPiece{Piece: p, CreativeLine: lineNames[p.CreativeLineID], URL: u})
	}
	return bundle, nil
}
