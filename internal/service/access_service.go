package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
)

// AccessService manages which clients of the campaign's organization may
// view and approve it.
type AccessService struct {
	Campaigns *CampaignService
}

type AssignResult struct {
	Campaign   *model.Campaign                 `json:"campaign"`
	Assignment *model.CampaignClientAssignment `json:"assignment"`
}

// upsertAssignment validates the client against the campaign's
// organization and stores the assignment.
func (s *CampaignService) upsertAssignment(ctx context.Context, tx *repository.Store, c *model.Campaign, a *model.CampaignClientAssignment) error {
	client, err := tx.Clients.GetByID(ctx, a.ClientID)
	if err != nil {
		if appErrors.Is(err, appErrors.KindNotFound) {
			return appErrors.Validation(fmt.Sprintf("client %d does not exist", a.ClientID))
		}
		return err
	}
	if client.MasterClientID != c.MasterClientID {
		return appErrors.Validation(fmt.Sprintf("client %d does not belong to the campaign's organization", a.ClientID))
	}
	if !client.Active {
		return appErrors.Validation(fmt.Sprintf("client %d is inactive", a.ClientID))
	}

	a.CampaignID = c.ID
	a.AssignedAt = s.now()
	return tx.Assignments.Upsert(ctx, a)
}

// Assign grants clientID access to the campaign. A draft campaign with
// attached pieces is sent, and a campaign waiting on changes is resent,
// in the same transaction.
func (a *AccessService) Assign(ctx context.Context, campaignID, ownerID, clientID int64, canApprove, canComment bool) (*AssignResult, error) {
	s := a.Campaigns
	var (
		c       *model.Campaign
		row     = &model.CampaignClientAssignment{ClientID: clientID, CanApprove: canApprove, CanComment: canComment}
		advance string
	)
	err := s.Store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		c, err = loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true)
		if err != nil {
			return err
		}
		if err := s.upsertAssignment(ctx, tx, c, row); err != nil {
			return err
		}

		switch c.Status {
		case model.CampaignDraft:
			attached, err := tx.Pieces.IDsByCampaignAndStatus(ctx, c.ID, model.PieceAttached)
			if err != nil {
				return err
			}
			if len(attached) == 0 {
				return nil
			}
			advance = model.EventCampaignSent
			if err := s.sendInTx(ctx, tx, c); err != nil {
				return err
			}
		case model.CampaignNeedsChanges:
			advance = model.EventCampaignResent
			if err := s.resendInTx(ctx, tx, c); err != nil {
				return err
			}
		default:
			return nil
		}

		row, err = tx.Assignments.Get(ctx, c.ID, clientID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("client assigned",
		zap.Int64("campaign_id", c.ID), zap.Int64("client_id", clientID), zap.String("campaign_status", string(c.Status)))
	if advance != "" {
		s.publish(advance, c)
	}
	return &AssignResult{Campaign: c, Assignment: row}, nil
}

func (a *AccessService) Unassign(ctx context.Context, campaignID, ownerID, clientID int64) error {
	s := a.Campaigns
	return s.Store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := loadOwned(ctx, tx.Campaigns, campaignID, ownerID, true); err != nil {
			return err
		}
		return tx.Assignments.Delete(ctx, campaignID, clientID)
	})
}

func (a *AccessService) ListAssignments(ctx context.Context, campaignID, ownerID int64) ([]*model.CampaignClientAssignment, error) {
	s := a.Campaigns
	if _, err := loadOwned(ctx, s.Store.Campaigns, campaignID, ownerID, false); err != nil {
		return nil, err
	}
	return s.Store.Assignments.ListByCampaign(ctx, campaignID)
}
