// internal/model/campaign.go
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft           CampaignStatus = "draft"
	CampaignSentForApproval CampaignStatus = "sent_for_approval"
	CampaignInReview        CampaignStatus = "in_review"
	CampaignNeedsChanges    CampaignStatus = "needs_changes"
	CampaignApproved        CampaignStatus = "approved"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignSentForApproval, CampaignInReview, CampaignNeedsChanges, CampaignApproved:
		return true
	}
	return false
}

// Reviewable reports whether a client holding the approval link may open
// or submit against a campaign in this status.
func (s CampaignStatus) Reviewable() bool {
	switch s {
	case CampaignSentForApproval, CampaignInReview, CampaignNeedsChanges, CampaignApproved:
		return true
	}
	return false
}

func ParseCampaignStatus(raw string) (CampaignStatus, error) {
	s := CampaignStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown campaign status %q", raw)
	}
	return s, nil
}

type Campaign struct {
	ID                int64          `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	MasterClientID    int64          `db:"master_client_id" json:"master_client_id"`
	Status            CampaignStatus `db:"status" json:"status"`
	ApprovalHash      string         `db:"approval_hash" json:"approval_hash"`
	SentForApprovalAt *time.Time     `db:"sent_for_approval_at" json:"sent_for_approval_at,omitempty"`
	ApprovedAt        *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	CreatedBy         int64          `db:"created_by" json:"created_by"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// NewCampaign returns a draft campaign with a freshly generated approval
// hash. The hash is the public capability token and is never rewritten.
func NewCampaign(id int64, name string, masterClientID, ownerID int64, now time.Time) (*Campaign, error) {
	hash, err := NewApprovalHash()
	if err != nil {
		return nil, err
	}
	return &Campaign{
		ID:             id,
		Name:           name,
		MasterClientID: masterClientID,
		Status:         CampaignDraft,
		ApprovalHash:   hash,
		CreatedBy:      ownerID,
		CreatedAt:      now,
	}, nil
}

func NewApprovalHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate approval hash: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CampaignEvent is published on the campaign_events topic after a
// lifecycle transition commits.
type CampaignEvent struct {
	Type       string         `json:"type"`
	CampaignID int64          `json:"campaign_id"`
	Status     CampaignStatus `json:"status"`
	OccurredAt time.Time      `json:"occurred_at"`
}

const (
	EventCampaignSent     = "campaign.sent"
	EventCampaignViewed   = "campaign.viewed"
	EventCampaignReviewed = "campaign.reviewed"
	EventCampaignResent   = "campaign.resent"
)
