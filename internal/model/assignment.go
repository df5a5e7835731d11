package model

import (
	"fmt"
	"time"
)

type ClientStatus string

const (
	ClientPending   ClientStatus = "pending"
	ClientViewed    ClientStatus = "viewed"
	ClientCompleted ClientStatus = "completed"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientPending, ClientViewed, ClientCompleted:
		return true
	}
	return false
}

func ParseClientStatus(raw string) (ClientStatus, error) {
	s := ClientStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown client status %q", raw)
	}
	return s, nil
}

// CampaignClientAssignment grants a client access to a campaign. Unique on
// (CampaignID, ClientID); the client must belong to the campaign's
// master client.
type CampaignClientAssignment struct {
	CampaignID   int64        `db:"campaign_id" json:"campaign_id"`
	ClientID     int64        `db:"client_id" json:"client_id"`
	CanApprove   bool         `db:"can_approve" json:"can_approve"`
	CanComment   bool         `db:"can_comment" json:"can_comment"`
	AssignedAt   time.Time    `db:"assigned_at" json:"assigned_at"`
	ClientStatus ClientStatus `db:"client_status" json:"client_status"`
}
