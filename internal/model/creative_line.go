package model

import "time"

// CreativeLine groups pieces inside a campaign and is deleted with it.
type CreativeLine struct {
	ID         int64     `db:"id" json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
