// internal/model/client.go
package model

// MasterClient is the client organization a campaign is produced for.
type MasterClient struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Client is an individual login belonging to a MasterClient.
type Client struct {
	ID             int64  `db:"id" json:"id"`
	MasterClientID int64  `db:"master_client_id" json:"master_client_id"`
	Name           string `db:"name" json:"name"`
	Email          string `db:"email" json:"email"`
	Active         bool   `db:"active" json:"active"`
}
