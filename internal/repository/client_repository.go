package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unclebandit/suno-approvals/internal/db"
	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
)

// ClientRepositoryInterface covers the organization lookups the approval
// core needs. Organization management lives outside this service; the
// create methods exist for seeding.
type ClientRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	GetMasterClient(ctx context.Context, id int64) (*model.MasterClient, error)
	ListByMasterClient(ctx context.Context, masterClientID int64) ([]model.Client, error)
	CreateMasterClient(ctx context.Context, mc *model.MasterClient, now time.Time) error
	Create(ctx context.Context, c *model.Client, now time.Time) error
}

type ClientRepository struct {
	DB db.DBTX
}

// GetByID fetches a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	query := `
		SELECT id, master_client_id, name, email, active
		FROM clients
		WHERE id = $1
	`
	var c model.Client
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.MasterClientID, &c.Name, &c.Email, &c.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(fmt.Sprintf("client with ID %d not found", id))
		}
		return nil, fmt.Errorf("select client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepository) GetMasterClient(ctx context.Context, id int64) (*model.MasterClient, error) {
	var mc model.MasterClient
	err := r.DB.QueryRowContext(ctx, `SELECT id, name FROM master_clients WHERE id = $1`, id).Scan(&mc.ID, &mc.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(fmt.Sprintf("master client with ID %d not found", id))
		}
		return nil, fmt.Errorf("select master client: %w", err)
	}
	return &mc, nil
}

func (r *ClientRepository) ListByMasterClient(ctx context.Context, masterClientID int64) ([]model.Client, error) {
	query := `
		SELECT id, master_client_id, name, email, active
		FROM clients
		WHERE master_client_id = $1
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query, masterClientID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.MasterClientID, &c.Name, &c.Email, &c.Active); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *ClientRepository) CreateMasterClient(ctx context.Context, mc *model.MasterClient, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO master_clients (id, name, created_at) VALUES ($1, $2, $3)`, mc.ID, mc.Name, now)
	if err != nil {
		return fmt.Errorf("insert master client: %w", err)
	}
	return nil
}

func (r *ClientRepository) Create(ctx context.Context, c *model.Client, now time.Time) error {
	query := `
		INSERT INTO clients (id, master_client_id, name, email, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.DB.ExecContext(ctx, query, c.ID, c.MasterClientID, c.Name, c.Email, c.Active, now); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)
