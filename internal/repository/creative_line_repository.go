package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/suno-approvals/internal/db"
	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
)

type CreativeLineRepository struct {
	DB db.DBTX
}

func (r *CreativeLineRepository) Create(ctx context.Context, l *model.CreativeLine) error {
	query := `INSERT INTO creative_lines (id, campaign_id, name, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.DB.ExecContext(ctx, query, l.ID, l.CampaignID, l.Name, l.CreatedAt); err != nil {
		return fmt.Errorf("insert creative line: %w", err)
	}
	return nil
}

func (r *CreativeLineRepository) GetByID(ctx context.Context, id int64) (*model.CreativeLine, error) {
	query := `SELECT id, campaign_id, name, created_at FROM creative_lines WHERE id = $1`
	var l model.CreativeLine
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.CampaignID, &l.Name, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(fmt.Sprintf("creative line with ID %d not found", id))
		}
		return nil, fmt.Errorf("select creative line: %w", err)
	}
	return &l, nil
}

func (r *CreativeLineRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*model.CreativeLine, error) {
	query := `SELECT id, campaign_id, name, created_at FROM creative_lines WHERE campaign_id = $1 ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list creative lines: %w", err)
	}
	defer rows.Close()

	lines := []*model.CreativeLine{}
	for rows.Next() {
		var l model.CreativeLine
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
