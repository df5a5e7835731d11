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

type AssignmentRepositoryInterface interface {
	Upsert(ctx context.Context, a *model.CampaignClientAssignment) error
	Get(ctx context.Context, campaignID, clientID int64) (*model.CampaignClientAssignment, error)
	Delete(ctx context.Context, campaignID, clientID int64) error
	ListByCampaign(ctx context.Context, campaignID int64) ([]*model.CampaignClientAssignment, error)
	SetClientStatus(ctx context.Context, campaignID int64, to model.ClientStatus, from ...model.ClientStatus) (int, error)
}

type AssignmentRepository struct {
	DB db.DBTX
}

const assignmentColumns = `campaign_id, client_id, can_approve, can_comment, assigned_at, client_status`

func scanAssignment(row rowScanner) (*model.CampaignClientAssignment, error) {
	var (
		a      model.CampaignClientAssignment
		status string
	)
	if err := row.Scan(&a.CampaignID, &a.ClientID, &a.CanApprove, &a.CanComment, &a.AssignedAt, &status); err != nil {
		return nil, err
	}
	a.ClientStatus = model.ClientStatus(status)
	return &a, nil
}

// Upsert inserts the assignment or updates its permissions. AssignedAt and
// ClientStatus of an existing row are preserved; a is refreshed from the
// stored row.
func (r *AssignmentRepository) Upsert(ctx context.Context, a *model.CampaignClientAssignment) error {
	if a.ClientStatus == "" {
		a.ClientStatus = model.ClientPending
	}
	query := `
		INSERT INTO campaign_client_assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (campaign_id, client_id)
		DO UPDATE SET can_approve = excluded.can_approve, can_comment = excluded.can_comment
	`
	_, err := r.DB.ExecContext(ctx, query, a.CampaignID, a.ClientID, a.CanApprove, a.CanComment, a.AssignedAt, string(a.ClientStatus))
	if err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}

	stored, err := r.Get(ctx, a.CampaignID, a.ClientID)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, campaignID, clientID int64) (*model.CampaignClientAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM campaign_client_assignments WHERE campaign_id = $1 AND client_id = $2`
	a, err := scanAssignment(r.DB.QueryRowContext(ctx, query, campaignID, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(fmt.Sprintf("client %d is not assigned to campaign %d", clientID, campaignID))
		}
		return nil, fmt.Errorf("select assignment: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, campaignID, clientID int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaign_client_assignments WHERE campaign_id = $1 AND client_id = $2`, campaignID, clientID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NotFound(fmt.Sprintf("client %d is not assigned to campaign %d", clientID, campaignID))
	}
	return nil
}

func (r *AssignmentRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*model.CampaignClientAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM campaign_client_assignments WHERE campaign_id = $1 ORDER BY assigned_at, client_id`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := []*model.CampaignClientAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetClientStatus moves every assignment of the campaign to status to. When
// from is given only rows currently in one of those statuses change.
func (r *AssignmentRepository) SetClientStatus(ctx context.Context, campaignID int64, to model.ClientStatus, from ...model.ClientStatus) (int, error) {
	query := `UPDATE campaign_client_assignments SET client_status = $1 WHERE campaign_id = $2`
	args := []any{string(to), campaignID}
	if len(from) > 0 {
		query += ` AND client_status IN (`
		for i, s := range from {
			if i > 0 {
				query += `, `
			}
			query += fmt.Sprintf("$%d", i+3)
			args = append(args, string(s))
		}
		query += `)`
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("set client status: %w", err)
	}
	return affected(res)
}

var _ AssignmentRepositoryInterface = (*AssignmentRepository)(nil)
