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

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int64) (*model.Campaign, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Campaign, error)
	GetByHash(ctx context.Context, hash string) (*model.Campaign, error)
	GetByHashForUpdate(ctx context.Context, hash string) (*model.Campaign, error)
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int, status string) ([]*model.Campaign, int, error)
	Update(ctx context.Context, c *model.Campaign, now time.Time) error
	MarkViewed(ctx context.Context, id int64, now time.Time) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type CampaignRepository struct {
	DB   db.DBTX
	lock string
}

const campaignColumns = `id, name, master_client_id, status, approval_hash, sent_for_approval_at, approved_at, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var (
		c      model.Campaign
		status string
	)
	err := row.Scan(&c.ID, &c.Name, &c.MasterClientID, &status, &c.ApprovalHash,
		&c.SentForApprovalAt, &c.ApprovedAt, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = model.CampaignStatus(status)
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, name, master_client_id, status, approval_hash, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, c.ID, c.Name, c.MasterClientID, string(c.Status), c.ApprovalHash, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) getOne(ctx context.Context, where string, arg any, notFound error) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE ` + where
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("select campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	return r.getOne(ctx, `id = $1`, id, appErrors.NewCampaignNotFound(id))
}

// GetByIDForUpdate loads the campaign and, on PostgreSQL, holds its row
// lock until the surrounding transaction ends.
func (r *CampaignRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Campaign, error) {
	return r.getOne(ctx, `id = $1`+r.lock, id, appErrors.NewCampaignNotFound(id))
}

func (r *CampaignRepository) GetByHash(ctx context.Context, hash string) (*model.Campaign, error) {
	return r.getOne(ctx, `approval_hash = $1`, hash, appErrors.NotFound("approval link not found"))
}

func (r *CampaignRepository) GetByHashForUpdate(ctx context.Context, hash string) (*model.Campaign, error) {
	return r.getOne(ctx, `approval_hash = $1`+r.lock, hash, appErrors.NotFound("approval link not found"))
}

func (r *CampaignRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int, status string) ([]*model.Campaign, int, error) {
	where := ` WHERE created_by = $1`
	args := []any{ownerID}
	argPos := 2

	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, status)
		argPos++
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

// Update persists the mutable lifecycle fields and stamps updated_at with
// now. approval_hash is never written after insert.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign, now time.Time) error {
	query := `
		UPDATE campaigns
		SET name = $1, status = $2, sent_for_approval_at = $3, approved_at = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := r.DB.ExecContext(ctx, query, c.Name, string(c.Status), c.SentForApprovalAt, c.ApprovedAt, now, c.ID)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	c.UpdatedAt = &now
	return nil
}

// MarkViewed flips sent_for_approval to in_review. The status predicate
// makes concurrent calls safe: at most one of them reports a change.
func (r *CampaignRepository) MarkViewed(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, string(model.CampaignInReview), now, id, string(model.CampaignSentForApproval))
	if err != nil {
		return false, fmt.Errorf("mark campaign viewed: %w", err)
	}
	n, err := affected(res)
	return n > 0, err
}

func (r *CampaignRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
