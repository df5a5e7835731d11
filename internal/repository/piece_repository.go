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

// PieceRepositoryInterface is the storage side of the piece ledger. Bulk
// transitions only touch rows in the expected source status and report
// how many rows changed.
type PieceRepositoryInterface interface {
	Create(ctx context.Context, p *model.Piece) error
	GetByID(ctx context.Context, id int64) (*model.Piece, error)
	ListByCampaign(ctx context.Context, campaignID int64) ([]*model.Piece, error)
	IDsByCampaignAndStatus(ctx context.Context, campaignID int64, statuses ...model.PieceStatus) ([]int64, error)
	StatusCounts(ctx context.Context, campaignID int64) (map[string]int, error)
	Attach(ctx context.Context, campaignID int64, ids []int64, now time.Time) (int, error)
	Detach(ctx context.Context, campaignID int64, ids []int64) (int, error)
	MarkPending(ctx context.Context, ids []int64) (int, error)
	RecordReview(ctx context.Context, id int64, status model.PieceStatus, comment *string, reviewer string, now time.Time) error
	ResetAdjusted(ctx context.Context, ids []int64) (int, error)
}

type PieceRepository struct {
	DB db.DBTX
}

const pieceColumns = `p.id, p.creative_line_id, p.filename, p.status, p.comment, p.reviewed_at, p.reviewed_by, p.attached_at, p.sort_order, p.created_at`

const campaignLines = `SELECT id FROM creative_lines WHERE campaign_id = $1`

func scanPiece(row rowScanner) (*model.Piece, error) {
	var (
		p      model.Piece
		status string
	)
	err := row.Scan(&p.ID, &p.CreativeLineID, &p.Filename, &status, &p.Comment,
		&p.ReviewedAt, &p.ReviewedBy, &p.AttachedAt, &p.Order, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = model.PieceStatus(status)
	return &p, nil
}

// Create inserts an uploaded piece at the end of its creative line.
func (r *PieceRepository) Create(ctx context.Context, p *model.Piece) error {
	var next int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM pieces WHERE creative_line_id = $1`,
		p.CreativeLineID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next piece order: %w", err)
	}
	p.Order = next
	if p.Status == "" {
		p.Status = model.PieceUploaded
	}

	query := `
		INSERT INTO pieces (id, creative_line_id, filename, status, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.DB.ExecContext(ctx, query, p.ID, p.CreativeLineID, p.Filename, string(p.Status), p.Order, p.CreatedAt); err != nil {
		return fmt.Errorf("insert piece: %w", err)
	}
	return nil
}

func (r *PieceRepository) GetByID(ctx context.Context, id int64) (*model.Piece, error) {
	query := `SELECT ` + pieceColumns + ` FROM pieces p WHERE p.id = $1`
	p, err := scanPiece(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(fmt.Sprintf("piece with ID %d not found", id))
		}
		return nil, fmt.Errorf("select piece: %w", err)
	}
	return p, nil
}

func (r *PieceRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*model.Piece, error) {
	query := `
		SELECT ` + pieceColumns + `
		FROM pieces p
		JOIN creative_lines l ON l.id = p.creative_line_id
		WHERE l.campaign_id = $1
		ORDER BY l.created_at, l.id, p.sort_order, p.id
	`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list pieces: %w", err)
	}
	defer rows.Close()

	pieces := []*model.Piece{}
	for rows.Next() {
		p, err := scanPiece(rows)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, p)
	}
	return pieces, rows.Err()
}

func (r *PieceRepository) IDsByCampaignAndStatus(ctx context.Context, campaignID int64, statuses ...model.PieceStatus) ([]int64, error) {
	query := `SELECT id FROM pieces WHERE creative_line_id IN (` + campaignLines + `)`
	args := []any{campaignID}
	if len(statuses) > 0 {
		ph := ""
		for i, s := range statuses {
			if i > 0 {
				ph += ", "
			}
			ph += fmt.Sprintf("$%d", i+2)
			args = append(args, string(s))
		}
		query += ` AND status IN (` + ph + `)`
	}
	query += ` ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select piece ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// StatusCounts returns the number of pieces per status plus a "total" key.
func (r *PieceRepository) StatusCounts(ctx context.Context, campaignID int64) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM pieces WHERE creative_line_id IN (` + campaignLines + `) GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("count pieces: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{
		"total":                            0,
		string(model.PieceUploaded):        0,
		string(model.PieceAttached):        0,
		string(model.PiecePending):         0,
		string(model.PieceApproved):        0,
		string(model.PieceNeedsAdjustment): 0,
		string(model.PieceCriticalPoints):  0,
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

// ====================== Ledger transitions ======================

func (r *PieceRepository) Attach(ctx context.Context, campaignID int64, ids []int64, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, idArgs := inList(4, ids)
	query := `
		UPDATE pieces SET status = $2, attached_at = $3
		WHERE creative_line_id IN (` + campaignLines + `)
		  AND status = '` + string(model.PieceUploaded) + `'
		  AND id IN (` + in + `)`
	args := append([]any{campaignID, string(model.PieceAttached), now}, idArgs...)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("attach pieces: %w", err)
	}
	return affected(res)
}

func (r *PieceRepository) Detach(ctx context.Context, campaignID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, idArgs := inList(3, ids)
	query := `
		UPDATE pieces SET status = $2, attached_at = NULL
		WHERE creative_line_id IN (` + campaignLines + `)
		  AND status = '` + string(model.PieceAttached) + `'
		  AND id IN (` + in + `)`
	args := append([]any{campaignID, string(model.PieceUploaded)}, idArgs...)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("detach pieces: %w", err)
	}
	return affected(res)
}

func (r *PieceRepository) MarkPending(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, idArgs := inList(3, ids)
	query := `UPDATE pieces SET status = $1 WHERE status = $2 AND id IN (` + in + `)`
	args := append([]any{string(model.PiecePending), string(model.PieceAttached)}, idArgs...)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark pieces pending: %w", err)
	}
	return affected(res)
}

func (r *PieceRepository) RecordReview(ctx context.Context, id int64, status model.PieceStatus, comment *string, reviewer string, now time.Time) error {
	query := `UPDATE pieces SET status = $1, comment = $2, reviewed_at = $3, reviewed_by = $4 WHERE id = $5`
	res, err := r.DB.ExecContext(ctx, query, string(status), comment, now, reviewer, id)
	if err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NotFound(fmt.Sprintf("piece with ID %d not found", id))
	}
	return nil
}

// ResetAdjusted moves pieces flagged for changes back to pending and
// clears their review. Approved pieces in ids are left untouched.
func (r *PieceRepository) ResetAdjusted(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, idArgs := inList(4, ids)
	query := `
		UPDATE pieces SET status = $1, comment = NULL, reviewed_at = NULL, reviewed_by = NULL
		WHERE status IN ($2, $3) AND id IN (` + in + `)`
	args := append([]any{string(model.PiecePending), string(model.PieceNeedsAdjustment), string(model.PieceCriticalPoints)}, idArgs...)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset adjusted pieces: %w", err)
	}
	return affected(res)
}

var _ PieceRepositoryInterface = (*PieceRepository)(nil)
