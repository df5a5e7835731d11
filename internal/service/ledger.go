package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/unclebandit/suno-approvals/internal/errors"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
)

// PieceLedger owns per-piece review state. It is bound to one repository,
// usually the one of the caller's transaction.
type PieceLedger struct {
	Pieces repository.PieceRepositoryInterface
	Now    func() time.Time
}

func NewPieceLedger(pieces repository.PieceRepositoryInterface, now func() time.Time) *PieceLedger {
	return &PieceLedger{Pieces: pieces, Now: now}
}

// Attach moves uploaded pieces of the campaign to attached. Ids that are
// not uploaded or belong elsewhere are ignored and not counted.
func (l *PieceLedger) Attach(ctx context.Context, pieceIDs []int64, campaignID int64) (int, error) {
	return l.Pieces.Attach(ctx, campaignID, pieceIDs, l.Now())
}

func (l *PieceLedger) Detach(ctx context.Context, pieceIDs []int64, campaignID int64) (int, error) {
	return l.Pieces.Detach(ctx, campaignID, pieceIDs)
}

func (l *PieceLedger) MarkPending(ctx context.Context, pieceIDs []int64) (int, error) {
	return l.Pieces.MarkPending(ctx, pieceIDs)
}

// RecordReview stores a client's judgement on a piece. Recording the same
// status and comment again leaves the piece, including reviewedAt, as is.
func (l *PieceLedger) RecordReview(ctx context.Context, pieceID int64, status model.PieceStatus, comment, reviewerID string) error {
	if !status.ClientOutcome() {
		return appErrors.Validation(fmt.Sprintf("status %q is not a valid review outcome", status))
	}
	comment = strings.TrimSpace(comment)
	if status.RequiresComment() && comment == "" {
		return appErrors.Validation(
			fmt.Sprintf("a comment is required for piece %d", pieceID),
			appErrors.WithDetails(appErrors.Detail{Field: fmt.Sprintf("piece_%d.comment", pieceID), Message: "required when requesting changes"}),
		)
	}

	current, err := l.Pieces.GetByID(ctx, pieceID)
	if err != nil {
		return err
	}
	if current.Status == status && current.CommentText() == comment {
		return nil
	}

	var stored *string
	if comment != "" {
		stored = &comment
	}
	return l.Pieces.RecordReview(ctx, pieceID, status, stored, reviewerID, l.Now())
}

// ResetAdjusted returns pieces flagged for changes to pending. Approved
// pieces in pieceIDs are left untouched.
func (l *PieceLedger) ResetAdjusted(ctx context.Context, pieceIDs []int64) (int, error) {
	return l.Pieces.ResetAdjusted(ctx, pieceIDs)
}

// CreatePiece records an uploaded file at the end of its creative line.
func (l *PieceLedger) CreatePiece(ctx context.Context, id, creativeLineID int64, filename string) (*model.Piece, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, appErrors.Validation("filename is required")
	}
	p := &model.Piece{
		ID:             id,
		CreativeLineID: creativeLineID,
		Filename:       filename,
		Status:         model.PieceUploaded,
		CreatedAt:      l.Now(),
	}
	if err := l.Pieces.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
