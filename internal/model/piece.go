package model

import (
	"fmt"
	"time"
)

type PieceStatus string

const (
	PieceUploaded        PieceStatus = "uploaded"
	PieceAttached        PieceStatus = "attached"
	PiecePending         PieceStatus = "pending"
	PieceApproved        PieceStatus = "approved"
	PieceNeedsAdjustment PieceStatus = "needs_adjustment"
	PieceCriticalPoints  PieceStatus = "critical_points"
)

func (s PieceStatus) Valid() bool {
	switch s {
	case PieceUploaded, PieceAttached, PiecePending, PieceApproved, PieceNeedsAdjustment, PieceCriticalPoints:
		return true
	}
	return false
}

// ClientOutcome reports whether a client may submit this status as a review.
func (s PieceStatus) ClientOutcome() bool {
	switch s {
	case PieceApproved, PieceNeedsAdjustment, PieceCriticalPoints:
		return true
	}
	return false
}

// RequiresComment is true for outcomes that ask the agency for changes.
func (s PieceStatus) RequiresComment() bool {
	return s == PieceNeedsAdjustment || s == PieceCriticalPoints
}

// Sent reports whether the piece has been sent to the client at least once.
func (s PieceStatus) Sent() bool {
	switch s {
	case PiecePending, PieceApproved, PieceNeedsAdjustment, PieceCriticalPoints:
		return true
	}
	return false
}

func ParsePieceStatus(raw string) (PieceStatus, error) {
	s := PieceStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown piece status %q", raw)
	}
	return s, nil
}

type Piece struct {
	ID             int64       `db:"id" json:"id"`
	CreativeLineID int64       `db:"creative_line_id" json:"creative_line_id"`
	Filename       string      `db:"filename" json:"filename"`
	Status         PieceStatus `db:"status" json:"status"`
	Comment        *string     `db:"comment" json:"comment,omitempty"`
	ReviewedAt     *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy     *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	AttachedAt     *time.Time  `db:"attached_at" json:"attached_at,omitempty"`
	Order          int         `db:"sort_order" json:"order"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

func (p *Piece) CommentText() string {
	if p.Comment == nil {
		return ""
	}
	return *p.Comment
}
