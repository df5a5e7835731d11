package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/unclebandit/suno-approvals/internal/db"
)

// Store groups the repositories over a single connection or transaction.
type Store struct {
	database *db.Database

	Campaigns     *CampaignRepository
	CreativeLines *CreativeLineRepository
	Pieces        *PieceRepository
	Clients       *ClientRepository
	Assignments   *AssignmentRepository
}

func NewStore(d *db.Database) *Store {
	return newStore(d, d.DB)
}

func newStore(d *db.Database, conn db.DBTX) *Store {
	return &Store{
		database:      d,
		Campaigns:     &CampaignRepository{DB: conn, lock: d.ForUpdate()},
		CreativeLines: &CreativeLineRepository{DB: conn},
		Pieces:        &PieceRepository{DB: conn},
		Clients:       &ClientRepository{DB: conn},
		Assignments:   &AssignmentRepository{DB: conn},
	}
}

// InTx runs fn with a Store bound to a new transaction. The tx store must
// not be used after fn returns.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.database.InTx(ctx, func(tx *sql.Tx) error {
		return fn(newStore(s.database, tx))
	})
}

// inList renders "$n, $n+1, ..." for ids starting at argument position
// start and returns the matching arguments.
func inList(start int, ids []int64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(ph, ", "), args
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
