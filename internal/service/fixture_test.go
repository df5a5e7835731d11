package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/db"
	"github.com/unclebandit/suno-approvals/internal/idgen"
	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/repository"
	"github.com/unclebandit/suno-approvals/internal/service"
	"github.com/unclebandit/suno-approvals/internal/storage"
	"github.com/unclebandit/suno-approvals/internal/testutil"
)

const ownerID int64 = 1001

// fakeClock advances one second on every reading so successive writes get
// distinct timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// recordingQueue captures published events instead of delivering them.
type recordingQueue struct {
	mu     sync.Mutex
	events []model.CampaignEvent
}

func (q *recordingQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, payload.(model.CampaignEvent))
	return nil
}

func (q *recordingQueue) Subscribe(string, func(any) error) error { return nil }

func (q *recordingQueue) types() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.events))
	for i, ev := range q.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	ctx   context.Context
	db    *db.Database
	store *repository.Store
	ids   *idgen.Generator
	queue *recordingQueue
	svc   *service.CampaignService
	sub   *service.SubmissionService
	acl   *service.AccessService

	org      *model.MasterClient
	client   *model.Client
	otherOrg *model.MasterClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := testutil.NewTestDB(t)
	store := repository.NewStore(d)
	ids, err := idgen.New(1)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	q := &recordingQueue{}
	svc := &service.CampaignService{
		Store:         store,
		IDs:           ids,
		Queue:         q,
		Files:         storage.StaticResolver{BaseURL: "https://files.test"},
		Log:           zap.NewNop(),
		PublicBaseURL: "https://suno.test",
		Now:           clock.Now,
	}

	f := &fixture{
		ctx:   context.Background(),
		db:    d,
		store: store,
		ids:   ids,
		queue: q,
		svc:   svc,
		sub:   &service.SubmissionService{Campaigns: svc},
		acl:   &service.AccessService{Campaigns: svc},
	}

	f.org = f.addOrg(t, "Acme")
	f.otherOrg = f.addOrg(t, "Globex")
	f.client = f.addClient(t, f.org, "Ana", true)
	return f
}

func (f *fixture) addOrg(t *testing.T, name string) *model.MasterClient {
	t.Helper()
	mc := &model.MasterClient{ID: f.ids.NextID(), Name: name}
	require.NoError(t, f.store.Clients.CreateMasterClient(f.ctx, mc, time.Now().UTC()))
	return mc
}

func (f *fixture) addClient(t *testing.T, org *model.MasterClient, name string, active bool) *model.Client {
	t.Helper()
	c := &model.Client{ID: f.ids.NextID(), MasterClientID: org.ID, Name: name, Email: name + "@example.com", Active: active}
	require.NoError(t, f.store.Clients.Create(f.ctx, c, time.Now().UTC()))
	return c
}

func (f *fixture) deactivate(t *testing.T, c *model.Client) {
	t.Helper()
	_, err := f.db.ExecContext(f.ctx, `UPDATE clients SET active = $1 WHERE id = $2`, false, c.ID)
	require.NoError(t, err)
}

// draftWithPieces creates a draft campaign with one creative line holding
// n uploaded pieces, attaching them when attach is set.
func (f *fixture) draftWithPieces(t *testing.T, n int, attach bool) (*model.Campaign, []*model.Piece) {
	t.Helper()

	c, err := f.svc.CreateCampaign(f.ctx, ownerID, f.org.ID, "Summer launch")
	require.NoError(t, err)
	line, err := f.svc.CreateCreativeLine(f.ctx, c.ID, ownerID, "Key visuals")
	require.NoError(t, err)

	pieces := make([]*model.Piece, n)
	ids := make([]int64, n)
	for i := range pieces {
		p, err := f.svc.UploadPiece(f.ctx, line.ID, ownerID, "kv-"+string(rune('a'+i))+".png")
		require.NoError(t, err)
		pieces[i] = p
		ids[i] = p.ID
	}
	if attach && n > 0 {
		got, err := f.svc.AttachPieces(f.ctx, c.ID, ownerID, ids)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
	return c, pieces
}

// sentWithPieces returns a campaign sent for approval with n pending pieces.
func (f *fixture) sentWithPieces(t *testing.T, n int) (*model.Campaign, []*model.Piece) {
	t.Helper()
	c, pieces := f.draftWithPieces(t, n, true)
	res, err := f.svc.SendForApproval(f.ctx, c.ID, ownerID, nil)
	require.NoError(t, err)
	return res.Campaign, pieces
}

func (f *fixture) piece(t *testing.T, id int64) *model.Piece {
	t.Helper()
	p, err := f.store.Pieces.GetByID(f.ctx, id)
	require.NoError(t, err)
	return p
}

func (f *fixture) campaign(t *testing.T, id int64) *model.Campaign {
	t.Helper()
	c, err := f.store.Campaigns.GetByID(f.ctx, id)
	require.NoError(t, err)
	return c
}
