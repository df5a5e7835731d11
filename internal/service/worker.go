package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/model"
	"github.com/unclebandit/suno-approvals/internal/queue"
	"github.com/unclebandit/suno-approvals/internal/repository"
)

// Notification is one rendered message for one recipient.
type Notification struct {
	Recipient string
	Message   string
}

// Worker turns campaign events into notifications. Sent and resent
// campaigns notify the assigned clients; views and reviews notify the
// agency owner.
type Worker struct {
	Store         *repository.Store
	Events        <-chan model.CampaignEvent
	SendFunc      func(n Notification) bool
	PublicBaseURL string
	Log           *zap.Logger
}

func NewWorker(store *repository.Store, events <-chan model.CampaignEvent, sendFunc func(n Notification) bool, baseURL string, log *zap.Logger) *Worker {
	return &Worker{
		Store:         store,
		Events:        events,
		SendFunc:      sendFunc,
		PublicBaseURL: baseURL,
		Log:           log,
	}
}

// Start processes events until the channel is closed or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		}
	}
}

func (w *Worker) handle(ctx context.Context, ev model.CampaignEvent) {
	notes, err := w.Notifications(ctx, ev)
	if err != nil {
		w.Log.Warn("failed to build notifications", zap.String("type", ev.Type), zap.Int64("campaign_id", ev.CampaignID), zap.Error(err))
		return
	}
	for _, n := range notes {
		if !w.SendFunc(n) {
			w.Log.Warn("notification not delivered", zap.String("recipient", n.Recipient), zap.String("type", ev.Type))
		}
	}
}

func (w *Worker) Notifications(ctx context.Context, ev model.CampaignEvent) ([]Notification, error) {
	tmpl, ok := notificationTemplates[ev.Type]
	if !ok {
		return nil, fmt.Errorf("no template for event %q", ev.Type)
	}
	c, err := w.Store.Campaigns.GetByID(ctx, ev.CampaignID)
	if err != nil {
		return nil, err
	}
	data := map[string]string{
		"campaign_name": c.Name,
		"status":        string(ev.Status),
		"approval_link": w.PublicBaseURL + "/review/" + c.ApprovalHash,
	}

	switch ev.Type {
	case model.EventCampaignSent, model.EventCampaignResent:
		assignments, err := w.Store.Assignments.ListByCampaign(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		notes := make([]Notification, 0, len(assignments))
		for _, a := range assignments {
			client, err := w.Store.Clients.GetByID(ctx, a.ClientID)
			if err != nil {
				return nil, err
			}
			if !client.Active {
				continue
			}
			data["recipient"] = client.Name
			notes = append(notes, Notification{Recipient: client.Email, Message: RenderTemplate(tmpl, data)})
		}
		return notes, nil
	default:
		return []Notification{{
			Recipient: fmt.Sprintf("owner:%d", c.CreatedBy),
			Message:   RenderTemplate(tmpl, data),
		}}, nil
	}
}

// LogSender delivers notifications by logging them. It stands in for the
// mail gateway in development.
func LogSender(log *zap.Logger) func(n Notification) bool {
	return func(n Notification) bool {
		log.Info("notification", zap.String("recipient", n.Recipient), zap.String("message", n.Message))
		return true
	}
}

// StartNotifier subscribes a Worker to the campaign events topic of q and
// runs it in the background.
func StartNotifier(ctx context.Context, q queue.Queue, store *repository.Store, send func(n Notification) bool, baseURL string, log *zap.Logger) error {
	events := make(chan model.CampaignEvent, 64)
	if err := queue.StartEventSubscriber(q, events, log); err != nil {
		return err
	}
	go NewWorker(store, events, send, baseURL, log).Start(ctx)
	return nil
}
