package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/suno-approvals/internal/model"
)

// TopicCampaignEvents carries model.CampaignEvent payloads.
const TopicCampaignEvents = "campaign_events"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers each published payload to every subscriber on its
// own goroutine and retries failed handlers with linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error

	MaxRetries int
	Backoff    time.Duration
	Log        *zap.Logger
}

func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Log:        log,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		go q.processJob(handler, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			q.Log.Error("job permanently failed",
				zap.String("topic", job.Topic), zap.Int("attempts", job.RetryCount), zap.Error(err))
			return
		}
		q.Log.Warn("job failed, retrying",
			zap.String("topic", job.Topic), zap.Int("attempt", job.RetryCount), zap.Int("max_retries", job.MaxRetries), zap.Error(err))

		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// DecodeEvent accepts the payload shapes the queues deliver: the event
// itself from the in-memory queue, or its JSON body from AMQP.
func DecodeEvent(payload any) (model.CampaignEvent, error) {
	switch p := payload.(type) {
	case model.CampaignEvent:
		return p, nil
	case *model.CampaignEvent:
		return *p, nil
	case []byte:
		var ev model.CampaignEvent
		if err := json.Unmarshal(p, &ev); err != nil {
			return model.CampaignEvent{}, fmt.Errorf("decode campaign event: %w", err)
		}
		return ev, nil
	default:
		return model.CampaignEvent{}, fmt.Errorf("unexpected campaign event payload %T", payload)
	}
}

// StartEventSubscriber feeds decoded campaign events into out. Payloads that
// cannot be decoded are dropped, since retrying them cannot succeed.
func StartEventSubscriber(q Queue, out chan<- model.CampaignEvent, log *zap.Logger) error {
	return q.Subscribe(TopicCampaignEvents, func(payload any) error {
		ev, err := DecodeEvent(payload)
		if err != nil {
			log.Warn("dropping campaign event", zap.Error(err))
			return nil
		}
		out <- ev
		return nil
	})
}
