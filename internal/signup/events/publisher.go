// Package events publishes accepted signups to a Kafka topic for downstream
// consumers (CRM sync, analytics). Publishing is best-effort: a broker
// outage never affects the signup that produced the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"waitlist/internal/signup/models"
)

// SignupAcceptedEvent is the wire payload for one persisted signup.
type SignupAcceptedEvent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Zip       string    `json:"zip,omitempty"`
	Role      string    `json:"role,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher produces signup events. A nil Publisher is a valid no-op, used
// when no brokers are configured.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and returns a Publisher. Returns nil when no
// brokers are configured.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// SignupAccepted publishes one event asynchronously. Errors are logged in
// the produce callback and never returned to the caller.
func (p *Publisher) SignupAccepted(ctx context.Context, record *models.SignupRecord) {
	if p == nil {
		return
	}

	event := SignupAcceptedEvent{
		ID:        record.ID,
		Email:     record.Email,
		Zip:       record.Zip,
		Role:      string(record.Role),
		Source:    record.Source,
		CreatedAt: record.CreatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal signup event", "error", err.Error())
		return
	}

	p.client.Produce(ctx, &kgo.Record{
		Topic: p.topic,
		Key:   []byte(record.ID),
		Value: value,
	}, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish signup event", "error", err.Error())
		}
	})
}

// Close flushes pending events and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
