// Package events publishes committed engine events to NATS JetStream for
// downstream consumers (notifications, read models, the wider suite).
// Publishing happens after the transaction commits and is never fatal: a
// failed publish is logged and counted, the committed operation stands.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// Event types emitted by the engine.
const (
	TypeInvestmentCreated = "investment.created"
	TypeInvestmentExited  = "investment.exited"
	TypeDistributionPaid  = "distribution.paid"
	TypeCapitalCallIssued = "capital_call.issued"
	TypePaymentPaid       = "payment.paid"
	TypeSharesAllotted    = "shares.allotted"
	TypeSharesTransferred = "shares.transferred"
	TypeJournalPosted     = "journal.posted"
)

// Event is one committed fact. Payload is the affected domain row.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor"`
	Payload    any       `json:"payload"`
}

// Publisher sends committed events downstream.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher discards everything. Used in tests and when NATS is not
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes to JetStream subjects capledger.events.{type}.
type NATSPublisher struct {
	js  jetstream.JetStream
	log zerolog.Logger
}

func NewNATSPublisher(js jetstream.JetStream, log zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{js: js, log: log}
}

func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("capledger.events.%s", evt.Type)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// EnsureEventStream creates the outbound events stream.
func EnsureEventStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "CAPLEDGER_EVENTS",
		Subjects:  []string{"capledger.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create events stream: %w", err)
	}
	return nil
}
