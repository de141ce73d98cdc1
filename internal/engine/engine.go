// Package engine orchestrates the investment capital lifecycle: invest,
// exit, distributions, capital calls, payments, share allotments and
// transfers. Every operation validates its domain preconditions, mutates the
// rows it owns, optionally posts a balanced journal entry through a ledger
// sink, and runs inside exactly one store transaction. Any failure aborts the
// whole transaction; there are no partial postings and no retries.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"CapLedger/internal/events"
	"CapLedger/internal/identity"
	"CapLedger/internal/ledger"
	"CapLedger/internal/observability"
	"CapLedger/internal/storage"
)

// Engine is the investment transaction engine. It holds no domain state
// between calls: every operation re-reads the rows it needs inside its own
// transaction.
type Engine struct {
	store   storage.Store
	poster  *ledger.Poster
	pub     events.Publisher
	log     zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store storage.Store, poster *ledger.Poster, pub events.Publisher, log zerolog.Logger, metrics *observability.Metrics, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		poster:  poster,
		pub:     pub,
		log:     log,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run executes fn inside one transaction and records the outcome.
func (e *Engine) run(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	start := time.Now()
	err := e.store.WithinTx(ctx, fn)

	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordOp(op, status, time.Since(start))

	if err != nil {
		e.log.Warn().Err(err).Str("op", op).Msg("engine operation failed")
	}
	return err
}

// emit publishes a committed event. Publish failures never affect the
// already-committed operation.
func (e *Engine) emit(ctx context.Context, eventType string, payload any) {
	evt := events.Event{
		Type:       eventType,
		OccurredAt: e.now(),
		Actor:      identity.Actor(ctx),
		Payload:    payload,
	}
	if err := e.pub.Publish(ctx, evt); err != nil {
		e.metrics.PublishFailed()
		e.log.Warn().Err(err).Str("event_type", eventType).Msg("outbound publish failed")
	}
}
