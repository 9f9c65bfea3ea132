package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueName is the redis list the API produces to and the worker drains.
const QueueName = "boardhub:audit"

type Queue interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
}

// Publisher enqueues audit events. Publishing is best-effort: a queue outage
// must not fail the mutation that already committed, so errors are logged and
// swallowed here.
type Publisher struct {
	queue  Queue
	log    *slog.Logger
	events *prometheus.CounterVec // action, outcome; may be nil
}

func NewPublisher(queue Queue, log *slog.Logger, events *prometheus.CounterVec) *Publisher {
	return &Publisher{queue: queue, log: log, events: events}
}

func (p *Publisher) Record(ctx context.Context, action Action, actorID, orgID, entityID string) {
	e, err := NewEvent(action, actorID, orgID, entityID)
	if err != nil {
		p.fail(ctx, action, "audit event rejected", err)
		return
	}

	b, err := Encode(e)
	if err != nil {
		p.fail(ctx, action, "audit event encode failed", err)
		return
	}

	if err := p.queue.Enqueue(ctx, QueueName, b); err != nil {
		p.fail(ctx, action, "audit event enqueue failed", err)
		return
	}

	p.count(action, "published")
}

func (p *Publisher) fail(ctx context.Context, action Action, msg string, err error) {
	p.log.ErrorContext(ctx, msg, "action", string(action), "err", err)
	p.count(action, "failed")
}

func (p *Publisher) count(action Action, outcome string) {
	if p.events == nil {
		return
	}

	p.events.WithLabelValues(string(action), outcome).Inc()
}
