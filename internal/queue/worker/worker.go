package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/boardhub/internal/audit"
)

type Source interface {
	Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, bool, error)
}

type Sink interface {
	Record(ctx context.Context, e audit.Event) error
}

type Config struct {
	Queue       string
	WaitTimeout time.Duration
}

// Worker drains audit events from the queue and hands them to the sink, one
// at a time. Malformed payloads are dropped with a log line so one bad entry
// cannot wedge the queue.
type Worker struct {
	cfg    Config
	source Source
	sink   Sink
	log    *slog.Logger
}

func New(cfg Config, source Source, sink Sink, log *slog.Logger) *Worker {
	if cfg.Queue == "" {
		cfg.Queue = audit.QueueName
	}

	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 5 * time.Second
	}

	return &Worker{
		cfg:    cfg,
		source: source,
		sink:   sink,
		log:    log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil
		default:
		}

		payload, ok, err := w.source.Dequeue(ctx, w.cfg.Queue, w.cfg.WaitTimeout)

		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("worker received shutdown signal")
				return nil
			}
			w.log.Error("dequeue error", "err", err)
			time.Sleep(time.Second)
			continue
		}

		if !ok {
			continue
		}

		e, err := audit.Decode(payload)
		if err != nil {
			w.log.Error("dropping malformed audit payload", "err", err)
			continue
		}

		if err := w.sink.Record(ctx, e); err != nil {
			w.log.Error("record error", "audit_id", e.ID, "err", err)
		}
	}
}
