package audit

import (
	"context"
	"log/slog"
)

// LogRecorder writes drained events to the structured log. It stands in for
// a durable audit sink; swapping it out only touches the worker wiring.
type LogRecorder struct {
	log *slog.Logger
}

func NewLogRecorder(log *slog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(ctx context.Context, e Event) error {
	r.log.InfoContext(ctx, "audit",
		"id", e.ID,
		"action", string(e.Action),
		"actor_id", e.ActorID,
		"organisation_id", e.OrganisationID,
		"entity_id", e.EntityID,
		"at", e.At,
	)

	return nil
}
