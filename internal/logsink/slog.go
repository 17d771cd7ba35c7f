package logsink

import (
	"context"

	"github.com/vk/choreo/internal/ctxlog"
)

// Slog writes events to the logger carried by the context.
type Slog struct{}

// Record implements Sink.
func (Slog) Record(ctx context.Context, ev Event) error {
	ctxlog.FromContext(ctx).Info("📝 Invocation recorded",
		"execution_id", ev.ExecutionID,
		"node", ev.Node,
		"resource", ev.Resource,
		"provider", ev.Provider,
		"region", ev.Region,
		"duration_ms", ev.Duration().Milliseconds(),
		"rtt_ms", ev.RTTMillis,
		"success", ev.Success,
		"loop_counter", ev.LoopCounter,
	)
	return nil
}
