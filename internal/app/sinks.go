package app

import (
	"fmt"

	"github.com/vk/choreo/internal/config"
	"github.com/vk/choreo/internal/logsink"
)

const defaultSinkBuffer = 1024

// buildSinks opens every configured sink of invocation events. SQLite
// writes go through an async buffer so a slow disk never stalls a function.
func (a *App) buildSinks() error {
	var sinks logsink.Multi
	if a.sink != nil {
		sinks = append(sinks, a.sink)
	}

	for _, s := range a.engine.LogSinks {
		switch s.Type {
		case config.SinkSlog:
			sinks = append(sinks, logsink.Slog{})
		case config.SinkSQLite:
			db, err := logsink.OpenSQLite(a.ctx, s.Path)
			if err != nil {
				return fmt.Errorf("failed to open log sink %q: %w", s.Path, err)
			}
			buffer := s.Buffer
			if buffer <= 0 {
				buffer = defaultSinkBuffer
			}
			async := logsink.NewAsync(db, buffer)
			a.closers = append(a.closers, db.Close, async.Close)
			sinks = append(sinks, async)
		}
	}

	switch len(sinks) {
	case 0:
		a.sink = nil
	case 1:
		a.sink = sinks[0]
	default:
		a.sink = sinks
	}
	a.logger.Debug("Invocation sinks configured.", "count", len(sinks))
	return nil
}
