package logsink

import (
	"context"
	"errors"
	"time"
)

// Event is one function invocation.
type Event struct {
	ExecutionID string
	Workflow    string
	Node        string
	Type        string
	Resource    string
	Provider    string
	Region      string
	Result      string
	Start       time.Time
	End         time.Time
	RTTMillis   int64
	Success     bool
	Memory      int
	LoopCounter int
	Sequence    int64
}

// Duration is the wall-clock time between Start and End.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Sink receives invocation events.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Multi records every event on each of its sinks and joins their errors.
type Multi []Sink

// Record implements Sink.
func (m Multi) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
