package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Handler computes a fake function's response from its input.
type Handler func(input map[string]any) (map[string]any, error)

// Call is one recorded invocation.
type Call struct {
	Resource string
	Input    map[string]any
	Start    time.Time
	End      time.Time
}

// FakeInvoker serves invocations from in-process handlers keyed by resource id.
type FakeInvoker struct {
	mu       sync.Mutex
	handlers map[string]Handler
	raw      map[string]string
	calls    []Call
	delay    time.Duration
}

// NewFakeInvoker creates an invoker with no registered resources.
func NewFakeInvoker() *FakeInvoker {
	return &FakeInvoker{
		handlers: make(map[string]Handler),
		raw:      make(map[string]string),
	}
}

// Handle registers h for resource.
func (f *FakeInvoker) Handle(resource string, h Handler) *FakeInvoker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[resource] = h
	return f
}

// Respond registers a fixed raw response body for resource.
func (f *FakeInvoker) Respond(resource, body string) *FakeInvoker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[resource] = body
	return f
}

// WithDelay makes every invocation sleep for d, honouring cancellation.
func (f *FakeInvoker) WithDelay(d time.Duration) *FakeInvoker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// Invoke implements the function invoker contract.
func (f *FakeInvoker) Invoke(ctx context.Context, resource string, input map[string]any) (string, int64, error) {
	f.mu.Lock()
	h, hasHandler := f.handlers[resource]
	body, hasRaw := f.raw[resource]
	delay := f.delay
	f.mu.Unlock()

	start := time.Now()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		case <-time.After(delay):
		}
	}

	var err error
	switch {
	case hasHandler:
		var out map[string]any
		out, err = h(input)
		if err == nil {
			var b []byte
			b, err = json.Marshal(out)
			body = string(b)
		}
	case hasRaw:
	default:
		err = fmt.Errorf("fake invoker: unknown resource %q", resource)
	}

	end := time.Now()
	f.mu.Lock()
	f.calls = append(f.calls, Call{Resource: resource, Input: maps.Clone(input), Start: start, End: end})
	f.mu.Unlock()

	if err != nil {
		return "", end.Sub(start).Milliseconds(), err
	}
	return body, end.Sub(start).Milliseconds(), nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeInvoker) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded invocations of one resource.
func (f *FakeInvoker) CallsTo(resource string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Resource == resource {
			out = append(out, c)
		}
	}
	return out
}
