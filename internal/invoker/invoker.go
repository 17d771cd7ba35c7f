package invoker

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Invoker calls one remote serverless function. It returns the raw JSON
// response and the round-trip time in milliseconds.
type Invoker interface {
	Invoke(ctx context.Context, resourceID string, input map[string]any) (string, int64, error)
}

// Func adapts a plain function to the Invoker interface.
type Func func(ctx context.Context, resourceID string, input map[string]any) (string, int64, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, resourceID string, input map[string]any) (string, int64, error) {
	return f(ctx, resourceID, input)
}

// ErrNoRoute is returned when no transport is registered for a resource id.
type ErrNoRoute struct {
	ResourceID string
}

func (e *ErrNoRoute) Error() string {
	return fmt.Sprintf("no invoker registered for resource %q", e.ResourceID)
}

// Router dispatches invocations by resource-id prefix. The longest matching
// prefix wins.
type Router struct {
	routes map[string]Invoker
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]Invoker)}
}

// Handle registers inv for every resource id starting with one of prefixes.
func (r *Router) Handle(inv Invoker, prefixes ...string) {
	for _, p := range prefixes {
		r.routes[strings.ToLower(p)] = inv
	}
}

// Prefixes returns the registered prefixes in lexical order.
func (r *Router) Prefixes() []string {
	out := make([]string, 0, len(r.routes))
	for p := range r.routes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Invoke forwards to the transport registered for resourceID.
func (r *Router) Invoke(ctx context.Context, resourceID string, input map[string]any) (string, int64, error) {
	lower := strings.ToLower(resourceID)
	var (
		best    Invoker
		bestLen = -1
	)
	for p, inv := range r.routes {
		if strings.HasPrefix(lower, p) && len(p) > bestLen {
			best, bestLen = inv, len(p)
		}
	}
	if best == nil {
		return "", 0, &ErrNoRoute{ResourceID: resourceID}
	}
	return best.Invoke(ctx, resourceID, input)
}
