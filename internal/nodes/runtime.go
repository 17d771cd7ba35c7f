package nodes

import (
	"sync/atomic"

	"github.com/vk/choreo/internal/invoker"
	"github.com/vk/choreo/internal/logsink"
)

// DefaultMaxBranches caps how many branches of one fan-out run at once.
const DefaultMaxBranches = 1000

// DefaultMaxIterations caps the branch count of one parallel-for.
const DefaultMaxIterations = 100000

// Resolver finds the resource of a function that does not declare one.
// scopes are the names of the enclosing compounds, outermost first.
type Resolver interface {
	Resolve(name string, scopes []string) (invoker.Resource, bool)
}

// Runtime is the per-execution context threaded through every Call.
type Runtime struct {
	// ExecutionID enables invocation events when non-empty.
	ExecutionID string
	Workflow    string
	Invoker     invoker.Invoker
	Resolver    Resolver
	Sink        logsink.Sink
	// MaxBranches bounds concurrent branches per fan-out. Zero means
	// DefaultMaxBranches.
	MaxBranches int
	// MaxIterations bounds the branch count of a single parallel-for.
	// Zero means DefaultMaxIterations.
	MaxIterations int

	invocations atomic.Int64
}

// Invocations reports how many functions were invoked so far.
func (rt *Runtime) Invocations() int64 {
	return rt.invocations.Load()
}

func (rt *Runtime) branchLimit() int {
	if rt.MaxBranches > 0 {
		return rt.MaxBranches
	}
	return DefaultMaxBranches
}

func (rt *Runtime) iterationLimit() int {
	if rt.MaxIterations > 0 {
		return rt.MaxIterations
	}
	return DefaultMaxIterations
}
