package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/choreo/internal/builder"
	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/nodes"
	"github.com/vk/choreo/internal/wferr"
)

// ErrAlreadyExecuted is returned when an Executable is run a second time.
var ErrAlreadyExecuted = errors.New("workflow already executed")

// Executable owns the graph of one workflow definition.
type Executable struct {
	name    string
	inputs  []model.DataIn
	outputs []model.DataOut
	graph   *builder.Graph
	used    atomic.Bool
}

// New builds the graph of wf.
func New(wf *model.Workflow) (*Executable, error) {
	g, err := builder.Build(wf)
	if err != nil {
		return nil, err
	}
	return &Executable{
		name:    wf.Name,
		inputs:  wf.DataIns,
		outputs: wf.DataOuts,
		graph:   g,
	}, nil
}

// Name is the workflow name.
func (e *Executable) Name() string { return e.name }

// Graph exposes the assembled graph.
func (e *Executable) Graph() *builder.Graph { return e.graph }

// Error is a failed execution. It names the workflow and the innermost node
// that failed.
type Error struct {
	Workflow string
	Node     string
	Key      string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Node != "" && e.Key != "":
		return fmt.Sprintf("workflow %q failed at node %q (key %q): %v", e.Workflow, e.Node, e.Key, e.Err)
	case e.Node != "":
		return fmt.Sprintf("workflow %q failed at node %q: %v", e.Workflow, e.Node, e.Err)
	default:
		return fmt.Sprintf("workflow %q failed: %v", e.Workflow, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Execute runs the workflow with inputs keyed by the declared input sources.
// The returned table holds every value published during the run, including
// the workflow outputs under "<workflow>/<output>".
func (e *Executable) Execute(ctx context.Context, rt *nodes.Runtime, inputs map[string]any) (nodes.Values, error) {
	if !e.used.CompareAndSwap(false, true) {
		return nil, ErrAlreadyExecuted
	}
	if rt == nil {
		rt = &nodes.Runtime{}
	}
	if rt.Workflow == "" {
		rt.Workflow = e.name
	}

	ctx, logger := ctxlog.With(ctx, "workflow", e.name)
	if rt.ExecutionID != "" {
		ctx, logger = ctxlog.With(ctx, "execution_id", rt.ExecutionID)
	}

	seed := make(nodes.Values, len(e.inputs))
	for _, in := range e.inputs {
		v, ok := inputs[in.Source]
		if !ok {
			return nil, e.fail(wferr.MissingInput(e.name, in.Source))
		}
		seed[e.name+"/"+in.Name] = v
	}

	logger.Info("▶️ Execution started", "inputs", len(seed))
	started := time.Now()

	e.graph.Start.PassResult(nil, seed)
	if _, err := e.graph.Start.Call(ctx, rt); err != nil {
		logger.Error("Execution failed.", "error", err)
		return nil, e.fail(err)
	}

	result := e.graph.End.Result()
	logger.Info("🏁 Execution finished.", "duration", time.Since(started), "invocations", rt.Invocations())
	return result, nil
}

func (e *Executable) fail(err error) error {
	out := &Error{Workflow: e.name, Err: err}
	if ne, ok := wferr.Innermost(err); ok {
		out.Node, out.Key = ne.Node, ne.Key
	}
	return out
}

// Outputs projects result onto the declared workflow outputs, keyed by
// output name. Outputs absent from result are omitted.
func (e *Executable) Outputs(result nodes.Values) map[string]any {
	out := make(map[string]any, len(e.outputs))
	for _, o := range e.outputs {
		if v, ok := result[e.name+"/"+o.Name]; ok {
			out[o.Name] = v
		}
	}
	return out
}
