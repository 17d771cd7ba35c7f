package builder

import (
	"fmt"
	"slices"

	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/nodes"
)

// ListPair is the entry and exit of an assembled subgraph.
type ListPair struct {
	Start nodes.Node
	End   nodes.Node
}

// Graph is an assembled workflow graph.
type Graph struct {
	Start *nodes.ParallelStart
	End   *nodes.ParallelEnd
}

// Nodes lists every node of the graph once.
func (g *Graph) Nodes() []nodes.Node {
	var out []nodes.Node
	nodes.Walk(g.Start, func(n nodes.Node) { out = append(out, n) })
	return out
}

// Build validates wf and assembles its graph.
func Build(wf *model.Workflow) (*Graph, error) {
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow: %w", err)
	}

	body, ok, err := chain(wf.Body, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("workflow %q has no executable functions", wf.Name)
	}

	start := nodes.NewParallelStart(wf.Name, nil)
	end := nodes.NewParallelEnd(wf.Name, wf.DataOuts)
	nodes.Link(start, body.Start)
	nodes.Link(body.End, end)
	return &Graph{Start: start, End: end}, nil
}

// chain assembles body in order. ok is false when body produced no nodes.
func chain(body []model.Function, scopes []nodes.Scope) (pair ListPair, ok bool, err error) {
	for _, f := range body {
		next, nonEmpty, err := toNodeList(f, scopes)
		if err != nil {
			return ListPair{}, false, err
		}
		if !nonEmpty {
			continue
		}
		if !ok {
			pair, ok = next, true
			continue
		}
		nodes.Link(pair.End, next.Start)
		pair.End = next.End
	}
	return pair, ok, nil
}

// branch wires body between start and end, or start straight to end when
// body is empty.
func branch(start, end nodes.Node, body []model.Function, scopes []nodes.Scope) error {
	inner, ok, err := chain(body, scopes)
	if err != nil {
		return err
	}
	if !ok {
		nodes.Link(start, end)
		return nil
	}
	nodes.Link(start, inner.Start)
	nodes.Link(inner.End, end)
	return nil
}

func toNodeList(f model.Function, scopes []nodes.Scope) (ListPair, bool, error) {
	switch f.Kind() {
	case model.KindAtomic:
		n := nodes.NewFunction(f.Atomic, scopes)
		return ListPair{Start: n, End: n}, true, nil

	case model.KindIfThenElse:
		d := f.IfThenElse
		inner := withScope(scopes, d.Name, d.Properties)
		start := nodes.NewIfStart(d)
		end := nodes.NewIfEnd(d.Name, d.DataOuts)
		if err := branch(start, end, d.Then, inner); err != nil {
			return ListPair{}, false, fmt.Errorf("if %q then: %w", d.Name, err)
		}
		if err := branch(start, end, d.Else, inner); err != nil {
			return ListPair{}, false, fmt.Errorf("if %q else: %w", d.Name, err)
		}
		return ListPair{Start: start, End: end}, true, nil

	case model.KindSwitch:
		d := f.Switch
		inner := withScope(scopes, d.Name, d.Properties)
		start := nodes.NewSwitchStart(d)
		end := nodes.NewSwitchEnd(d.Name, d.DataOuts)
		for _, c := range d.Cases {
			if err := branch(start, end, c.Body, inner); err != nil {
				return ListPair{}, false, fmt.Errorf("switch %q case %q: %w", d.Name, c.Value, err)
			}
		}
		if len(d.Default) > 0 {
			if err := branch(start, end, d.Default, inner); err != nil {
				return ListPair{}, false, fmt.Errorf("switch %q default: %w", d.Name, err)
			}
		}
		return ListPair{Start: start, End: end}, true, nil

	case model.KindParallel:
		d := f.Parallel
		if len(d.Sections) == 0 {
			return ListPair{}, false, fmt.Errorf("parallel %q has no sections", d.Name)
		}
		inner := withScope(scopes, d.Name, d.Properties)
		start := nodes.NewParallelStart(d.Name, d.DataIns)
		end := nodes.NewParallelEnd(d.Name, d.DataOuts)
		for i, s := range d.Sections {
			if err := branch(start, end, s.Body, inner); err != nil {
				return ListPair{}, false, fmt.Errorf("parallel %q section %d: %w", d.Name, i, err)
			}
		}
		return ListPair{Start: start, End: end}, true, nil

	case model.KindParallelFor:
		d := f.ParallelFor
		start, end := nodes.NewParallelFor(d)
		if err := branch(start, end, d.Body, withScope(scopes, d.Name, d.Properties)); err != nil {
			return ListPair{}, false, fmt.Errorf("parallelFor %q: %w", d.Name, err)
		}
		return ListPair{Start: start, End: end}, true, nil

	case model.KindSequence:
		pair, ok, err := chain(f.Sequence.Body, withScope(scopes, f.Sequence.Name, nil))
		if err != nil {
			return ListPair{}, false, fmt.Errorf("sequence %q: %w", f.Sequence.Name, err)
		}
		return pair, ok, nil

	default:
		return ListPair{}, false, fmt.Errorf("body entry %q has no valid function kind", f.Name())
	}
}

func withScope(scopes []nodes.Scope, name string, props []model.Property) []nodes.Scope {
	return append(slices.Clone(scopes), nodes.Scope{Name: name, Properties: props})
}
