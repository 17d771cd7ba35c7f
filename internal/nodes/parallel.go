package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/distribution"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/wferr"
)

// ParallelStart hands the same table to every child, runs them all
// concurrently and waits for them.
type ParallelStart struct {
	base
	compound string
	ins      []model.DataIn
}

// NewParallelStart creates the entry node of the parallel compound named
// compound.
func NewParallelStart(compound string, ins []model.DataIn) *ParallelStart {
	return &ParallelStart{base: base{name: compound}, compound: compound, ins: ins}
}

func (n *ParallelStart) Kind() Kind { return KindParallelStart }

func (n *ParallelStart) blank() Node {
	return &ParallelStart{base: base{name: n.name}, compound: n.compound, ins: n.ins}
}

func (n *ParallelStart) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.name, "kind", KindParallelStart.String())
	data := n.DataValues()
	published, err := publishInputs(n.compound, n.ins, data)
	if err != nil {
		return false, err
	}
	view := merged(data, published)
	n.setResult(view)

	children := n.Children()
	logger.Info("🚀 Fanning out", "branches", len(children))
	if err := fanOut(ctx, rt, n, children, view); err != nil {
		return false, err
	}
	return true, nil
}

// ParallelEnd is a counting barrier over its parents. Arriving tables are
// merged by key; the last arrival computes the declared outputs and runs
// the children.
type ParallelEnd struct {
	base
	compound    string
	outs        []model.DataOut
	waitCounter int
	fired       bool
}

// NewParallelEnd creates the exit node of the parallel compound named
// compound.
func NewParallelEnd(compound string, outs []model.DataOut) *ParallelEnd {
	return &ParallelEnd{base: base{name: compound + "End"}, compound: compound, outs: outs}
}

func (n *ParallelEnd) Kind() Kind { return KindParallelEnd }

func (n *ParallelEnd) blank() Node {
	return &ParallelEnd{base: base{name: n.name}, compound: n.compound, outs: n.outs}
}

func (n *ParallelEnd) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.name, "kind", KindParallelEnd.String())

	n.mu.Lock()
	n.waitCounter++
	arrived, expected := n.waitCounter, len(n.parents)
	if arrived < expected || n.fired {
		n.mu.Unlock()
		logger.Debug("Barrier arrival.", "arrived", arrived, "expected", expected)
		return false, nil
	}
	n.fired = true
	data := n.data.Clone()
	n.mu.Unlock()

	logger.Debug("Barrier released.", "arrived", arrived)
	out, err := aggregate(n.compound, n.outs, data)
	if err != nil {
		return false, err
	}
	result := merged(data, out)
	n.setResult(result)
	if err := propagate(ctx, rt, n, result); err != nil {
		return false, err
	}
	return true, nil
}

// aggregate computes the outputs of a keyed join. "+" concatenates the
// collections of all sources into one flat collection; "," or no
// aggregation passes a single source through or maps several sources to
// their values.
func aggregate(compound string, outs []model.DataOut, data Values) (Values, error) {
	out := make(Values, len(outs))
	for _, o := range outs {
		key := compound + "/" + o.Name
		agg, _ := o.Constraint(model.ConstraintAggregation)
		sources := o.Sources()

		switch strings.TrimSpace(agg) {
		case "+":
			flat := make([]any, 0)
			for _, src := range sources {
				v, ok := data[src]
				if !ok {
					continue
				}
				flat = appendFlattened(flat, v)
			}
			out[key] = flat
		case "", ",":
			if len(sources) == 1 {
				if v, ok := data[sources[0]]; ok {
					out[key] = v
				}
				continue
			}
			keyed := make(map[string]any, len(sources))
			for _, src := range sources {
				if v, ok := data[src]; ok {
					keyed[src] = v
				}
			}
			if len(keyed) > 0 {
				out[key] = keyed
			}
		default:
			return nil, wferr.Unimplemented(compound, fmt.Sprintf("aggregation %q", agg))
		}
	}
	return out, nil
}

func appendFlattened(dst []any, v any) []any {
	if c, err := distribution.AsCollection(v); err == nil {
		return append(dst, c...)
	}
	return append(dst, v)
}
