package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/ctyconv"
	"github.com/vk/choreo/internal/distribution"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/wferr"
	"golang.org/x/sync/errgroup"
)

// ParallelForStart replicates its body once per loop-counter value and runs
// the replicas concurrently. Its single child is the entry of the wired
// body, or its ParallelForEnd when the body is empty.
type ParallelForStart struct {
	base
	desc *model.ParallelFor
	end  *ParallelForEnd
}

// NewParallelFor creates the entry and exit nodes of desc.
func NewParallelFor(desc *model.ParallelFor) (*ParallelForStart, *ParallelForEnd) {
	end := &ParallelForEnd{base: base{name: desc.Name + "End"}, compound: desc.Name, outs: desc.DataOuts}
	start := &ParallelForStart{base: base{name: desc.Name}, desc: desc, end: end}
	return start, end
}

func (n *ParallelForStart) Kind() Kind { return KindParallelForStart }

// End returns the join node all replicas report to.
func (n *ParallelForStart) End() *ParallelForEnd { return n.end }

func (n *ParallelForStart) blank() Node {
	return &ParallelForStart{base: base{name: n.name}, desc: n.desc, end: n.end}
}

func (n *ParallelForStart) rebind(memo map[Node]Node) {
	if c, ok := memo[n.end]; ok {
		n.end = c.(*ParallelForEnd)
	}
}

// iterations counts the counter values in [from, to) stepping by step. The
// span is taken in uint64 so extreme bounds cannot wrap, and counts above
// limit are rejected before any branch table is allocated.
func iterations(from, to, step, limit int) (int, error) {
	if to <= from {
		return 0, nil
	}
	span := uint64(to) - uint64(from)
	count := (span-1)/uint64(step) + 1
	if count > uint64(limit) {
		return 0, fmt.Errorf("loop over [%d, %d) step %d has %d iterations, limit is %d", from, to, step, count, limit)
	}
	return int(count), nil
}

func (n *ParallelForStart) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.name, "kind", KindParallelForStart.String())
	children := n.Children()
	if len(children) != 1 {
		return false, fmt.Errorf("parallel-for node %q must have one body, has %d", n.name, len(children))
	}
	body := children[0]

	data := n.DataValues()
	broadcast := make(Values, len(n.desc.DataIns))
	var distributed []model.DataIn
	for _, in := range n.desc.DataIns {
		v, ok := data[in.Source]
		if !ok {
			return false, wferr.MissingInput(n.name, in.Source)
		}
		if _, has := in.Constraint(model.ConstraintDistribution); has && !in.Passing {
			distributed = append(distributed, in)
			continue
		}
		broadcast[n.name+"/"+in.Name] = v
	}
	inherited := merged(data, broadcast)

	lc := n.desc.LoopCounter
	from, err := n.bound(inherited, lc.From, "from", 0)
	if err != nil {
		return false, err
	}
	to, err := n.bound(inherited, lc.To, "to", 0)
	if err != nil {
		return false, err
	}
	step, err := n.bound(inherited, lc.Step, "step", 1)
	if err != nil {
		return false, err
	}
	if step <= 0 {
		return false, wferr.Parse(n.name, "step", fmt.Errorf("step must be positive, got %d", step))
	}
	count, err := iterations(from, to, step, rt.iterationLimit())
	if err != nil {
		return false, wferr.Parse(n.name, "to", err)
	}

	tables := make([]Values, count)
	for i := range tables {
		t := inherited.Clone()
		if lc.Name != "" {
			t[n.name+"/"+lc.Name] = from + i*step
		}
		tables[i] = t
	}
	for _, in := range distributed {
		if err := n.distribute(logger, in, data[in.Source], tables); err != nil {
			return false, err
		}
	}

	emptyBody := body == n.end
	entries := make([]Node, count)
	branchOf := make(map[Node]int)
	if !emptyBody && count > 0 {
		for _, p := range n.end.Parents() {
			branchOf[p] = 0
		}
		entries[0] = body
		for i := 1; i < count; i++ {
			r := cloneSubgraph(body, n.end)
			r.entry.AddParent(n)
			for _, exit := range r.exits {
				n.end.AddParent(exit)
				branchOf[exit] = i
			}
			entries[i] = r.entry
		}
		for i, entry := range entries {
			stampLoopCounter(entry, n.end, n.name, from+i*step)
		}
	}
	n.end.prepare(count, inherited, branchOf)
	n.setResult(inherited)

	if count == 0 {
		logger.Info("Loop has no iterations.", "from", from, "to", to, "step", step)
		if err := n.end.complete(ctx, rt, inherited, nil); err != nil {
			return false, err
		}
		return true, nil
	}

	logger.Info("🚀 Fanning out", "branches", count, "from", from, "to", to, "step", step)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.branchLimit())
	for i := range count {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if emptyBody {
				n.end.deliver(i, tables[i])
				_, err := n.end.Call(gctx, rt)
				return err
			}
			return run(gctx, rt, n, entries[i], tables[i])
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return true, nil
}

// bound reads a loop bound that is either an integer literal or a data key.
func (n *ParallelForStart) bound(view Values, raw, which string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if which == "step" {
			return def, nil
		}
		return 0, wferr.MissingInput(n.name, which)
	}
	i, err := ctyconv.ToInt(raw)
	if err == nil {
		return i, nil
	}
	if _, numErr := ctyconv.ToFloat(raw); numErr == nil {
		// Numeric literal that is fractional or outside the int range.
		return 0, wferr.Parse(n.name, which, err)
	}
	v, ok := view[raw]
	if !ok {
		return 0, wferr.MissingInput(n.name, raw)
	}
	i, err = ctyconv.ToInt(v)
	if err != nil {
		return 0, wferr.Parse(n.name, raw, err)
	}
	return i, nil
}

// distribute splits the collection bound to in across the branch tables.
// Branch i receives block i; branches past the last block get an empty
// collection.
func (n *ParallelForStart) distribute(logger *slog.Logger, in model.DataIn, value any, tables []Values) error {
	raw, _ := in.Constraint(model.ConstraintDistribution)
	plan, err := distribution.Parse(raw)
	if err != nil {
		var unsupported *distribution.ErrUnsupported
		if errors.As(err, &unsupported) {
			return wferr.Unimplemented(n.name, fmt.Sprintf("distribution %q", raw))
		}
		return wferr.Parse(n.name, in.Source, err)
	}

	collection, err := distribution.AsCollection(value)
	if err != nil {
		return wferr.Parse(n.name, in.Source, err)
	}
	blocks := distribution.Blocks(collection, plan.Size)
	if len(blocks) > len(tables) {
		logger.Warn("Collection has more blocks than branches; extra blocks are not processed.",
			"input", in.Name, "blocks", len(blocks), "branches", len(tables))
	}

	key := n.name + "/" + in.Name
	for i, t := range tables {
		if i >= len(blocks) {
			t[key] = []any{}
			continue
		}
		v, err := distribution.Degrade(blocks[i], in.Type)
		if err != nil {
			return wferr.Parse(n.name, in.Source, err)
		}
		t[key] = v
	}
	return nil
}

// ParallelForEnd is a counting barrier over the replicas of a parallel-for
// body. Collection outputs collect one value per branch in branch order;
// other outputs take the value of the lowest branch that produced one.
type ParallelForEnd struct {
	base
	compound  string
	outs      []model.DataOut
	expected  int
	received  int
	fired     bool
	branchOf  map[Node]int
	branches  []Values
	inherited Values
}

func (n *ParallelForEnd) Kind() Kind { return KindParallelForEnd }

func (n *ParallelForEnd) blank() Node {
	return &ParallelForEnd{base: base{name: n.name}, compound: n.compound, outs: n.outs}
}

// prepare arms the barrier for count branches before any branch starts.
func (n *ParallelForEnd) prepare(count int, inherited Values, branchOf map[Node]int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expected = count
	n.received = 0
	n.fired = false
	n.branchOf = branchOf
	n.branches = make([]Values, count)
	n.inherited = inherited
}

// BranchCount is the number of branches the barrier waits for.
func (n *ParallelForEnd) BranchCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.expected
}

// PassResult stores in as the table of the branch from belongs to.
func (n *ParallelForEnd) PassResult(from Node, in Values) {
	n.mu.Lock()
	idx, ok := n.branchOf[from]
	n.mu.Unlock()
	if !ok {
		n.base.PassResult(from, in)
		return
	}
	n.deliver(idx, in)
}

func (n *ParallelForEnd) deliver(idx int, in Values) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if idx < 0 || idx >= len(n.branches) {
		return
	}
	if n.branches[idx] == nil {
		n.branches[idx] = make(Values, len(in))
	}
	maps.Copy(n.branches[idx], in)
}

func (n *ParallelForEnd) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.name, "kind", KindParallelForEnd.String())

	n.mu.Lock()
	n.received++
	arrived, expected := n.received, n.expected
	if arrived < expected || n.fired {
		n.mu.Unlock()
		logger.Debug("Barrier arrival.", "arrived", arrived, "expected", expected)
		return false, nil
	}
	n.fired = true
	branches := append([]Values(nil), n.branches...)
	inherited := n.inherited
	n.mu.Unlock()

	logger.Debug("Barrier released.", "arrived", arrived)
	if err := n.complete(ctx, rt, inherited, branches); err != nil {
		return false, err
	}
	return true, nil
}

// complete computes the outputs from the branch tables and runs the
// children.
func (n *ParallelForEnd) complete(ctx context.Context, rt *Runtime, inherited Values, branches []Values) error {
	out := make(Values, len(n.outs))
	for _, o := range n.outs {
		key := n.compound + "/" + o.Name
		agg, _ := o.Constraint(model.ConstraintAggregation)
		agg = strings.TrimSpace(agg)
		if agg != "" && agg != "+" && agg != "," {
			return wferr.Unimplemented(n.compound, fmt.Sprintf("aggregation %q", agg))
		}
		sources := o.Sources()

		if o.Type == model.TypeCollection {
			collected := make([]any, 0, len(branches))
			for _, b := range branches {
				v, ok := firstPresent(b, sources)
				if !ok {
					continue
				}
				if agg == "+" {
					collected = appendFlattened(collected, v)
				} else {
					collected = append(collected, v)
				}
			}
			out[key] = collected
			continue
		}
		for _, b := range branches {
			if v, ok := firstPresent(b, sources); ok {
				out[key] = v
				break
			}
		}
	}

	result := merged(inherited, out)
	n.setResult(result)
	return propagate(ctx, rt, n, result)
}

func firstPresent(table Values, sources []string) (any, bool) {
	for _, src := range sources {
		if v, ok := table[src]; ok {
			return v, true
		}
	}
	return nil, false
}
