package nodes

import (
	"context"
	"maps"
	"sync"
)

// Kind identifies a node variant.
type Kind int

const (
	KindFunction Kind = iota + 1
	KindIfStart
	KindIfEnd
	KindSwitchStart
	KindSwitchEnd
	KindParallelStart
	KindParallelEnd
	KindParallelForStart
	KindParallelForEnd
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindIfStart:
		return "ifStart"
	case KindIfEnd:
		return "ifEnd"
	case KindSwitchStart:
		return "switchStart"
	case KindSwitchEnd:
		return "switchEnd"
	case KindParallelStart:
		return "parallelStart"
	case KindParallelEnd:
		return "parallelEnd"
	case KindParallelForStart:
		return "parallelForStart"
	case KindParallelForEnd:
		return "parallelForEnd"
	default:
		return "unknown"
	}
}

// Values maps "<node>/<name>" keys to data values.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	return out
}

func merged(a, b Values) Values {
	out := make(Values, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

// Node is a unit of execution in the workflow graph.
type Node interface {
	Name() string
	Kind() Kind
	Children() []Node
	Parents() []Node
	AddChild(child Node)
	AddParent(parent Node)

	// PassResult merges in into the node's data table. from is the parent
	// delivering the values.
	PassResult(from Node, in Values)
	// Call runs the node and, on completion, its descendants. Join nodes
	// return false until their last parent arrives.
	Call(ctx context.Context, rt *Runtime) (bool, error)
	// Result is the table produced by the last completed Call.
	Result() Values
	// DataValues is a copy of the node's current data table.
	DataValues() Values

	blank() Node
	rebind(memo map[Node]Node)
	setLoopCounter(loop string, counter int)
}

// base carries the state shared by every node variant. mu guards data,
// result and the edge slices.
type base struct {
	name     string
	mu       sync.Mutex
	children []Node
	parents  []Node
	data     Values
	result   Values
}

func (b *base) Name() string { return b.name }

func (b *base) Children() []Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Node(nil), b.children...)
}

func (b *base) Parents() []Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Node(nil), b.parents...)
}

func (b *base) AddChild(child Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.children = append(b.children, child)
}

func (b *base) AddParent(parent Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parents = append(b.parents, parent)
}

func (b *base) PassResult(_ Node, in Values) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make(Values, len(in))
	}
	maps.Copy(b.data, in)
}

func (b *base) Result() Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		return nil
	}
	return b.result.Clone()
}

func (b *base) DataValues() Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data.Clone()
}

func (b *base) setResult(v Values) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.result = v
}

func (b *base) parentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.parents)
}

func (b *base) rebind(map[Node]Node) {}

func (b *base) setLoopCounter(string, int) {}

// Link wires child below parent.
func Link(parent, child Node) {
	parent.AddChild(child)
	child.AddParent(parent)
}

// Walk visits every node reachable from start exactly once, depth first.
func Walk(start Node, visit func(Node)) {
	seen := make(map[Node]struct{})
	var walk func(n Node)
	walk = func(n Node) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		visit(n)
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(start)
}
