package nodes

import (
	"context"
	"fmt"

	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/model"
)

// IfStart evaluates a condition and runs exactly one of its two children:
// the then-branch entry first, the else-branch entry second.
type IfStart struct {
	base
	desc *model.IfThenElse
}

// NewIfStart creates the entry node of desc.
func NewIfStart(desc *model.IfThenElse) *IfStart {
	return &IfStart{base: base{name: desc.Name}, desc: desc}
}

func (n *IfStart) Kind() Kind { return KindIfStart }

func (n *IfStart) blank() Node {
	return &IfStart{base: base{name: n.name}, desc: n.desc}
}

func (n *IfStart) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.name, "kind", KindIfStart.String())
	children := n.Children()
	if len(children) != 2 {
		return false, fmt.Errorf("if node %q must have two branches, has %d", n.name, len(children))
	}

	data := n.DataValues()
	published, err := publishInputs(n.name, n.desc.DataIns, data)
	if err != nil {
		return false, err
	}
	view := merged(data, published)

	ok, err := evalCondition(n.name, n.desc.Condition, view)
	if err != nil {
		return false, err
	}
	branch, label := 1, "else"
	if ok {
		branch, label = 0, "then"
	}
	logger.Info("🔀 Branch selected", "branch", label)

	n.setResult(view)
	if err := run(ctx, rt, n, children[branch], view); err != nil {
		return false, err
	}
	return true, nil
}

// IfEnd republishes the outputs of whichever branch ran under the if
// node's name. Only one parent ever fires, so it needs no barrier.
type IfEnd struct {
	base
	compound string
	outs     []model.DataOut
}

// NewIfEnd creates the exit node of the if compound named compound.
func NewIfEnd(compound string, outs []model.DataOut) *IfEnd {
	return &IfEnd{base: base{name: compound + "End"}, compound: compound, outs: outs}
}

func (n *IfEnd) Kind() Kind { return KindIfEnd }

func (n *IfEnd) blank() Node {
	return &IfEnd{base: base{name: n.name}, compound: n.compound, outs: n.outs}
}

func (n *IfEnd) Call(ctx context.Context, rt *Runtime) (bool, error) {
	return republishAndContinue(ctx, rt, &n.base, n, n.compound, n.outs, false)
}

// republishAndContinue maps the first present source alternative of each
// declared output to "<compound>/<name>", then runs the children. With
// allowNull, an output with no present source but a "NULL" alternative is
// emitted as the literal "NULL".
func republishAndContinue(ctx context.Context, rt *Runtime, b *base, self Node, compound string, outs []model.DataOut, allowNull bool) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", b.name, "kind", self.Kind().String())
	data := self.DataValues()
	out := make(Values, len(outs))
	for _, o := range outs {
		key := compound + "/" + o.Name
		found, null := false, false
		for _, src := range o.Sources() {
			if src == model.NullSource {
				null = true
				continue
			}
			if v, ok := data[src]; ok {
				out[key] = v
				found = true
				break
			}
		}
		if !found {
			if allowNull && null {
				out[key] = model.NullSource
				continue
			}
			logger.Debug("No branch produced output.", "output", o.Name, "source", o.Source)
		}
	}

	result := merged(data, out)
	b.setResult(result)
	if err := propagate(ctx, rt, self, result); err != nil {
		return false, err
	}
	return true, nil
}
