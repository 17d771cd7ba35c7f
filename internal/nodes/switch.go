package nodes

import (
	"context"
	"fmt"

	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/ctyconv"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/wferr"
)

// SwitchStart runs the child of the first case whose label matches the
// discriminant. Children are the case entries in order, followed by the
// default entry when the switch has one.
type SwitchStart struct {
	base
	desc *model.Switch
}

// NewSwitchStart creates the entry node of desc.
func NewSwitchStart(desc *model.Switch) *SwitchStart {
	return &SwitchStart{base: base{name: desc.Name}, desc: desc}
}

func (n *SwitchStart) Kind() Kind { return KindSwitchStart }

func (n *SwitchStart) blank() Node {
	return &SwitchStart{base: base{name: n.name}, desc: n.desc}
}

func (n *SwitchStart) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.name, "kind", KindSwitchStart.String())
	children := n.Children()
	if len(children) < len(n.desc.Cases) {
		return false, fmt.Errorf("switch node %q has %d cases but %d branches", n.name, len(n.desc.Cases), len(children))
	}

	data := n.DataValues()
	published, err := publishInputs(n.name, n.desc.DataIns, data)
	if err != nil {
		return false, err
	}
	view := merged(data, published)

	value, ok := view[n.desc.DataEval.Source]
	if !ok {
		return false, wferr.MissingInput(n.name, n.desc.DataEval.Source)
	}

	branch := -1
	for i, c := range n.desc.Cases {
		if caseMatches(value, c.Value, n.desc.DataEval.Type) {
			branch = i
			break
		}
	}
	switch {
	case branch >= 0:
		logger.Info("🔀 Branch selected", "case", n.desc.Cases[branch].Value)
	case len(children) > len(n.desc.Cases):
		branch = len(n.desc.Cases)
		logger.Info("🔀 Branch selected", "case", "default")
	default:
		return false, wferr.NoSwitchCase(n.name, value)
	}

	n.setResult(view)
	if err := run(ctx, rt, n, children[branch], view); err != nil {
		return false, err
	}
	return true, nil
}

// caseMatches compares numerically for number discriminants and as text
// otherwise.
func caseMatches(value any, label, typ string) bool {
	if typ == model.TypeNumber {
		a, errA := ctyconv.ToFloat(value)
		b, errB := ctyconv.ToFloat(label)
		return errA == nil && errB == nil && a == b
	}
	return ctyconv.Text(value) == label
}

// SwitchEnd republishes the outputs of the case that ran.
type SwitchEnd struct {
	base
	compound string
	outs     []model.DataOut
}

// NewSwitchEnd creates the exit node of the switch compound named compound.
func NewSwitchEnd(compound string, outs []model.DataOut) *SwitchEnd {
	return &SwitchEnd{base: base{name: compound + "End"}, compound: compound, outs: outs}
}

func (n *SwitchEnd) Kind() Kind { return KindSwitchEnd }

func (n *SwitchEnd) blank() Node {
	return &SwitchEnd{base: base{name: n.name}, compound: n.compound, outs: n.outs}
}

func (n *SwitchEnd) Call(ctx context.Context, rt *Runtime) (bool, error) {
	return republishAndContinue(ctx, rt, &n.base, n, n.compound, n.outs, true)
}
