package nodes

import (
	"context"

	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/wferr"
	"golang.org/x/sync/errgroup"
)

// propagate hands out to every child of from and runs them.
func propagate(ctx context.Context, rt *Runtime, from Node, out Values) error {
	children := from.Children()
	switch len(children) {
	case 0:
		return nil
	case 1:
		return run(ctx, rt, from, children[0], out)
	default:
		return fanOut(ctx, rt, from, children, out)
	}
}

func run(ctx context.Context, rt *Runtime, from, child Node, in Values) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	child.PassResult(from, in)
	_, err := child.Call(ctx, rt)
	return err
}

// fanOut runs every child concurrently and waits for all of them. The first
// error cancels the siblings and is returned.
func fanOut(ctx context.Context, rt *Runtime, from Node, children []Node, in Values) error {
	if len(children) == 0 {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Dispatching branches.", "node", from.Name(), "branches", len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.branchLimit())
	for _, child := range children {
		g.Go(func() error {
			return run(gctx, rt, from, child, in)
		})
	}
	return g.Wait()
}

// publishInputs resolves a compound's declared inputs from data and
// republishes them under "<compound>/<name>".
func publishInputs(compound string, ins []model.DataIn, data Values) (Values, error) {
	out := make(Values, len(ins))
	for _, in := range ins {
		v, ok := data[in.Source]
		if !ok {
			return nil, wferr.MissingInput(compound, in.Source)
		}
		out[compound+"/"+in.Name] = v
	}
	return out, nil
}
