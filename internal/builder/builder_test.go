package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/nodes"
	"github.com/vk/choreo/internal/testutil"
)

func atomic(name string) model.Function {
	return model.Function{Atomic: &model.Atomic{Name: name, Type: "t"}}
}

func names(ns []nodes.Node) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name()
	}
	return out
}

func find(t *testing.T, g *Graph, name string) nodes.Node {
	t.Helper()
	for _, n := range g.Nodes() {
		if n.Name() == name {
			return n
		}
	}
	t.Fatalf("node %q not found", name)
	return nil
}

func TestBuild_Sequence(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Body: []model.Function{
			atomic("a"),
			{Sequence: &model.Sequence{Name: "seq", Body: []model.Function{atomic("b"), atomic("c")}}},
		},
	}

	g, err := Build(wf)
	require.NoError(t, err)

	assert.Equal(t, "wf", g.Start.Name())
	assert.Equal(t, "wfEnd", g.End.Name())
	assert.ElementsMatch(t, []string{"wf", "a", "b", "c", "wfEnd"}, names(g.Nodes()))
	assert.Equal(t, []string{"b"}, names(find(t, g, "a").Children()))
	assert.Equal(t, []string{"c"}, names(find(t, g, "b").Children()))
	assert.Equal(t, []string{"wfEnd"}, names(find(t, g, "c").Children()))
}

func TestBuild_Compounds(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Body: []model.Function{
			{IfThenElse: &model.IfThenElse{
				Name: "cond",
				Then: []model.Function{atomic("then1")},
			}},
			{Switch: &model.Switch{
				Name:  "sw",
				Cases: []model.Case{{Value: "1", Body: []model.Function{atomic("one")}}, {Value: "2"}},
			}},
			{Parallel: &model.Parallel{
				Name:     "par",
				Sections: []model.Section{{Body: []model.Function{atomic("p1")}}, {Body: []model.Function{atomic("p2")}}},
			}},
			{ParallelFor: &model.ParallelFor{
				Name:        "pf",
				LoopCounter: model.LoopCounter{Name: "i", From: "0", To: "3"},
				Body:        []model.Function{atomic("body")},
			}},
		},
	}

	g, err := Build(wf)
	require.NoError(t, err)
	assert.Len(t, g.Nodes(), 15)

	// Empty else wires the start straight to the end.
	assert.Equal(t, []string{"then1", "condEnd"}, names(find(t, g, "cond").Children()))
	assert.Equal(t, []string{"sw"}, names(find(t, g, "condEnd").Children()))

	// No default branch is added when Default is empty.
	assert.Equal(t, []string{"one", "swEnd"}, names(find(t, g, "sw").Children()))
	assert.Equal(t, []string{"p1", "p2"}, names(find(t, g, "par").Children()))
	assert.Len(t, find(t, g, "parEnd").Parents(), 2)
	assert.Equal(t, []string{"body"}, names(find(t, g, "pf").Children()))
	assert.Equal(t, []string{"pfEnd"}, names(find(t, g, "body").Children()))
	assert.Same(t, g.End, find(t, g, "pfEnd").Children()[0])
}

func TestBuild_SwitchDefault(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Body: []model.Function{{Switch: &model.Switch{
			Name:    "sw",
			Cases:   []model.Case{{Value: "1", Body: []model.Function{atomic("one")}}},
			Default: []model.Function{atomic("fallback")},
		}}},
	}

	g, err := Build(wf)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "fallback"}, names(find(t, g, "sw").Children()))
}

func TestBuild_Scopes(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Body: []model.Function{{Parallel: &model.Parallel{
			Name: "outer",
			Sections: []model.Section{{Body: []model.Function{
				{Sequence: &model.Sequence{Name: "inner", Body: []model.Function{atomic("f")}}},
			}}},
		}}},
	}

	g, err := Build(wf)
	require.NoError(t, err)
	fn, ok := find(t, g, "f").(*nodes.Function)
	require.True(t, ok)
	assert.Equal(t, "outer.inner.f", fn.Address().String())
}

func TestBuild_CompoundResourceReachesNestedFunction(t *testing.T) {
	wf := &model.Workflow{
		Name: "wf",
		Body: []model.Function{{Parallel: &model.Parallel{
			Name:       "par",
			Properties: []model.Property{{Name: model.PropertyResource, Value: "fn:shared"}},
			Sections: []model.Section{{Body: []model.Function{
				{IfThenElse: &model.IfThenElse{
					Name:      "cond",
					Condition: model.Condition{Terms: []model.Comparison{{Data1: "1", Data2: "1", Operator: "=="}}},
					Then:      []model.Function{atomic("f")},
				}},
			}}},
		}}},
	}

	g, err := Build(wf)
	require.NoError(t, err)

	ctx, _ := testutil.NewContext(t)
	inv := testutil.NewFakeInvoker().Respond("fn:shared", `{}`)
	g.Start.PassResult(nil, nodes.Values{})
	_, err = g.Start.Call(ctx, &nodes.Runtime{Invoker: inv})
	require.NoError(t, err)
	assert.Len(t, inv.CallsTo("fn:shared"), 1)
}

func TestBuild_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		wf   *model.Workflow
	}{
		{name: "duplicate names", wf: &model.Workflow{Name: "wf", Body: []model.Function{atomic("a"), atomic("a")}}},
		{name: "empty body", wf: &model.Workflow{Name: "wf"}},
		{name: "no variant", wf: &model.Workflow{Name: "wf", Body: []model.Function{{}}}},
		{name: "parallel without sections", wf: &model.Workflow{Name: "wf", Body: []model.Function{
			{Parallel: &model.Parallel{Name: "p"}},
		}}},
		{name: "only empty sequences", wf: &model.Workflow{Name: "wf", Body: []model.Function{
			{Sequence: &model.Sequence{Name: "s"}},
		}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.wf)
			assert.Error(t, err)
		})
	}
}
