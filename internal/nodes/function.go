package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/vk/choreo/internal/ctxlog"
	"github.com/vk/choreo/internal/ctyconv"
	"github.com/vk/choreo/internal/invoker"
	"github.com/vk/choreo/internal/logsink"
	"github.com/vk/choreo/internal/model"
	"github.com/vk/choreo/internal/nodeid"
	"github.com/vk/choreo/internal/wferr"
)

// errorField marks a response as an error payload.
const errorField = "error"

// Scope is one compound enclosing a function, with the properties it
// declares.
type Scope struct {
	Name       string
	Properties []model.Property
}

// Function is a leaf node that invokes one remote serverless function.
type Function struct {
	base
	desc        *model.Atomic
	scopes      []string
	enclosing   []Scope
	addr        *nodeid.Address
	loopCounter int
}

// NewFunction creates the node for desc. scopes are the compounds
// enclosing the function, outermost first.
func NewFunction(desc *model.Atomic, scopes []Scope) *Function {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = s.Name
	}
	return &Function{
		base:        base{name: desc.Name},
		desc:        desc,
		scopes:      names,
		enclosing:   slices.Clone(scopes),
		addr:        nodeid.New(names, desc.Name),
		loopCounter: -1,
	}
}

func (f *Function) Kind() Kind { return KindFunction }

// Address is the scoped name of the function. Inside parallel-for replicas
// the loop segments carry the branch counter, e.g. "pf[2].f2".
func (f *Function) Address() *nodeid.Address { return f.addr }

// LoopCounter is the parallel-for counter value of the replica this node
// belongs to, or -1 outside any parallel-for.
func (f *Function) LoopCounter() int { return f.loopCounter }

func (f *Function) blank() Node {
	return &Function{
		base:        base{name: f.name},
		desc:        f.desc,
		scopes:      f.scopes,
		enclosing:   f.enclosing,
		addr:        f.addr,
		loopCounter: f.loopCounter,
	}
}

func (f *Function) setLoopCounter(loop string, counter int) {
	f.loopCounter = counter
	f.addr = f.addr.WithIndex(loop, counter)
}

// Call resolves inputs, invokes the function, maps its response onto the
// declared outputs and runs the children.
func (f *Function) Call(ctx context.Context, rt *Runtime) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("node", f.name, "kind", KindFunction.String())
	if f.loopCounter >= 0 {
		logger = logger.With("loop_counter", f.loopCounter, "address", f.addr.String())
	}

	data := f.DataValues()
	out := make(Values, len(f.desc.DataOuts))
	actual := make(map[string]any, len(f.desc.DataIns))
	for _, in := range f.desc.DataIns {
		v, ok := data[in.Source]
		if !ok {
			return false, wferr.MissingInput(f.name, in.Source)
		}
		if in.Passing {
			out[f.name+"/"+in.Name] = v
			continue
		}
		actual[in.Name] = v
	}

	res, err := f.resource(rt)
	if err != nil {
		return false, err
	}
	if rt.Invoker == nil {
		return false, wferr.Invocation(f.name, errors.New("no function invoker configured"))
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	logger.Info("▶️ Invoking function", "resource", res.ID)
	seq := rt.invocations.Add(1)
	start := time.Now()
	body, rtt, err := rt.Invoker.Invoke(ctx, res.ID, actual)
	end := time.Now()
	if err != nil {
		f.record(ctx, logger, rt, res, body, start, end, rtt, false, seq)
		return false, wferr.Invocation(f.name, err)
	}

	success, err := f.parseOutputs(logger, body, out)
	f.record(ctx, logger, rt, res, body, start, end, rtt, success && err == nil, seq)
	if err != nil {
		return false, err
	}

	result := merged(data, out)
	f.setResult(result)
	logger.Info("✅ Function finished", "duration", end.Sub(start), "success", success)

	if err := propagate(ctx, rt, f, result); err != nil {
		return false, err
	}
	return true, nil
}

// resource prefers the function's own declaration, then a resource
// property on the enclosing compounds from the innermost outward, and
// finally the resolver.
func (f *Function) resource(rt *Runtime) (invoker.Resource, error) {
	res := invoker.Resource{ID: f.desc.Resource()}
	if m, ok := model.Lookup(f.desc.Properties, model.PropertyMemory); ok {
		res.Memory, _ = ctyconv.ToInt(m)
	}
	if res.ID != "" {
		return res, nil
	}
	for i := len(f.enclosing) - 1; i >= 0; i-- {
		props := f.enclosing[i].Properties
		id, ok := model.Lookup(props, model.PropertyResource)
		if !ok || id == "" {
			continue
		}
		res.ID = id
		if res.Memory == 0 {
			if m, ok := model.Lookup(props, model.PropertyMemory); ok {
				res.Memory, _ = ctyconv.ToInt(m)
			}
		}
		return res, nil
	}
	if rt.Resolver != nil {
		if r, ok := rt.Resolver.Resolve(f.name, f.scopes); ok && r.ID != "" {
			if r.Memory == 0 {
				r.Memory = res.Memory
			}
			return r, nil
		}
	}
	return res, wferr.Invocation(f.name, fmt.Errorf("no resource declared for %s", f.Address()))
}

// parseOutputs writes every declared output found in body into out. A
// missing or mistyped output is logged and skipped, and reported through
// the success flag. A response carrying an error marker fails the node.
func (f *Function) parseOutputs(logger *slog.Logger, body string, out Values) (bool, error) {
	fields, err := ctyconv.ParseObject(body)
	if err != nil {
		if len(f.desc.DataOuts) == 0 {
			return true, nil
		}
		return false, wferr.Parse(f.name, "", err)
	}
	if marker, ok := fields[errorField]; ok && !f.declaresOutput(errorField) {
		return false, wferr.Parse(f.name, errorField, fmt.Errorf("function returned an error: %v", marker))
	}

	success := true
	for _, o := range f.desc.DataOuts {
		raw, ok := fields[o.Name]
		if !ok {
			logger.Warn("Output missing from response.", "output", o.Name)
			success = false
			continue
		}
		key := f.name + "/" + o.Name
		if o.Type == "" {
			out[key] = raw
			continue
		}
		v, err := ctyconv.Coerce(raw, o.Type)
		if err != nil {
			logger.Warn("Could not parse output.", "output", o.Name, "type", o.Type, "error", wferr.Parse(f.name, o.Name, err))
			success = false
			continue
		}
		out[key] = v
	}
	return success, nil
}

func (f *Function) declaresOutput(name string) bool {
	for _, o := range f.desc.DataOuts {
		if o.Name == name {
			return true
		}
	}
	return false
}

func (f *Function) record(ctx context.Context, logger *slog.Logger, rt *Runtime, res invoker.Resource, body string, start, end time.Time, rtt int64, success bool, seq int64) {
	if rt.ExecutionID == "" || rt.Sink == nil {
		return
	}
	provider, region := invoker.DetectProvider(res.ID)
	ev := logsink.Event{
		ExecutionID: rt.ExecutionID,
		Workflow:    rt.Workflow,
		Node:        f.name,
		Type:        f.desc.Type,
		Resource:    res.ID,
		Provider:    provider,
		Region:      region,
		Result:      body,
		Start:       start,
		End:         end,
		RTTMillis:   rtt,
		Success:     success,
		Memory:      res.Memory,
		LoopCounter: f.loopCounter,
		Sequence:    seq,
	}
	if err := rt.Sink.Record(ctx, ev); err != nil {
		logger.Warn("Failed to record invocation event.", "error", err)
	}
}
