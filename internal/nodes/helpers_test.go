package nodes

import (
	"github.com/vk/choreo/internal/model"
)

func fn(name, resource string, ins []model.DataIn, outs []model.DataOut) *Function {
	return scopedFn(name, resource, nil, ins, outs)
}

func scopedFn(name, resource string, scopes []string, ins []model.DataIn, outs []model.DataOut) *Function {
	desc := &model.Atomic{Name: name, Type: "test", DataIns: ins, DataOuts: outs}
	if resource != "" {
		desc.Properties = []model.Property{{Name: model.PropertyResource, Value: resource}}
	}
	return NewFunction(desc, scopesOf(scopes...))
}

func scopesOf(names ...string) []Scope {
	out := make([]Scope, len(names))
	for i, n := range names {
		out[i] = Scope{Name: n}
	}
	return out
}

func in(name, source string) model.DataIn {
	return model.DataIn{Name: name, Source: source}
}

func out(name, typ string) model.DataOut {
	return model.DataOut{Name: name, Type: typ}
}

func outFrom(name, typ, source string) model.DataOut {
	return model.DataOut{Name: name, Type: typ, Source: source}
}
