package invoker

import (
	"github.com/vk/choreo/internal/nodeid"
)

// Resource is a remote function declaration.
type Resource struct {
	ID     string
	Memory int
}

// StaticResolver resolves resources from a fixed table keyed by scoped
// addresses such as "pf.f2" or plain function names.
type StaticResolver struct {
	resources map[string]Resource
}

// NewStaticResolver copies resources into a new resolver.
func NewStaticResolver(resources map[string]Resource) *StaticResolver {
	r := &StaticResolver{resources: make(map[string]Resource, len(resources))}
	for k, v := range resources {
		r.resources[k] = v
	}
	return r
}

// Resolve looks name up from its innermost scope outward.
func (r *StaticResolver) Resolve(name string, scopes []string) (Resource, bool) {
	for _, key := range nodeid.New(scopes, name).Candidates() {
		if res, ok := r.resources[key]; ok {
			return res, true
		}
	}
	return Resource{}, false
}
