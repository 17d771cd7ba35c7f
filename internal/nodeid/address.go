package nodeid

import (
	"fmt"
	"slices"
	"strings"
)

// String serializes the Address into its canonical path form.
func (a *Address) String() string {
	if a == nil {
		return ""
	}

	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteString(fmt.Sprintf("[%d]", segment.Index))
		}
	}

	return sb.String()
}

// Equal checks for deep equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.Path, other.Path)
}

// Name returns the last segment's name.
func (a *Address) Name() string {
	if a == nil || len(a.Path) == 0 {
		return ""
	}
	return a.Path[len(a.Path)-1].Name
}

// Scopes returns the names of the enclosing segments, outermost first.
func (a *Address) Scopes() []string {
	if a == nil || len(a.Path) < 2 {
		return nil
	}
	out := make([]string, len(a.Path)-1)
	for i, s := range a.Path[:len(a.Path)-1] {
		out[i] = s.Name
	}
	return out
}

// WithIndex returns a copy whose segment named scope carries index. The
// address is returned unchanged when no segment has that name.
func (a *Address) WithIndex(scope string, index int) *Address {
	if a == nil {
		return nil
	}
	cp := &Address{Path: slices.Clone(a.Path)}
	for i := len(cp.Path) - 1; i >= 0; i-- {
		if cp.Path[i].Name == scope {
			cp.Path[i].Index = index
			break
		}
	}
	return cp
}

// Candidates lists lookup keys from the most to the least specific scope.
// For `a.b.f` it yields `a.b.f`, `a.f`, `f`. Indices are dropped.
func (a *Address) Candidates() []string {
	if a == nil || len(a.Path) == 0 {
		return nil
	}
	scopes := a.Scopes()
	name := a.Name()
	out := make([]string, 0, len(scopes)+1)
	for depth := len(scopes); depth >= 0; depth-- {
		parts := append(slices.Clone(scopes[:depth]), name)
		out = append(out, strings.Join(parts, "."))
	}
	return out
}
