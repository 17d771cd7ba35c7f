package nodeid

// PathSegment is one component of an address, e.g. `name` or `name[index]`.
type PathSegment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewPathSegment creates a path segment without an index.
func NewPathSegment(name string) PathSegment {
	return PathSegment{Name: name, Index: -1}
}

// NewPathSegmentWithIndex creates a path segment for one branch replica.
func NewPathSegmentWithIndex(name string, index int) PathSegment {
	return PathSegment{Name: name, Index: index}
}

// HasIndex reports whether the segment carries a branch index.
func (ps PathSegment) HasIndex() bool {
	return ps.Index != -1
}

// Address is the structured form of a scoped function name.
type Address struct {
	Path []PathSegment
}

// New builds the address of name nested in scopes, outermost first.
func New(scopes []string, name string) *Address {
	addr := &Address{Path: make([]PathSegment, 0, len(scopes)+1)}
	for _, s := range scopes {
		addr.Path = append(addr.Path, NewPathSegment(s))
	}
	addr.Path = append(addr.Path, NewPathSegment(name))
	return addr
}
