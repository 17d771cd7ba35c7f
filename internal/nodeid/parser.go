package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches one segment: a function or compound name, optionally
// followed by a branch index, e.g. `pf[2]`.
var segmentRegex = regexp.MustCompile(`^([A-Za-z0-9_-]+)(?:\[(\d+)\])?$`)

// Parse reads an address such as `outer.pf[2].f1`.
func Parse(raw string) (*Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	parts := strings.Split(raw, ".")
	addr := &Address{Path: make([]PathSegment, 0, len(parts))}
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", raw, err)
		}
		addr.Path = append(addr.Path, seg)
	}
	return addr, nil
}

func parseSegment(s string) (PathSegment, error) {
	if s == "" {
		return PathSegment{}, fmt.Errorf("empty segment")
	}
	m := segmentRegex.FindStringSubmatch(s)
	if m == nil || m[1] == "-" {
		return PathSegment{}, fmt.Errorf("invalid segment %q", s)
	}
	if m[2] == "" {
		return NewPathSegment(m[1]), nil
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return PathSegment{}, fmt.Errorf("invalid index in %q: %w", s, err)
	}
	return NewPathSegmentWithIndex(m[1], index), nil
}

// ResourceKey validates a resource lookup key and returns its canonical
// form. Resources bind to scopes, not to branch replicas, so indexed
// segments are rejected.
func ResourceKey(raw string) (string, error) {
	addr, err := Parse(raw)
	if err != nil {
		return "", err
	}
	for _, seg := range addr.Path {
		if seg.HasIndex() {
			return "", fmt.Errorf("address %q: resource keys cannot carry branch indices", raw)
		}
	}
	return addr.String(), nil
}
