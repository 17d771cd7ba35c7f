// Package distribution splits collection inputs into per-branch chunks for
// parallel-for fan-out.
package distribution

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/choreo/internal/ctyconv"
	"github.com/vk/choreo/internal/model"
)

// Mode is a distribution strategy parsed from a "distribution" constraint.
type Mode int

const (
	// Broadcast gives every branch the same value.
	Broadcast Mode = iota
	// Block gives branch i the i-th contiguous block of the collection.
	Block
)

var blockRegex = regexp.MustCompile(`^BLOCK\((\d+)\)$`)

// Plan is a parsed distribution constraint.
type Plan struct {
	Mode Mode
	Size int
}

// ErrUnsupported is returned by Parse for well-formed but unimplemented modes.
type ErrUnsupported struct {
	Value string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("distribution %q is not implemented", e.Value)
}

// Parse reads a constraint value such as "BLOCK(3)". Only BLOCK is
// implemented; any other mode yields *ErrUnsupported.
func Parse(value string) (Plan, error) {
	v := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	m := blockRegex.FindStringSubmatch(v)
	if m == nil {
		return Plan{}, &ErrUnsupported{Value: value}
	}
	size, err := strconv.Atoi(m[1])
	if err != nil || size < 1 {
		return Plan{}, fmt.Errorf("invalid block size in %q", value)
	}
	return Plan{Mode: Block, Size: size}, nil
}

// Blocks partitions collection into contiguous blocks of size elements. The
// last block may be shorter.
func Blocks(collection []any, size int) [][]any {
	if size < 1 {
		size = 1
	}
	blocks := make([][]any, 0, (len(collection)+size-1)/size)
	for start := 0; start < len(collection); start += size {
		end := min(start+size, len(collection))
		block := make([]any, end-start)
		copy(block, collection[start:end])
		blocks = append(blocks, block)
	}
	return blocks
}

// Degrade turns a single-element block into a scalar according to the
// declared type of the receiving port. Other blocks are returned unchanged.
func Degrade(block []any, declaredType string) (any, error) {
	if len(block) != 1 {
		return block, nil
	}
	switch declaredType {
	case model.TypeNumber, model.TypeString, model.TypeBoolean:
		return ctyconv.Coerce(block[0], declaredType)
	case model.TypeCollection:
		return block, nil
	default:
		return block[0], nil
	}
}

// AsCollection coerces a data value into a slice. JSON array strings are
// accepted because function responses often carry collections as text.
func AsCollection(v any) ([]any, error) {
	if c, ok := v.([]any); ok {
		return c, nil
	}
	if s, ok := v.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("value is not a collection: %w", err)
		}
		v = decoded
	}
	c, err := ctyconv.Coerce(v, model.TypeCollection)
	if err != nil {
		return nil, err
	}
	return c.([]any), nil
}
