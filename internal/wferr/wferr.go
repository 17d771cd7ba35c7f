// Package wferr defines the error kinds a workflow execution can fail with.
//
// Kinds are sentinel errors checked with errors.Is. NodeError attaches the
// offending node (or workflow) name and data key to a kind, and keeps the
// underlying cause reachable for errors.Is and errors.As.
package wferr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInputData means a declared input, condition operand or loop
	// bound is absent from the data table of the node that needs it.
	ErrMissingInputData = errors.New("missing input data")
	// ErrNoSwitchCaseFulfilled means no case and no default matched.
	ErrNoSwitchCaseFulfilled = errors.New("no switch case fulfilled")
	// ErrUnimplementedFeature means a declared constraint, distribution or
	// aggregation mode has no implementation.
	ErrUnimplementedFeature = errors.New("unimplemented feature")
	// ErrInvocationFailure means the function invoker itself failed.
	ErrInvocationFailure = errors.New("function invocation failed")
	// ErrResultParse means a function response could not be mapped onto the
	// declared output schema.
	ErrResultParse = errors.New("result parse error")
)

// NodeError is an error of a given kind raised by a named node.
type NodeError struct {
	Kind error
	Node string
	Key  string
	Err  error
}

func (e *NodeError) Error() string {
	msg := fmt.Sprintf("%s: node %q", e.Kind, e.Node)
	if e.Key != "" {
		msg += fmt.Sprintf(", key %q", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause.
func (e *NodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// MissingInput reports that node needed key and did not find it.
func MissingInput(node, key string) error {
	return &NodeError{Kind: ErrMissingInputData, Node: node, Key: key}
}

// NoSwitchCase reports that the switch discriminant matched nothing.
func NoSwitchCase(node string, value any) error {
	return &NodeError{Kind: ErrNoSwitchCaseFulfilled, Node: node, Err: fmt.Errorf("discriminant %v", value)}
}

// Unimplemented reports an unsupported mode named by what.
func Unimplemented(node, what string) error {
	return &NodeError{Kind: ErrUnimplementedFeature, Node: node, Err: errors.New(what)}
}

// Invocation wraps an invoker failure for node.
func Invocation(node string, err error) error {
	return &NodeError{Kind: ErrInvocationFailure, Node: node, Err: err}
}

// Parse wraps a response mapping failure for key of node.
func Parse(node, key string, err error) error {
	return &NodeError{Kind: ErrResultParse, Node: node, Key: key, Err: err}
}

// Innermost returns the deepest NodeError in err's chain, which names the
// node that actually failed rather than the join point that surfaced it.
func Innermost(err error) (*NodeError, bool) {
	var found *NodeError
	for {
		var ne *NodeError
		if !errors.As(err, &ne) {
			break
		}
		found = ne
		if ne.Err == nil {
			break
		}
		err = ne.Err
	}
	return found, found != nil
}
