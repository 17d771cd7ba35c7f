// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Workflow root and the Function variant container.
// Each body entry mirrors a single-key document mapping ("function", "if",
// "parallelFor", ...); Kind() resolves which variant is set.
package model

import "fmt"

// Workflow is the root of a function-choreography definition.
type Workflow struct {
	Name     string
	DataIns  []DataIn
	DataOuts []DataOut
	Body     []Function
}

// Kind enumerates the descriptor variants.
type Kind int

const (
	KindInvalid Kind = iota
	KindAtomic
	KindIfThenElse
	KindSwitch
	KindParallel
	KindParallelFor
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "function"
	case KindIfThenElse:
		return "if"
	case KindSwitch:
		return "switch"
	case KindParallel:
		return "parallel"
	case KindParallelFor:
		return "parallelFor"
	case KindSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Function is one entry of a workflow body. Exactly one field is non-nil.
type Function struct {
	Atomic      *Atomic
	IfThenElse  *IfThenElse
	Switch      *Switch
	Parallel    *Parallel
	ParallelFor *ParallelFor
	Sequence    *Sequence
}

// Kind reports which variant is set. It returns KindInvalid when none or
// more than one is.
func (f Function) Kind() Kind {
	kind := KindInvalid
	set := 0
	if f.Atomic != nil {
		kind, set = KindAtomic, set+1
	}
	if f.IfThenElse != nil {
		kind, set = KindIfThenElse, set+1
	}
	if f.Switch != nil {
		kind, set = KindSwitch, set+1
	}
	if f.Parallel != nil {
		kind, set = KindParallel, set+1
	}
	if f.ParallelFor != nil {
		kind, set = KindParallelFor, set+1
	}
	if f.Sequence != nil {
		kind, set = KindSequence, set+1
	}
	if set != 1 {
		return KindInvalid
	}
	return kind
}

// Name returns the name of whichever variant is set.
func (f Function) Name() string {
	switch f.Kind() {
	case KindAtomic:
		return f.Atomic.Name
	case KindIfThenElse:
		return f.IfThenElse.Name
	case KindSwitch:
		return f.Switch.Name
	case KindParallel:
		return f.Parallel.Name
	case KindParallelFor:
		return f.ParallelFor.Name
	case KindSequence:
		return f.Sequence.Name
	default:
		return ""
	}
}

// Validate checks the structural rules the builder relies on: every
// descriptor has a valid kind and a name, and names are unique workflow-wide.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow name must not be empty")
	}
	if len(w.Body) == 0 {
		return fmt.Errorf("workflow %q has an empty body", w.Name)
	}
	seen := map[string]struct{}{w.Name: {}}
	return validateBody(w.Body, seen)
}

func validateBody(body []Function, seen map[string]struct{}) error {
	for i, f := range body {
		kind := f.Kind()
		if kind == KindInvalid {
			return fmt.Errorf("body entry %d must declare exactly one function kind", i)
		}
		name := f.Name()
		if name == "" {
			return fmt.Errorf("body entry %d (%s) has no name", i, kind)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate function name %q", name)
		}
		seen[name] = struct{}{}

		for _, nested := range f.bodies() {
			if err := validateBody(nested, seen); err != nil {
				return fmt.Errorf("in %s %q: %w", kind, name, err)
			}
		}
	}
	return nil
}

// bodies lists the nested bodies of a compound descriptor.
func (f Function) bodies() [][]Function {
	switch f.Kind() {
	case KindIfThenElse:
		return [][]Function{f.IfThenElse.Then, f.IfThenElse.Else}
	case KindSwitch:
		out := make([][]Function, 0, len(f.Switch.Cases)+1)
		for _, c := range f.Switch.Cases {
			out = append(out, c.Body)
		}
		return append(out, f.Switch.Default)
	case KindParallel:
		out := make([][]Function, 0, len(f.Parallel.Sections))
		for _, s := range f.Parallel.Sections {
			out = append(out, s.Body)
		}
		return out
	case KindParallelFor:
		return [][]Function{f.ParallelFor.Body}
	case KindSequence:
		return [][]Function{f.Sequence.Body}
	default:
		return nil
	}
}
