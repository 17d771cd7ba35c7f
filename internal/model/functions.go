// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the atomic and compound descriptor variants.
package model

// Property names read from function descriptors.
const (
	PropertyResource = "resource"
	PropertyMemory   = "memory"
)

// Atomic describes a single remote serverless function.
type Atomic struct {
	Name       string
	Type       string
	DataIns    []DataIn
	DataOuts   []DataOut
	Properties []Property
}

// Resource returns the remote resource identifier declared on the function.
func (a *Atomic) Resource() string {
	v, _ := Lookup(a.Properties, PropertyResource)
	return v
}

// Condition is a list of comparisons combined with "and" or "or".
type Condition struct {
	CombinedWith string
	Terms        []Comparison
}

// Comparison compares two operands. Operands are data keys or literals.
type Comparison struct {
	Data1    string
	Data2    string
	Operator string
	Negation bool
}

// IfThenElse dispatches to Then or Else depending on Condition.
type IfThenElse struct {
	Name       string
	DataIns    []DataIn
	Condition  Condition
	Then       []Function
	Else       []Function
	DataOuts   []DataOut
	Properties []Property
}

// DataEval is the switch discriminant port.
type DataEval struct {
	Name   string
	Type   string
	Source string
}

// Case is one labelled branch of a Switch.
type Case struct {
	Value string
	Body  []Function
}

// Switch dispatches to the first case whose label equals the discriminant.
type Switch struct {
	Name       string
	DataIns    []DataIn
	DataEval   DataEval
	Cases      []Case
	Default    []Function
	DataOuts   []DataOut
	Properties []Property
}

// Section is one concurrently executed branch of a Parallel.
type Section struct {
	Body []Function
}

// Parallel runs every section concurrently and joins their outputs.
type Parallel struct {
	Name       string
	DataIns    []DataIn
	Sections   []Section
	DataOuts   []DataOut
	Properties []Property
}

// LoopCounter holds the parallel-for bounds. Each bound is an integer literal
// or a data key resolved at run time.
type LoopCounter struct {
	Name string
	Type string
	From string
	To   string
	Step string
}

// ParallelFor replicates Body once per loop-counter value.
type ParallelFor struct {
	Name        string
	DataIns     []DataIn
	LoopCounter LoopCounter
	Body        []Function
	DataOuts    []DataOut
	Properties  []Property
}

// Sequence runs Body in order. It adds no node of its own: inner functions
// reference each other's outputs directly.
type Sequence struct {
	Name string
	Body []Function
}
