// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines data ports, constraints and properties shared by every
// descriptor kind.
package model

import "strings"

// Semantic data types a port may declare.
const (
	TypeNumber     = "number"
	TypeString     = "string"
	TypeBoolean    = "boolean"
	TypeObject     = "object"
	TypeCollection = "collection"
)

// Constraint names understood by the engine.
const (
	ConstraintDistribution = "distribution"
	ConstraintAggregation  = "aggregation"
)

// NullSource is the sentinel a switch output source may reference to emit a
// literal placeholder when no branch produced the value.
const NullSource = "NULL"

// Constraint is a name/value pair attached to a data port.
type Constraint struct {
	Name  string
	Value string
}

// Property is a name/value pair attached to a function descriptor.
type Property struct {
	Name  string
	Value string
}

// DataIn is a declared input port.
type DataIn struct {
	Name        string
	Type        string
	Source      string
	Passing     bool
	Constraints []Constraint
}

// Constraint returns the value of the named constraint.
func (d DataIn) Constraint(name string) (string, bool) {
	return findConstraint(d.Constraints, name)
}

// DataOut is a declared output port. For compound constructs Source names the
// inner output(s) it republishes; alternatives are comma-separated.
type DataOut struct {
	Name        string
	Type        string
	Source      string
	Passing     bool
	Constraints []Constraint
}

// Constraint returns the value of the named constraint.
func (d DataOut) Constraint(name string) (string, bool) {
	return findConstraint(d.Constraints, name)
}

// Sources splits Source into its comma-separated alternatives.
func (d DataOut) Sources() []string {
	if d.Source == "" {
		return nil
	}
	parts := strings.Split(d.Source, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findConstraint(cs []Constraint, name string) (string, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Lookup returns the value of the named property.
func Lookup(props []Property, name string) (string, bool) {
	for _, p := range props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
