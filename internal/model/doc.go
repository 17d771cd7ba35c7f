// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of a function-choreography
// workflow definition: the typed tree of function descriptors that the graph
// builder turns into an executable node graph.
//
// # Core Concepts
//
//   - Workflow: The root container. It names the workflow, declares the external
//     inputs it binds and the outputs it publishes, and holds the workflow body.
//
//   - Function: A node in the definition tree. Exactly one of its variant fields
//     is set: Atomic (a remote serverless function), IfThenElse, Switch,
//     Parallel, ParallelFor or Sequence (compound constructs with nested bodies).
//
//   - DataIn / DataOut: Named data ports. A port's Source is a data-flow
//     reference of the form "<nodeName>/<outputName>", the single addressing
//     scheme used between nodes at run time.
//
// Why a separate model package?
//
// The definition format (YAML, JSON) is a concern of the loader. The builder
// only needs a validated, format-agnostic tree, and tests can construct that
// tree directly in Go without going through a file.
package model
