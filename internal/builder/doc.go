// Package builder assembles the executable node graph from workflow
// descriptors.
//
// # How It Works
//
// Each descriptor kind has one case in toNodeList, which returns the
// ListPair (entry and exit node) of the subgraph it produced:
//
//   - function: a single Function node; start and end are the same node.
//   - if: IfStart, the then-branch, the else-branch, IfEnd.
//   - switch: SwitchStart, one branch per case, the default branch, SwitchEnd.
//   - parallel: ParallelStart, one branch per section, ParallelEnd.
//   - parallelFor: ParallelForStart, one body instance, ParallelForEnd. The
//     body is replicated when the loop runs.
//   - sequence: the body chained in order; it adds no node of its own.
//
// An empty branch wires the compound's start directly to its end. Bodies are
// chained by linking each pair's end to the next pair's start.
//
// Build wraps the workflow body between a ParallelStart named after the
// workflow and a ParallelEnd that publishes the workflow outputs, so the
// graph always has one entry and one exit.
package builder
