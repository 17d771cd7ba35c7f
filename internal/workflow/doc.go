// Package workflow runs an assembled workflow graph once.
//
// An Executable validates the supplied inputs against the declared workflow
// inputs, seeds the start node with them under the workflow namespace
// ("<workflow>/<input>"), drives the graph to completion and returns the
// table produced by the end node. Results are all-or-nothing: any node
// failure fails the execution and no partial result is returned.
package workflow
