/*
Package nodes implements the executable workflow graph.

A graph is assembled once from workflow descriptors and then driven by
calling Call on its entry node. Every node owns its outgoing edges; parent
links are back-references used only for join counting. On completion a
node pushes its result table into each child with PassResult and calls
the child. A single child runs on the caller's goroutine; several children
run concurrently and the caller waits for all of them.

Data is addressed with "<node>/<output>" keys. A node's result is the table
it inherited plus the entries it produced, so any downstream node can
reference any upstream output by key.

Join nodes (ParallelEnd, ParallelForEnd) are counting barriers: every
arrival but the last returns false, and the last one runs the
continuation exactly once. ParallelForStart replicates its body at run time
with Clone, one replica per loop-counter value, and all replicas report to
the same ParallelForEnd.
*/
package nodes
