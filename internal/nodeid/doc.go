/*
Package nodeid names functions by where they sit in a choreography.

An address is the dot-separated chain of enclosing compound names ending
in the function name, e.g. `outer.pf.f2`. A segment may carry a branch
index when it refers to one replica of a parallel-for body, e.g.
`pf[2].f2`.

Addresses key resource declarations in the engine config and tag log
lines, so lookup walks outward from the innermost scope.
*/
package nodeid
