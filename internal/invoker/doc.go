/*
Package invoker holds the function-invoker plumbing that sits between
function nodes and the transports in modules/.

A Router picks a transport by resource-id scheme, Retry wraps any invoker
with capped exponential backoff, DetectProvider classifies resource ids
for invocation events, and StaticResolver maps scoped function names to
resources declared in the engine configuration.
*/
package invoker
