// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App loads one workflow document and the optional engine configuration,
// wires the function invokers and invocation sinks they describe, executes
// the workflow once and writes the declared outputs as JSON.
package app
