/*
Package logsink records function invocation events.

Sinks are best-effort: the engine logs a failing sink and carries on.
Slog writes events to the execution logger, SQLite persists them to an
invocations table, Async decouples a slow sink from the caller, and Multi
fans one event out to several sinks.
*/
package logsink
