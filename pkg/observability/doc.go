/*
Package observability exposes Prometheus metrics for the interactive loop,
the command executor and the background analysis dispatcher.

Every Metrics value owns its registry so tests and embedded uses never
collide on the global default registry. All recording methods are safe to
call on a nil *Metrics, which lets components treat metrics as optional.
*/
package observability
