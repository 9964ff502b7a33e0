// Package constants centralizes defaults shared across the CLI and the engine.
//
// Probe timeouts, concurrency ceilings and file permissions live here so cmd/
// and internal/ agree on them without introducing import cycles.
package constants
