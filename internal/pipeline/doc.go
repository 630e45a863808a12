// Package pipeline sequences the analysis run.
//
// A run is a set of registered Steps with declared dependencies. The
// Registry groups them into levels; each level starts once the previous one
// has finished, and the steps inside a level run concurrently when the
// runner is configured for parallel execution. The default registration is
//
//	load → clean → cohort ∥ segment ∥ channel → dashboard → export
//
// Every step gets a span and a duration metric. A failed step stops the run
// and the remaining steps are marked skipped.
package pipeline
