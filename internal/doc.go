// Package internal provides the core functionality of the source
// normalization pipeline.
//
// This package implements the engine that sequences rewrite passes
// over parsed program units. Each pass is a self-contained structural
// transformation; the engine snapshots the tree before every pass so a
// failing rewrite never leaks partial mutations into the committed
// result.
//
// Key components:
//
// Engine: coordinates one unit's run through the configured pass
// sequence and assembles its output record.
//
// Pass (internal/passes): the contract every transformation
// implements. A pass mutates the tree in place and reports findings
// through its context; fatal findings abort the unit after the pass
// commits.
//
// UnitResult (internal/types): the per-unit output record carrying the
// original source, the transformed source, the passes applied, and
// every diagnostic.
//
// Watcher: re-runs the pipeline for source files as they change on
// disk.
//
// Usage:
//
//	engine, err := internal.NewEngine(nil)
//	if err != nil {
//	    // handle error
//	}
//	result := engine.RunUnit(unit)
package internal
