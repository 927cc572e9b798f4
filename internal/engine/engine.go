// Package engine implements the generic entity duplication and cross-copy
// synchronization engine: schema-driven cloning of graph nodes and
// snapshot-based divergence detection between independently edited copies.
//
// The engine is constructed against the lexicon.Graph collaborator and holds
// no state of its own beyond configuration. It never locks; callers
// serialize access to the underlying graph.
package engine

import "errors"

// DefaultMaxDepth bounds recursion over owned structure during deep
// duplication. Ownership is a strict tree, so the guard only trips on
// pathologically nested data rather than cycles.
const DefaultMaxDepth = 64

// ErrOwnedDepthExceeded reports owned nesting beyond the configured depth
// budget. The clone is abandoned rather than silently truncated.
var ErrOwnedDepthExceeded = errors.New("engine: owned structure exceeds duplication depth limit")

// Engine exposes Duplicate, SyncableProperties, and Compare over any graph
// implementing the collaborator contract.
type Engine struct {
	keepEmptyText bool
	maxDepth      int
}

// Option configures engine construction.
type Option func(*Engine)

// WithKeepEmptyText preserves explicit empty-string writing-system entries in
// snapshots and comparisons instead of collapsing them into absence. The
// default collapses them, matching historical merge behavior; see DESIGN.md
// for the ambiguity this flag exposes.
func WithKeepEmptyText(keep bool) Option {
	return func(e *Engine) { e.keepEmptyText = keep }
}

// WithMaxDepth overrides the owned-structure recursion budget.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New constructs an engine with the supplied options.
func New(opts ...Option) *Engine {
	e := &Engine{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
