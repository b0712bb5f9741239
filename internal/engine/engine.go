// Package engine composes the relationship graph with its dependent
// analyses behind an explicit staleness protocol. Every mutating call flips
// a dirty flag; the detector, validator and tree builder are rebuilt on
// next access rather than patched incrementally — a deliberate
// simplicity-over-performance trade, since reconstruction is linear in
// graph size.
//
// The engine is single-threaded by contract: the host serializes change
// notifications before calling in, and every query runs to completion
// before the next mutation.
package engine

import (
	"github.com/fkloosterman/relations-obsidian-sub000/internal/graph"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/traverse"
)

// Invalidator is the slice of the metadata cache the engine needs: dropping
// one note's cached metadata before re-reading it.
type Invalidator interface {
	Invalidate(path string)
}

// Engine is the query surface over one relationship graph.
type Engine struct {
	g        *graph.Graph
	cache    Invalidator
	maxDepth int

	det   *graph.Detector
	val   *graph.Validator
	trees *traverse.TreeBuilder
	dirty bool
}

// New wires an engine over g. cache may be nil when the field reader is not
// cached. maxDepth is the configured default traversal depth.
func New(g *graph.Graph, cache Invalidator, maxDepth int) *Engine {
	if maxDepth <= 0 {
		maxDepth = traverse.DefaultMaxDepth
	}
	return &Engine{g: g, cache: cache, maxDepth: maxDepth, dirty: true}
}

// Graph exposes the underlying graph for read-only use.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Build runs a full scan. Also serves as (re)initialization: safe to call
// repeatedly.
func (e *Engine) Build() {
	e.g.Build()
	e.dirty = true
}

// --- change notifications ---------------------------------------------------

// NoteUpserted handles a created or modified note.
func (e *Engine) NoteUpserted(n note.Note) {
	if e.cache != nil {
		e.cache.Invalidate(n.Path)
	}
	e.g.UpdateNode(n)
	e.dirty = true
}

// NoteRemoved handles a deleted note.
func (e *Engine) NoteRemoved(path string) {
	if e.cache != nil {
		e.cache.Invalidate(path)
	}
	e.g.RemoveNode(path)
	e.dirty = true
}

// NoteRenamed handles an identifier change that preserves all edges.
func (e *Engine) NoteRenamed(n note.Note, oldPath string) {
	if e.cache != nil {
		e.cache.Invalidate(oldPath)
		e.cache.Invalidate(n.Path)
	}
	e.g.RenameNode(n, oldPath)
	e.dirty = true
}

// --- staleness --------------------------------------------------------------

// refresh rebuilds the dependent components if any mutation happened since
// they were last built. Staleness is a visible state transition here, not a
// side effect buried in getters.
func (e *Engine) refresh() {
	if !e.dirty && e.det != nil && e.det.BuiltAt() == e.g.Generation() {
		return
	}
	e.det = graph.NewDetector(e.g)
	e.val = graph.NewValidator(e.g, e.det)
	e.trees = traverse.NewTreeBuilder(e.g, e.det, e.maxDepth)
	e.dirty = false
}

// Detector returns a cycle detector current for the graph's generation.
func (e *Engine) Detector() *graph.Detector {
	e.refresh()
	return e.det
}

// Validator returns a validator current for the graph's generation.
func (e *Engine) Validator() *graph.Validator {
	e.refresh()
	return e.val
}

// --- query surface ----------------------------------------------------------

func (e *Engine) traverser() *traverse.Traverser {
	return traverse.New(e.g, e.maxDepth)
}

// Ancestors returns generations of ancestors; see traverse.Traverser.
func (e *Engine) Ancestors(path string, maxDepth int) [][]note.Note {
	return e.traverser().Ancestors(path, maxDepth)
}

// Descendants returns generations of descendants.
func (e *Engine) Descendants(path string, maxDepth int) [][]note.Note {
	return e.traverser().Descendants(path, maxDepth)
}

// Siblings returns all notes sharing at least one parent with the note.
func (e *Engine) Siblings(path string, includeSelf bool) []note.Note {
	return e.traverser().Siblings(path, includeSelf)
}

// Cousins returns relatives of the given degree.
func (e *Engine) Cousins(path string, degree int) []note.Note {
	return e.traverser().Cousins(path, degree)
}

// DetectCycle returns the minimal cycle through the note, or nil.
func (e *Engine) DetectCycle(path string) *graph.Cycle {
	return e.Detector().Detect(path)
}

// HasCycles reports whether any note participates in a cycle.
func (e *Engine) HasCycles() bool {
	return e.Detector().HasCycles()
}

// AllCycles enumerates each distinct cycle once.
func (e *Engine) AllCycles() []*graph.Cycle {
	return e.Validator().AllCycles()
}

// ValidateGraph runs the full diagnostic pass.
func (e *Engine) ValidateGraph() *graph.Diagnostics {
	return e.Validator().Validate()
}

// AncestorTree materializes the ancestor tree for the note.
func (e *Engine) AncestorTree(path string, maxDepth int, filter traverse.Filter, meta traverse.MetadataProvider) *traverse.TreeNode {
	e.refresh()
	return e.trees.AncestorTree(path, maxDepth, filter, meta)
}

// DescendantTree materializes the descendant tree for the note.
func (e *Engine) DescendantTree(path string, maxDepth int, filter traverse.Filter, meta traverse.MetadataProvider) *traverse.TreeNode {
	e.refresh()
	return e.trees.DescendantTree(path, maxDepth, filter, meta)
}

// SiblingTrees materializes siblings as independent depth-0 roots.
func (e *Engine) SiblingTrees(path string, includeSelf bool, meta traverse.MetadataProvider) []*traverse.TreeNode {
	e.refresh()
	return e.trees.SiblingTrees(path, includeSelf, meta)
}

// CousinTrees materializes cousins as independent depth-0 roots.
func (e *Engine) CousinTrees(path string, degree int, meta traverse.MetadataProvider) []*traverse.TreeNode {
	e.refresh()
	return e.trees.CousinTrees(path, degree, meta)
}
