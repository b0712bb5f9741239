// Package graph owns the parent/child adjacency for one relationship field
// and the analyses layered on it: per-note cycle detection and whole-graph
// validation.
//
// The graph is built once from a full scan of the collection, then mutated
// in place as single notes change. Callers serialize all access — the
// engine's contract is single-threaded, so there are no locks here.
package graph

import (
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// Node is one note's adjacency record. Parents keeps declaration order and
// may contain duplicates (a note can declare the same parent twice);
// Children is derived by inverting Parents across the graph and is
// deduplicated per child.
type Node struct {
	Note     note.Note
	Parents  []note.Note
	Children []note.Note
	HasField bool
}

// Graph maps note paths to adjacency records for a single relationship
// field. Structural invariant: whenever A appears in B.Parents, B appears
// in A.Children. Mutating operations preserve it; the Validator reports any
// violation rather than assuming it cannot occur.
type Graph struct {
	field    string
	reader   note.FieldReader
	resolver note.LinkResolver
	enum     note.Enumerator

	nodes map[string]*Node
	order []string // insertion order, for deterministic iteration

	// Raw declared references per path, pre-resolution. Kept so the
	// validator can report references that resolved to nothing.
	rawRefs map[string][]string

	// Internal uint32 ids for bitmap-backed passes (cycle detection,
	// validator seen-sets). Monotonic; ids of removed notes go stale and
	// are simply skipped.
	intID   map[string]uint32
	byIntID []string

	// generation increments on every structural mutation. Dependent
	// components compare it against the generation they were built at.
	generation uint64
}

// New creates an empty graph for field, wired to its collaborators.
// Call Build before querying.
func New(field string, reader note.FieldReader, resolver note.LinkResolver, enum note.Enumerator) *Graph {
	return &Graph{
		field:    field,
		reader:   reader,
		resolver: resolver,
		enum:     enum,
		nodes:    make(map[string]*Node),
		rawRefs:  make(map[string][]string),
		intID:    make(map[string]uint32),
	}
}

// Field returns the relationship field this graph tracks.
func (g *Graph) Field() string { return g.field }

// Generation returns the current mutation counter. Any component built at
// an older generation is stale and must be reconstructed.
func (g *Graph) Generation() uint64 { return g.generation }

// Len reports the number of tracked notes.
func (g *Graph) Len() int { return len(g.nodes) }

// Build scans every note in the collection, extracts and resolves its
// declared parents, then inverts the parent lists into children. Idempotent:
// building twice over an unchanged collection yields an identical adjacency
// map. Safe to call repeatedly.
func (g *Graph) Build() {
	g.nodes = make(map[string]*Node)
	g.order = g.order[:0]
	g.rawRefs = make(map[string][]string)

	for _, n := range g.enum.Notes() {
		fv := g.reader.ReadField(n, g.field)
		node := g.ensure(n)
		node.Note = n
		node.HasField = fv.Present
		node.Parents = g.resolveParents(n, fv.Refs)
		g.rawRefs[n.Path] = append([]string(nil), fv.Refs...)
	}

	// Second pass over insertion order so derived children lists come out
	// deterministic run to run. Resolved parents that were never scanned
	// themselves get placeholder nodes, keeping the invariant intact.
	scanned := append([]string(nil), g.order...)
	for _, path := range scanned {
		child := g.nodes[path]
		for _, p := range child.Parents {
			addChild(g.ensure(p), child.Note)
		}
	}

	g.generation++
}

// GetParents returns the declared parents of the note at path, in
// declaration order. Unknown paths yield an empty list — callers cannot
// distinguish "no parents" from "not indexed", which is intentional.
func (g *Graph) GetParents(path string) []note.Note {
	n, ok := g.nodes[path]
	if !ok {
		return nil
	}
	return append([]note.Note(nil), n.Parents...)
}

// GetChildren returns the derived children of the note at path. Unknown
// paths yield an empty list.
func (g *Graph) GetChildren(path string) []note.Note {
	n, ok := g.nodes[path]
	if !ok {
		return nil
	}
	return append([]note.Note(nil), n.Children...)
}

// HasField reports whether the note at path declares the relationship field
// at all, even with an empty value. This distinguishes "opted into the
// hierarchy but currently rootless" from "not part of the hierarchy".
func (g *Graph) HasField(path string) bool {
	n, ok := g.nodes[path]
	return ok && n.HasField
}

// Node returns the adjacency record for path, or nil if untracked.
func (g *Graph) Node(path string) *Node {
	return g.nodes[path]
}

// RawRefs returns the raw declared reference strings for path,
// pre-resolution.
func (g *Graph) RawRefs(path string) []string {
	return g.rawRefs[path]
}

// UpdateNode re-extracts parents for a single note and reconciles the
// change: the note is removed from former parents' children, added to new
// parents' children, and its own parent list replaced. No unrelated node's
// parents are touched. Also handles brand-new notes.
func (g *Graph) UpdateNode(n note.Note) {
	fv := g.reader.ReadField(n, g.field)
	newParents := g.resolveParents(n, fv.Refs)

	node := g.ensure(n)
	node.Note = n // display name may have changed

	oldSet := pathSet(node.Parents)
	newSet := pathSet(newParents)

	for path := range oldSet {
		if _, still := newSet[path]; !still {
			if parent, ok := g.nodes[path]; ok {
				removeChild(parent, n.Path)
			}
		}
	}
	for _, p := range newParents {
		if _, had := oldSet[p.Path]; !had {
			addChild(g.ensure(p), n)
		}
	}

	node.Parents = newParents
	node.HasField = fv.Present
	g.rawRefs[n.Path] = append([]string(nil), fv.Refs...)
	g.generation++
}

// RemoveNode deletes the note at path, detaching it from every former
// parent's children and every former child's parents.
func (g *Graph) RemoveNode(path string) {
	node, ok := g.nodes[path]
	if !ok {
		return
	}

	for p := range pathSet(node.Parents) {
		if parent, ok := g.nodes[p]; ok {
			removeChild(parent, path)
		}
	}
	for _, c := range node.Children {
		if child, ok := g.nodes[c.Path]; ok {
			removeParent(child, path)
		}
	}

	delete(g.nodes, path)
	delete(g.rawRefs, path)
	for i, p := range g.order {
		if p == path {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.generation++
}

// RenameNode moves the node at oldPath to n, rewriting every neighbor's
// reference to it in both directions. Edge topology — including the order
// of every neighbor's parent list — is preserved exactly.
func (g *Graph) RenameNode(n note.Note, oldPath string) {
	node, ok := g.nodes[oldPath]
	if !ok {
		return
	}
	if _, taken := g.nodes[n.Path]; taken && n.Path != oldPath {
		// Destination already tracked. Fold the old node away and
		// re-extract the destination instead of clobbering a live node.
		g.RemoveNode(oldPath)
		g.UpdateNode(n)
		return
	}

	delete(g.nodes, oldPath)
	node.Note = n
	g.nodes[n.Path] = node

	for p := range pathSet(node.Parents) {
		if parent, ok := g.nodes[p]; ok {
			renameIn(parent.Children, oldPath, n)
		}
	}
	for _, c := range node.Children {
		if child, ok := g.nodes[c.Path]; ok {
			renameIn(child.Parents, oldPath, n)
		}
	}
	// Self-loops live in the node's own lists, not in a neighbor's.
	renameIn(node.Parents, oldPath, n)
	renameIn(node.Children, oldPath, n)

	g.rawRefs[n.Path] = g.rawRefs[oldPath]
	delete(g.rawRefs, oldPath)
	for i, p := range g.order {
		if p == oldPath {
			g.order[i] = n.Path
			break
		}
	}
	g.intern(n.Path)
	g.generation++
}

// Paths returns all tracked note paths in insertion order.
func (g *Graph) Paths() []string {
	return append([]string(nil), g.order...)
}

// --- internals ---------------------------------------------------------------

// ensure returns the node for n, creating a placeholder if the note is not
// yet tracked (e.g. a resolved parent that was never scanned itself).
func (g *Graph) ensure(n note.Note) *Node {
	if existing, ok := g.nodes[n.Path]; ok {
		return existing
	}
	node := &Node{Note: n}
	g.nodes[n.Path] = node
	g.order = append(g.order, n.Path)
	g.intern(n.Path)
	return node
}

func (g *Graph) resolveParents(src note.Note, refs []string) []note.Note {
	var parents []note.Note
	for _, ref := range refs {
		if parent, ok := g.resolver.Resolve(ref, src); ok {
			parents = append(parents, parent)
		}
		// Unresolvable references are dropped here and surfaced only by
		// the validator's unresolved-link finding.
	}
	return parents
}

// intern assigns a stable internal id to path if it does not have one yet.
func (g *Graph) intern(path string) uint32 {
	if id, ok := g.intID[path]; ok {
		return id
	}
	id := uint32(len(g.byIntID))
	g.intID[path] = id
	g.byIntID = append(g.byIntID, path)
	return id
}

// internalID returns the bitmap id for path; false for untracked paths.
func (g *Graph) internalID(path string) (uint32, bool) {
	id, ok := g.intID[path]
	return id, ok
}

func (g *Graph) pathOf(id uint32) string {
	if int(id) < len(g.byIntID) {
		return g.byIntID[id]
	}
	return ""
}

func pathSet(notes []note.Note) map[string]struct{} {
	set := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		set[n.Path] = struct{}{}
	}
	return set
}

// addChild appends c to parent's children unless already present.
func addChild(parent *Node, c note.Note) {
	for _, existing := range parent.Children {
		if existing.Path == c.Path {
			return
		}
	}
	parent.Children = append(parent.Children, c)
}

// removeChild removes every occurrence of path from parent's children.
func removeChild(parent *Node, path string) {
	kept := parent.Children[:0]
	for _, c := range parent.Children {
		if c.Path != path {
			kept = append(kept, c)
		}
	}
	parent.Children = kept
}

// removeParent removes every occurrence of path from child's parents,
// duplicates included.
func removeParent(child *Node, path string) {
	kept := child.Parents[:0]
	for _, p := range child.Parents {
		if p.Path != path {
			kept = append(kept, p)
		}
	}
	child.Parents = kept
}

// renameIn rewrites every occurrence of oldPath in notes to n, in place.
func renameIn(notes []note.Note, oldPath string, n note.Note) {
	for i := range notes {
		if notes[i].Path == oldPath {
			notes[i] = n
		}
	}
}
