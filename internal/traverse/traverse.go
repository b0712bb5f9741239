// Package traverse implements generation-ordered walks over a relationship
// graph: ancestors, descendants, siblings and cousins, plus materialization
// of walks into bounded annotated trees.
//
// Every query is a total function: unknown notes, nonsense degrees and
// cycle-riddled graphs all produce empty (or finite) results, never errors.
package traverse

import (
	"github.com/fkloosterman/relations-obsidian-sub000/internal/graph"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// DefaultMaxDepth bounds traversals when neither the call nor the
// configuration supplies a depth.
const DefaultMaxDepth = 10

// Traverser runs cycle-safe breadth-first walks over one graph. It holds no
// state between calls and stays valid across graph mutations.
type Traverser struct {
	g            *graph.Graph
	defaultDepth int
}

// New builds a traverser over g. defaultDepth <= 0 falls back to
// DefaultMaxDepth.
func New(g *graph.Graph, defaultDepth int) *Traverser {
	if defaultDepth <= 0 {
		defaultDepth = DefaultMaxDepth
	}
	return &Traverser{g: g, defaultDepth: defaultDepth}
}

// Ancestors walks up parent edges from the note at path and returns one
// list per generation: generation 0 of the result holds the direct
// parents. The starting note is pre-marked visited so it can never appear
// as its own ancestor; a note reachable twice at the same depth appears
// once. The walk stops at maxDepth (<= 0 means the configured default) or
// at the first empty generation.
func (t *Traverser) Ancestors(path string, maxDepth int) [][]note.Note {
	return t.generations(path, maxDepth, t.g.GetParents)
}

// Descendants is the symmetric walk down children edges.
func (t *Traverser) Descendants(path string, maxDepth int) [][]note.Note {
	return t.generations(path, maxDepth, t.g.GetChildren)
}

func (t *Traverser) generations(path string, maxDepth int, next func(string) []note.Note) [][]note.Note {
	if maxDepth <= 0 {
		maxDepth = t.defaultDepth
	}
	if t.g.Node(path) == nil {
		return nil
	}

	visited := map[string]struct{}{path: {}}
	frontier := []string{path}
	var gens [][]note.Note

	for depth := 0; depth < maxDepth; depth++ {
		var gen []note.Note
		for _, cur := range frontier {
			for _, rel := range next(cur) {
				if _, ok := visited[rel.Path]; ok {
					continue
				}
				visited[rel.Path] = struct{}{}
				gen = append(gen, rel)
			}
		}
		if len(gen) == 0 {
			break
		}
		gens = append(gens, gen)
		frontier = frontier[:0]
		for _, n := range gen {
			frontier = append(frontier, n.Path)
		}
	}
	return gens
}

// Siblings returns the union of every parent's children, which captures
// half-siblings sharing only one parent. A note with no parents has no
// siblings by definition. The note itself is excluded unless includeSelf.
func (t *Traverser) Siblings(path string, includeSelf bool) []note.Note {
	parents := t.g.GetParents(path)
	if len(parents) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []note.Note
	for _, p := range parents {
		for _, c := range t.g.GetChildren(p.Path) {
			if c.Path == path && !includeSelf {
				continue
			}
			if _, ok := seen[c.Path]; ok {
				continue
			}
			seen[c.Path] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Cousins returns notes that share an ancestor with the note at path at
// generation degree+1 but no ancestor at any generation <= degree. degree 1
// is first cousins. degree < 1 or a missing ancestor generation yields an
// empty result.
func (t *Traverser) Cousins(path string, degree int) []note.Note {
	if degree < 1 {
		return nil
	}

	ancestors := t.Ancestors(path, degree+1)
	if len(ancestors) < degree+1 {
		return nil
	}
	shared := ancestors[degree]

	// Ancestors at generations 1..degree. A candidate also descending
	// from one of these is a closer relative, not a cousin.
	closer := make(map[string]struct{})
	for i := 0; i < degree; i++ {
		for _, a := range ancestors[i] {
			closer[a.Path] = struct{}{}
		}
	}

	exclude := map[string]struct{}{path: {}}
	for _, s := range t.Siblings(path, true) {
		exclude[s.Path] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []note.Note
	for _, anc := range shared {
		desc := t.Descendants(anc.Path, degree+1)
		if len(desc) < degree+1 {
			continue
		}
		for _, cand := range desc[degree] {
			if _, ok := exclude[cand.Path]; ok {
				continue
			}
			if _, ok := seen[cand.Path]; ok {
				continue
			}
			if t.sharesCloserAncestor(cand.Path, degree, closer) {
				continue
			}
			seen[cand.Path] = struct{}{}
			out = append(out, cand)
		}
	}
	return out
}

// sharesCloserAncestor walks the candidate's own ancestor chain up to
// degree generations and reports whether it crosses the closer set. This is
// the filter that keeps closer relatives — a sibling's child, say — from
// being misclassified as cousins.
func (t *Traverser) sharesCloserAncestor(path string, degree int, closer map[string]struct{}) bool {
	for _, gen := range t.Ancestors(path, degree) {
		for _, a := range gen {
			if _, ok := closer[a.Path]; ok {
				return true
			}
		}
	}
	return false
}
