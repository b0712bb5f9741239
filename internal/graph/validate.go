package graph

import (
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// Severity classifies a diagnostic finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// UnresolvedRef is a declared reference that resolved to no parent.
type UnresolvedRef struct {
	Note note.Note
	Ref  string
}

// BrokenDirection tells which side of the bidirectional invariant is
// missing.
type BrokenDirection string

const (
	// BrokenParentToChild: the child lists the parent, but the parent's
	// children list is missing the child.
	BrokenParentToChild BrokenDirection = "parent→child"
	// BrokenChildToParent: the parent lists the child, but the child's
	// parents list is missing the parent.
	BrokenChildToParent BrokenDirection = "child→parent"
)

// BrokenRef is a violated bidirectional reference between two notes.
type BrokenRef struct {
	Parent    note.Note
	Child     note.Note
	Direction BrokenDirection
}

// Stats summarizes the graph shape.
type Stats struct {
	Notes      int
	Edges      int
	Roots      int
	Leaves     int
	AvgFanOut  float64
	MaxDepth   int
	Orphans    int
	CycleNotes int
}

// Diagnostics aggregates every finding from a whole-graph validation pass.
// Cycles, unresolved references and broken bidirectional references are
// errors; orphans are warnings; stats are informational.
type Diagnostics struct {
	Cycles     []*Cycle
	Unresolved []UnresolvedRef
	Orphans    []note.Note
	Broken     []BrokenRef
	Stats      Stats
}

// ErrorCount is the number of error-severity findings.
func (d *Diagnostics) ErrorCount() int {
	return len(d.Cycles) + len(d.Unresolved) + len(d.Broken)
}

// Healthy reports whether the graph has zero error-severity findings.
func (d *Diagnostics) Healthy() bool {
	return d.ErrorCount() == 0
}

// Validator runs whole-graph diagnostics. Like the Detector it is a cheap,
// stateless-beyond-the-graph snapshot, rebuilt after every mutation.
type Validator struct {
	g       *Graph
	det     *Detector
	builtAt uint64
}

// NewValidator wires a validator over g, reusing an already-built detector
// of the same generation.
func NewValidator(g *Graph, det *Detector) *Validator {
	return &Validator{g: g, det: det, builtAt: g.Generation()}
}

// BuiltAt returns the graph generation this validator was built at.
func (v *Validator) BuiltAt() uint64 { return v.builtAt }

// AllCycles enumerates each distinct cycle in the graph exactly once.
// Every member of a reported cycle is marked seen, so asking Detect for a
// second member of the same loop never re-reports it.
func (v *Validator) AllCycles() []*Cycle {
	var cycles []*Cycle
	seen := roaring.New()
	for _, path := range v.g.order {
		id, ok := v.g.internalID(path)
		if !ok || seen.Contains(id) {
			continue
		}
		c := v.det.Detect(path)
		if c == nil {
			continue
		}
		for _, member := range c.Path {
			if mid, ok := v.g.internalID(member.Path); ok {
				seen.Add(mid)
			}
		}
		cycles = append(cycles, c)
	}
	return cycles
}

// Validate runs every diagnostic pass and aggregates the findings.
func (v *Validator) Validate() *Diagnostics {
	d := &Diagnostics{
		Cycles:     v.AllCycles(),
		Unresolved: v.unresolvedRefs(),
		Broken:     v.brokenRefs(),
	}
	d.Orphans = v.orphans()
	d.Stats = v.stats(d)
	return d
}

// unresolvedRefs compares each note's raw declared references against its
// resolved parents. A raw reference counts as resolved when some parent's
// path or display name fuzzily matches it: containment in either direction,
// or an exact name match.
//
// The fuzzy policy is deliberate — a reference string and a resolved
// display name are not always textually identical — but it is a known
// precision limitation and can both over- and under-report.
func (v *Validator) unresolvedRefs() []UnresolvedRef {
	var out []UnresolvedRef
	for _, path := range v.g.order {
		n := v.g.nodes[path]
		refs := v.g.rawRefs[path]
		if len(refs) == 0 {
			continue
		}
		for _, ref := range refs {
			if !matchesAnyParent(ref, n.Parents) {
				out = append(out, UnresolvedRef{Note: n.Note, Ref: ref})
			}
		}
	}
	return out
}

func matchesAnyParent(ref string, parents []note.Note) bool {
	r := strings.ToLower(strings.TrimSpace(ref))
	if r == "" {
		return true // empty entries are noise, not unresolved links
	}
	for _, p := range parents {
		path := strings.ToLower(p.Path)
		name := strings.ToLower(p.Name)
		if r == name ||
			strings.Contains(path, r) || strings.Contains(r, path) ||
			strings.Contains(name, r) || strings.Contains(r, name) {
			return true
		}
	}
	return false
}

// orphans lists notes with neither parents nor children.
func (v *Validator) orphans() []note.Note {
	var out []note.Note
	for _, path := range v.g.order {
		n := v.g.nodes[path]
		if len(n.Parents) == 0 && len(n.Children) == 0 {
			out = append(out, n.Note)
		}
	}
	return out
}

// brokenRefs scans both directions of the bidirectional invariant. The
// engine never self-heals these; repair is a caller decision.
func (v *Validator) brokenRefs() []BrokenRef {
	var out []BrokenRef
	for _, path := range v.g.order {
		n := v.g.nodes[path]
		for p := range pathSet(n.Parents) {
			parent, ok := v.g.nodes[p]
			if !ok || !containsPath(parent.Children, path) {
				var pn note.Note
				if ok {
					pn = parent.Note
				} else {
					pn = note.New(p)
				}
				out = append(out, BrokenRef{
					Parent:    pn,
					Child:     n.Note,
					Direction: BrokenParentToChild,
				})
			}
		}
		for _, c := range n.Children {
			child, ok := v.g.nodes[c.Path]
			if !ok || !containsPath(child.Parents, path) {
				out = append(out, BrokenRef{
					Parent:    n.Note,
					Child:     c,
					Direction: BrokenChildToParent,
				})
			}
		}
	}
	return out
}

func containsPath(notes []note.Note, path string) bool {
	for _, n := range notes {
		if n.Path == path {
			return true
		}
	}
	return false
}

// stats computes counts, depth and fan-out over the current adjacency.
//
// Root: no parents and either declares the field (even empty) or has
// children. Leaf: no children and at least one parent. A note with no
// field, no parents and no children belongs to neither set.
func (v *Validator) stats(d *Diagnostics) Stats {
	s := Stats{Notes: len(v.g.nodes), Orphans: len(d.Orphans)}

	var roots []string
	for _, path := range v.g.order {
		n := v.g.nodes[path]
		s.Edges += len(n.Parents)
		if len(n.Parents) == 0 && (n.HasField || len(n.Children) > 0) {
			s.Roots++
			roots = append(roots, path)
		}
		if len(n.Children) == 0 && len(n.Parents) > 0 {
			s.Leaves++
		}
	}
	if s.Notes > 0 {
		s.AvgFanOut = float64(s.Edges) / float64(s.Notes)
	}
	for _, c := range d.Cycles {
		s.CycleNotes += c.Length
	}
	s.MaxDepth = v.maxDepth(roots)
	return s
}

// maxDepth is the longest BFS distance from any root down children edges.
// Each note is visited once, so cycles cannot extend the walk.
func (v *Validator) maxDepth(roots []string) int {
	visited := roaring.New()
	frontier := make([]uint32, 0, len(roots))
	for _, r := range roots {
		if id, ok := v.g.internalID(r); ok {
			visited.Add(id)
			frontier = append(frontier, id)
		}
	}

	depth := 0
	for len(frontier) > 0 {
		var next []uint32
		for _, id := range frontier {
			n := v.g.nodes[v.g.pathOf(id)]
			if n == nil {
				continue
			}
			for _, c := range n.Children {
				cid, ok := v.g.internalID(c.Path)
				if !ok || visited.Contains(cid) {
					continue
				}
				visited.Add(cid)
				next = append(next, cid)
			}
		}
		if len(next) == 0 {
			break
		}
		depth++
		frontier = next
	}
	return depth
}
