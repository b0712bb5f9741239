package graph

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// Cycle is a non-empty sequence of parent edges returning to its start.
// Path holds each member once, beginning with the note the query was asked
// about; Length is len(Path).
type Cycle struct {
	Path   []note.Note
	Length int
}

// Members returns the set of member paths.
func (c *Cycle) Members() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Path))
	for _, n := range c.Path {
		set[n.Path] = struct{}{}
	}
	return set
}

// Detector answers "is this note on a cycle of parent edges, and which
// one". Construction is linear in graph size; Detect itself is bounded by a
// visited set, never by path enumeration, so dense multi-parent graphs
// cannot blow up.
//
// A Detector is a snapshot: it holds the adjacency frozen at the graph
// generation it was built from and must be rebuilt after any mutation.
type Detector struct {
	g       *Graph
	builtAt uint64

	// Frozen parent adjacency over internal ids.
	adj [][]uint32

	// inCycle marks the internal id of every note that can reach itself
	// via one or more parent edges (strongly connected component of size
	// > 1, or a self-loop).
	inCycle *roaring.Bitmap
}

// NewDetector snapshots g's parent edges and precomputes cycle membership
// for every note.
func NewDetector(g *Graph) *Detector {
	d := &Detector{
		g:       g,
		builtAt: g.Generation(),
		adj:     make([][]uint32, len(g.byIntID)),
		inCycle: roaring.New(),
	}
	for path, n := range g.nodes {
		id, _ := g.internalID(path)
		edges := make([]uint32, 0, len(n.Parents))
		for _, p := range n.Parents {
			if pid, ok := g.internalID(p.Path); ok {
				if _, tracked := g.nodes[p.Path]; tracked {
					edges = append(edges, pid)
				}
			}
		}
		d.adj[id] = edges
	}
	d.markCycles()
	return d
}

// BuiltAt returns the graph generation this detector was computed from.
func (d *Detector) BuiltAt() uint64 { return d.builtAt }

// InCycle reports whether the note at path participates in any cycle.
func (d *Detector) InCycle(path string) bool {
	id, ok := d.g.internalID(path)
	if !ok {
		return false
	}
	if _, tracked := d.g.nodes[path]; !tracked {
		return false
	}
	return d.inCycle.Contains(id)
}

// HasCycles reports whether any note in the graph participates in a cycle.
func (d *Detector) HasCycles() bool {
	return !d.inCycle.IsEmpty()
}

// Detect returns the minimal cycle through the note at path, or nil when
// the note is not on any cycle (or unknown). The reported path starts at
// the queried note and follows parent edges.
func (d *Detector) Detect(path string) *Cycle {
	start, ok := d.g.internalID(path)
	if !ok || !d.inCycle.Contains(start) {
		return nil
	}

	// BFS over parent edges from start until start reappears. Breadth
	// order makes the first closing edge a shortest cycle; the visited
	// bitmap bounds the walk to one pass over the graph.
	visited := roaring.New()
	pred := make(map[uint32]uint32)
	frontier := []uint32{start}
	visited.Add(start)

	for len(frontier) > 0 {
		var next []uint32
		for _, cur := range frontier {
			for _, p := range d.adj[cur] {
				if p == start {
					return d.buildCycle(path, cur, pred)
				}
				if visited.Contains(p) {
					continue
				}
				visited.Add(p)
				pred[p] = cur
				next = append(next, p)
			}
		}
		frontier = next
	}
	// inCycle said yes but no closing edge was found; the snapshot can
	// only disagree with itself if the caller mutated the graph without
	// rebuilding. Degrade to "no cycle".
	return nil
}

// buildCycle walks pred back from last (the node whose parent edge closed
// the loop) to start and reverses into declaration direction.
func (d *Detector) buildCycle(startPath string, last uint32, pred map[uint32]uint32) *Cycle {
	start, _ := d.g.internalID(startPath)

	var reversed []uint32
	for cur := last; cur != start; cur = pred[cur] {
		reversed = append(reversed, cur)
	}

	path := make([]note.Note, 0, len(reversed)+1)
	if n := d.g.Node(startPath); n != nil {
		path = append(path, n.Note)
	}
	for i := len(reversed) - 1; i >= 0; i-- {
		if n := d.g.Node(d.g.pathOf(reversed[i])); n != nil {
			path = append(path, n.Note)
		}
	}
	return &Cycle{Path: path, Length: len(path)}
}

// markCycles runs an iterative Tarjan SCC pass over the frozen adjacency.
// Every member of a component with more than one note is on a cycle, as is
// any note with a self-edge.
func (d *Detector) markCycles() {
	n := len(d.adj)
	index := make([]int32, n)
	lowlink := make([]int32, n)
	onStack := roaring.New()
	for i := range index {
		index[i] = -1
	}

	var stack []uint32
	next := int32(0)

	type frame struct {
		v    uint32
		edge int
	}

	for v := 0; v < n; v++ {
		if index[v] != -1 {
			continue
		}
		work := []frame{{v: uint32(v)}}
		for len(work) > 0 {
			f := &work[len(work)-1]
			if f.edge == 0 {
				index[f.v] = next
				lowlink[f.v] = next
				next++
				stack = append(stack, f.v)
				onStack.Add(f.v)
			}
			advanced := false
			for f.edge < len(d.adj[f.v]) {
				w := d.adj[f.v][f.edge]
				f.edge++
				if w == f.v {
					d.inCycle.Add(f.v) // self-loop
					continue
				}
				if index[w] == -1 {
					work = append(work, frame{v: w})
					advanced = true
					break
				}
				if onStack.Contains(w) && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
			}
			if advanced {
				continue
			}
			// All edges done: pop, propagate lowlink, emit component.
			if lowlink[f.v] == index[f.v] {
				var comp []uint32
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack.Remove(w)
					comp = append(comp, w)
					if w == f.v {
						break
					}
				}
				if len(comp) > 1 {
					for _, w := range comp {
						d.inCycle.Add(w)
					}
				}
			}
			child := f.v
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[child] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[child]
				}
			}
		}
	}
}
