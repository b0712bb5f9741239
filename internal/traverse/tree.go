package traverse

import (
	"github.com/fkloosterman/relations-obsidian-sub000/internal/graph"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// TreeNode is an immutable snapshot produced by tree materialization, for
// consumption by presentation layers. It is never part of the graph itself,
// and rebuilding a tree never mutates a previously returned one.
type TreeNode struct {
	Note     note.Note
	Children []*TreeNode
	Depth    int
	IsCycle  bool
	Meta     map[string]any
}

// Filter decides whether a candidate child is included in a tree. Filtering
// happens during construction, so a rejected branch never consumes depth.
type Filter func(n note.Note) bool

// MetadataProvider supplies presentation hints attached to each node.
type MetadataProvider func(n note.Note) map[string]any

// TreeBuilder materializes traversals into bounded annotated trees. It
// needs a cycle detector built at the graph's current generation for the
// global half of cycle marking.
type TreeBuilder struct {
	g            *graph.Graph
	det          *graph.Detector
	defaultDepth int
}

// NewTreeBuilder wires a builder over g and det. defaultDepth <= 0 falls
// back to DefaultMaxDepth.
func NewTreeBuilder(g *graph.Graph, det *graph.Detector, defaultDepth int) *TreeBuilder {
	if defaultDepth <= 0 {
		defaultDepth = DefaultMaxDepth
	}
	return &TreeBuilder{g: g, det: det, defaultDepth: defaultDepth}
}

// AncestorTree builds the tree of ancestors rooted at the note at path,
// nesting each generation of parents under the previous one. Returns nil
// for unknown notes.
func (b *TreeBuilder) AncestorTree(path string, maxDepth int, filter Filter, meta MetadataProvider) *TreeNode {
	return b.build(path, maxDepth, filter, meta, b.g.GetParents)
}

// DescendantTree is the symmetric tree over children edges.
func (b *TreeBuilder) DescendantTree(path string, maxDepth int, filter Filter, meta MetadataProvider) *TreeNode {
	return b.build(path, maxDepth, filter, meta, b.g.GetChildren)
}

// SiblingTrees returns one depth-0 root per sibling, with no nesting
// between the results.
func (b *TreeBuilder) SiblingTrees(path string, includeSelf bool, meta MetadataProvider) []*TreeNode {
	return b.flat(New(b.g, b.defaultDepth).Siblings(path, includeSelf), meta)
}

// CousinTrees returns one depth-0 root per cousin of the given degree.
func (b *TreeBuilder) CousinTrees(path string, degree int, meta MetadataProvider) []*TreeNode {
	return b.flat(New(b.g, b.defaultDepth).Cousins(path, degree), meta)
}

func (b *TreeBuilder) flat(notes []note.Note, meta MetadataProvider) []*TreeNode {
	var out []*TreeNode
	for _, n := range notes {
		out = append(out, &TreeNode{
			Note:    n,
			IsCycle: b.det.InCycle(n.Path),
			Meta:    provide(meta, n),
		})
	}
	return out
}

func (b *TreeBuilder) build(path string, maxDepth int, filter Filter, meta MetadataProvider, next func(string) []note.Note) *TreeNode {
	root := b.g.Node(path)
	if root == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = b.defaultDepth
	}
	onPath := make(map[string]struct{})
	return b.node(root.Note, 0, maxDepth, onPath, filter, meta, next)
}

// node materializes one note and, recursion permitting, its relatives.
//
// Cycle marking is a dual condition. A node is IsCycle when (a) its note
// already appears earlier on the current recursive path — a true
// repetition, where recursion must stop to terminate — or (b) the detector
// says the note is on some global cycle, even on its first appearance on
// this path. In case (b) recursion continues: the actual repetition will be
// caught later on this path or a sibling path, and conflating marking with
// stopping would truncate valid branches.
func (b *TreeBuilder) node(n note.Note, depth, maxDepth int, onPath map[string]struct{}, filter Filter, meta MetadataProvider, next func(string) []note.Note) *TreeNode {
	_, repeated := onPath[n.Path]
	tn := &TreeNode{
		Note:    n,
		Depth:   depth,
		IsCycle: repeated || b.det.InCycle(n.Path),
		Meta:    provide(meta, n),
	}
	if repeated || depth >= maxDepth {
		return tn
	}

	onPath[n.Path] = struct{}{}
	for _, rel := range next(n.Path) {
		if filter != nil && !filter(rel) {
			continue
		}
		tn.Children = append(tn.Children, b.node(rel, depth+1, maxDepth, onPath, filter, meta, next))
	}
	delete(onPath, n.Path)
	return tn
}

func provide(meta MetadataProvider, n note.Note) map[string]any {
	if meta == nil {
		return nil
	}
	return meta(n)
}
