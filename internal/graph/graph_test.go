package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// fakeVault is an in-memory collection for graph tests: it enumerates
// notes in insertion order, serves field values from a map, and resolves a
// reference when it names a known path (with or without the .md suffix).
type fakeVault struct {
	order  []string
	fields map[string]note.FieldValue
	// extra paths the resolver knows about but the enumerator does not,
	// standing in for notes referenced before they are scanned.
	resolvable map[string]struct{}
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		fields:     make(map[string]note.FieldValue),
		resolvable: make(map[string]struct{}),
	}
}

func (f *fakeVault) add(path string, fv note.FieldValue) {
	f.order = append(f.order, path)
	f.fields[path] = fv
}

func (f *fakeVault) Notes() []note.Note {
	notes := make([]note.Note, 0, len(f.order))
	for _, p := range f.order {
		notes = append(notes, note.New(p))
	}
	return notes
}

func (f *fakeVault) ReadField(n note.Note, field string) note.FieldValue {
	if field != "parent" {
		return note.Absent
	}
	return f.fields[n.Path]
}

func (f *fakeVault) Resolve(ref string, _ note.Note) (note.Note, bool) {
	for _, candidate := range []string{ref, ref + ".md"} {
		if _, ok := f.fields[candidate]; ok {
			return note.New(candidate), true
		}
		if _, ok := f.resolvable[candidate]; ok {
			return note.New(candidate), true
		}
	}
	return note.Note{}, false
}

func buildGraph(v *fakeVault) *Graph {
	g := New("parent", v, v, v)
	g.Build()
	return g
}

func paths(notes []note.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Path)
	}
	return out
}

// checkInvariant fails the test if any parent edge lacks its mirrored
// child edge or vice versa.
func checkInvariant(t *testing.T, g *Graph) {
	t.Helper()
	for _, p := range g.Paths() {
		n := g.Node(p)
		for _, parent := range n.Parents {
			pn := g.Node(parent.Path)
			require.NotNil(t, pn, "parent %s of %s is untracked", parent.Path, p)
			assert.True(t, containsPath(pn.Children, p),
				"%s lists parent %s but is missing from its children", p, parent.Path)
		}
		for _, child := range n.Children {
			cn := g.Node(child.Path)
			require.NotNil(t, cn, "child %s of %s is untracked", child.Path, p)
			assert.True(t, containsPath(cn.Parents, p),
				"%s lists child %s but is missing from its parents", p, child.Path)
		}
	}
}

func TestBuildInvertsParents(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	g := buildGraph(v)

	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("a.md")))
	assert.Equal(t, []string{"a.md"}, paths(g.GetChildren("b.md")))
	assert.Empty(t, g.GetParents("b.md"))
	checkInvariant(t, g)
}

func TestBuildIsIdempotent(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.List("b", "c"))
	v.add("b.md", note.Single("c"))
	v.add("c.md", note.Absent)

	g := buildGraph(v)
	first := snapshot(g)
	g.Build()
	assert.Equal(t, first, snapshot(g))
}

func snapshot(g *Graph) map[string][2][]string {
	out := make(map[string][2][]string)
	for _, p := range g.Paths() {
		n := g.Node(p)
		out[p] = [2][]string{paths(n.Parents), paths(n.Children)}
	}
	return out
}

func TestBuildCreatesPlaceholderForUnscannedParent(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("ghost"))
	v.resolvable["ghost.md"] = struct{}{}
	g := buildGraph(v)

	ghost := g.Node("ghost.md")
	require.NotNil(t, ghost)
	assert.False(t, ghost.HasField)
	assert.Equal(t, []string{"a.md"}, paths(ghost.Children))
	checkInvariant(t, g)
}

func TestBuildKeepsDuplicateParentsDedupesChildren(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.List("b", "b"))
	v.add("b.md", note.Absent)
	g := buildGraph(v)

	assert.Equal(t, []string{"b.md", "b.md"}, paths(g.GetParents("a.md")))
	assert.Equal(t, []string{"a.md"}, paths(g.GetChildren("b.md")))
}

func TestBuildDropsUnresolvableRefs(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.List("b", "nowhere"))
	v.add("b.md", note.Absent)
	g := buildGraph(v)

	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("a.md")))
	assert.Equal(t, []string{"b", "nowhere"}, g.RawRefs("a.md"))
}

func TestGetParentsUnknownPath(t *testing.T) {
	g := buildGraph(newFakeVault())
	assert.Nil(t, g.GetParents("missing.md"))
	assert.Nil(t, g.GetChildren("missing.md"))
	assert.False(t, g.HasField("missing.md"))
}

func TestHasFieldDistinguishesEmptyFromAbsent(t *testing.T) {
	v := newFakeVault()
	v.add("rootless.md", note.List()) // declared, empty
	v.add("outside.md", note.Absent)
	g := buildGraph(v)

	assert.True(t, g.HasField("rootless.md"))
	assert.False(t, g.HasField("outside.md"))
}

func TestUpdateNodeReparents(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	v.add("c.md", note.Absent)
	v.add("d.md", note.Single("b"))
	g := buildGraph(v)
	gen := g.Generation()

	v.fields["a.md"] = note.Single("c")
	g.UpdateNode(note.New("a.md"))

	assert.Equal(t, []string{"c.md"}, paths(g.GetParents("a.md")))
	assert.Equal(t, []string{"a.md"}, paths(g.GetChildren("c.md")))
	// b keeps its other child, a is gone.
	assert.Equal(t, []string{"d.md"}, paths(g.GetChildren("b.md")))
	// Unrelated node untouched.
	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("d.md")))
	assert.Greater(t, g.Generation(), gen)
	checkInvariant(t, g)
}

func TestUpdateNodeBrandNew(t *testing.T) {
	v := newFakeVault()
	v.add("b.md", note.Absent)
	g := buildGraph(v)

	v.fields["new.md"] = note.Single("b")
	g.UpdateNode(note.New("new.md"))

	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("new.md")))
	assert.Equal(t, []string{"new.md"}, paths(g.GetChildren("b.md")))
	checkInvariant(t, g)
}

func TestRemoveNodeDetachesBothDirections(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Single("c"))
	v.add("c.md", note.Absent)
	g := buildGraph(v)

	g.RemoveNode("b.md")

	assert.Nil(t, g.Node("b.md"))
	assert.Empty(t, g.GetParents("a.md"))
	assert.Empty(t, g.GetChildren("c.md"))
	assert.NotContains(t, g.Paths(), "b.md")
	assert.Equal(t, 2, g.Len())
	checkInvariant(t, g)
}

func TestRemoveNodeUnknownIsNoop(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Absent)
	g := buildGraph(v)
	gen := g.Generation()

	g.RemoveNode("missing.md")
	assert.Equal(t, gen, g.Generation())
	assert.Equal(t, 1, g.Len())
}

func TestRenameNodePreservesTopology(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.List("b", "c"))
	v.add("b.md", note.Single("d"))
	v.add("c.md", note.Absent)
	v.add("d.md", note.Absent)
	g := buildGraph(v)

	g.RenameNode(note.New("moved/b2.md"), "b.md")

	require.Nil(t, g.Node("b.md"))
	moved := g.Node("moved/b2.md")
	require.NotNil(t, moved)
	assert.Equal(t, "b2", moved.Note.Name)
	// a's parent order is preserved, with the renamed entry rewritten in
	// place.
	assert.Equal(t, []string{"moved/b2.md", "c.md"}, paths(g.GetParents("a.md")))
	assert.Equal(t, []string{"d.md"}, paths(g.GetParents("moved/b2.md")))
	assert.Equal(t, []string{"moved/b2.md"}, paths(g.GetChildren("d.md")))
	checkInvariant(t, g)
}

func TestRenameNodeSelfLoop(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("a"))
	g := buildGraph(v)

	g.RenameNode(note.New("b.md"), "a.md")

	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("b.md")))
	assert.Equal(t, []string{"b.md"}, paths(g.GetChildren("b.md")))
	checkInvariant(t, g)
}

func TestRenameNodeOntoTrackedPath(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	v.add("c.md", note.Absent)
	g := buildGraph(v)

	// c.md is overwritten by a rename of a.md; a's field value travels to
	// the destination path.
	v.fields["c.md"] = v.fields["a.md"]
	g.RenameNode(note.New("c.md"), "a.md")

	assert.Nil(t, g.Node("a.md"))
	assert.Equal(t, []string{"c.md"}, paths(g.GetChildren("b.md")))
	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("c.md")))
	checkInvariant(t, g)
}

func TestGenerationAdvancesOnEveryMutation(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	g := New("parent", v, v, v)

	gen := g.Generation()
	g.Build()
	require.Greater(t, g.Generation(), gen)

	gen = g.Generation()
	g.UpdateNode(note.New("a.md"))
	require.Greater(t, g.Generation(), gen)

	gen = g.Generation()
	g.RenameNode(note.New("a2.md"), "a.md")
	require.Greater(t, g.Generation(), gen)

	gen = g.Generation()
	g.RemoveNode("a2.md")
	require.Greater(t, g.Generation(), gen)
}

func TestGetParentsReturnsCopy(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	g := buildGraph(v)

	got := g.GetParents("a.md")
	got[0] = note.New("mutated.md")
	assert.Equal(t, []string{"b.md"}, paths(g.GetParents("a.md")))
}
