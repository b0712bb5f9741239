package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/graph"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// fakeVault backs an engine with a mutable in-memory collection.
type fakeVault struct {
	order  []string
	fields map[string]note.FieldValue
}

func newFakeVault() *fakeVault {
	return &fakeVault{fields: make(map[string]note.FieldValue)}
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
	}
	return note.Note{}, false
}

// recordingCache records invalidations instead of caching anything.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(path string) {
	c.invalidated = append(c.invalidated, path)
}

func newEngine(v *fakeVault, cache Invalidator) *Engine {
	e := New(graph.New("parent", v, v, v), cache, 0)
	e.Build()
	return e
}

func paths(notes []note.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Path)
	}
	return out
}

func TestEngineQuerySurface(t *testing.T) {
	v := newFakeVault()
	v.add("gp.md", note.Absent)
	v.add("p1.md", note.Single("gp"))
	v.add("p2.md", note.Single("gp"))
	v.add("me.md", note.Single("p1"))
	v.add("sib.md", note.Single("p1"))
	v.add("cuz.md", note.Single("p2"))
	e := newEngine(v, nil)

	assert.Equal(t, [][]string{{"p1.md"}, {"gp.md"}},
		genPaths(e.Ancestors("me.md", 0)))
	assert.Equal(t, []string{"sib.md"}, paths(e.Siblings("me.md", false)))
	assert.Equal(t, []string{"cuz.md"}, paths(e.Cousins("me.md", 1)))
	assert.NotEmpty(t, e.Descendants("gp.md", 0))
	assert.False(t, e.HasCycles())
	assert.Nil(t, e.DetectCycle("me.md"))
	assert.True(t, e.ValidateGraph().Healthy())

	tree := e.AncestorTree("me.md", 0, nil, nil)
	require.NotNil(t, tree)
	assert.Equal(t, "me.md", tree.Note.Path)
	assert.Len(t, e.SiblingTrees("me.md", false, nil), 1)
	assert.Len(t, e.CousinTrees("me.md", 1, nil), 1)
}

func genPaths(gens [][]note.Note) [][]string {
	out := make([][]string, 0, len(gens))
	for _, gen := range gens {
		out = append(out, paths(gen))
	}
	return out
}

func TestNoteUpsertedInvalidatesAndRebuilds(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	cache := &recordingCache{}
	e := newEngine(v, cache)

	require.False(t, e.HasCycles())

	// b now declares a: the edit closes a loop.
	v.fields["b.md"] = note.Single("a")
	e.NoteUpserted(note.New("b.md"))

	assert.Equal(t, []string{"b.md"}, cache.invalidated)
	assert.True(t, e.HasCycles())
	c := e.DetectCycle("a.md")
	require.NotNil(t, c)
	assert.Equal(t, 2, c.Length)
}

func TestNoteRemoved(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Single("a"))
	cache := &recordingCache{}
	e := newEngine(v, cache)
	require.True(t, e.HasCycles())

	e.NoteRemoved("b.md")

	assert.Equal(t, []string{"b.md"}, cache.invalidated)
	assert.False(t, e.HasCycles())
	assert.Nil(t, e.Graph().Node("b.md"))
}

func TestNoteRenamedInvalidatesBothPaths(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	cache := &recordingCache{}
	e := newEngine(v, cache)

	e.NoteRenamed(note.New("b2.md"), "b.md")

	assert.Equal(t, []string{"b.md", "b2.md"}, cache.invalidated)
	assert.Equal(t, []string{"b2.md"}, paths(e.Graph().GetParents("a.md")))
}

func TestRefreshReusesComponentsUntilMutation(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	e := newEngine(v, nil)

	d1 := e.Detector()
	assert.Same(t, d1, e.Detector())
	assert.Same(t, e.Validator(), e.Validator())

	e.NoteUpserted(note.New("a.md"))
	d2 := e.Detector()
	assert.NotSame(t, d1, d2)
	assert.Equal(t, e.Graph().Generation(), d2.BuiltAt())
}

func TestEngineWithoutCache(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Absent)
	e := newEngine(v, nil)

	// nil cache must not panic on any notification.
	e.NoteUpserted(note.New("a.md"))
	e.NoteRenamed(note.New("a2.md"), "a.md")
	e.NoteRemoved("a2.md")
	assert.Equal(t, 0, e.Graph().Len())
}

func TestBuildIsReentrant(t *testing.T) {
	v := newFakeVault()
	v.add("a.md", note.Single("b"))
	v.add("b.md", note.Absent)
	e := newEngine(v, nil)

	before := e.ValidateGraph().Stats
	e.Build()
	assert.Equal(t, before, e.ValidateGraph().Stats)
}
