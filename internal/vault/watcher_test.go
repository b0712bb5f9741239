package vault

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// recordingHandler records notifications in arrival order.
type recordingHandler struct {
	events []string
}

func (h *recordingHandler) NoteUpserted(n note.Note) {
	h.events = append(h.events, "upsert "+n.Path)
}

func (h *recordingHandler) NoteRemoved(path string) {
	h.events = append(h.events, "remove "+path)
}

func (h *recordingHandler) NoteRenamed(n note.Note, oldPath string) {
	h.events = append(h.events, "rename "+oldPath+" -> "+n.Path)
}

func testWatcher(t *testing.T, files map[string]string) (*Watcher, *recordingHandler) {
	t.Helper()
	v := testVault(t, files)
	rec := &recordingHandler{}
	w := NewWatcher(filepath.FromSlash("/vault"), v, slog.New(slog.NewTextHandler(io.Discard, nil)), rec)
	return w, rec
}

func TestFlushDeliversUpsertsAndRemovals(t *testing.T) {
	w, rec := testWatcher(t, map[string]string{"old.md": ""})

	w.flush(map[string]pendingOp{
		"new.md": opUpsert,
		"old.md": opRemove,
	})

	assert.Equal(t, []string{"remove old.md", "upsert new.md"}, rec.events)
	assert.True(t, w.vault.Contains("new.md"))
	assert.False(t, w.vault.Contains("old.md"))
}

func TestFlushPairsRemoveAndCreateIntoRename(t *testing.T) {
	w, rec := testWatcher(t, map[string]string{"a.md": ""})

	// A move surfaces as a removal at the old path plus a creation at the
	// new one; matching basenames fold the pair into one rename.
	w.flush(map[string]pendingOp{
		"a.md":     opRemove,
		"sub/a.md": opUpsert,
	})

	assert.Equal(t, []string{"rename a.md -> sub/a.md"}, rec.events)
	assert.True(t, w.vault.Contains("sub/a.md"))
	assert.False(t, w.vault.Contains("a.md"))
}

func TestFlushRenameMatchesCaseInsensitively(t *testing.T) {
	w, rec := testWatcher(t, map[string]string{"note.md": ""})

	w.flush(map[string]pendingOp{
		"note.md": opRemove,
		"Note.md": opUpsert,
	})

	require.Len(t, rec.events, 1)
	assert.Equal(t, "rename note.md -> Note.md", rec.events[0])
}

func TestFlushDoesNotPairDistinctBasenames(t *testing.T) {
	w, rec := testWatcher(t, map[string]string{"a.md": ""})

	w.flush(map[string]pendingOp{
		"a.md": opRemove,
		"b.md": opUpsert,
	})

	assert.Equal(t, []string{"remove a.md", "upsert b.md"}, rec.events)
}

func TestFlushClaimsEachCreationOnce(t *testing.T) {
	w, rec := testWatcher(t, map[string]string{"x/dup.md": "", "y/dup.md": ""})

	// Two removals compete for one creation; only one becomes a rename.
	w.flush(map[string]pendingOp{
		"x/dup.md": opRemove,
		"y/dup.md": opRemove,
		"z/dup.md": opUpsert,
	})

	assert.Equal(t, []string{
		"rename x/dup.md -> z/dup.md",
		"remove y/dup.md",
	}, rec.events)
}

func TestRelPathFiltersNonNotes(t *testing.T) {
	v := Open(memfs.New())
	w := NewWatcher(filepath.FromSlash("/vault"), v, nil)

	tests := []struct {
		abs  string
		want string
		ok   bool
	}{
		{"/vault/a.md", "a.md", true},
		{"/vault/sub/b.md", "sub/b.md", true},
		{"/vault/sub/c.txt", "", false},
		{"/vault/.obsidian/workspace.md", "", false},
		{"/vault/.trash/d.md", "", false},
	}
	for _, tt := range tests {
		got, ok := w.relPath(filepath.FromSlash(tt.abs))
		assert.Equal(t, tt.ok, ok, "path %s", tt.abs)
		if tt.ok {
			assert.Equal(t, tt.want, got, "path %s", tt.abs)
		}
	}
}
