package vault

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// ChangeHandler receives serialized change notifications. The engine is the
// canonical implementation; the watcher fans one event out to every handler
// (one per relationship field).
type ChangeHandler interface {
	NoteUpserted(n note.Note)
	NoteRemoved(path string)
	NoteRenamed(n note.Note, oldPath string)
}

// defaultSettle is how long the watcher waits after the last event before
// flushing a batch. Editors fire several writes per save; batching them
// keeps the engine from rebuilding per keystroke.
const defaultSettle = 200 * time.Millisecond

// Watcher follows a vault directory on disk and feeds the debounced,
// serialized stream of changes into the vault index and the registered
// handlers — all from a single goroutine, honoring the engine's
// single-threaded contract.
type Watcher struct {
	root     string
	vault    *Vault
	handlers []ChangeHandler
	log      *slog.Logger
	settle   time.Duration
}

// NewWatcher builds a watcher over the on-disk root backing v.
func NewWatcher(root string, v *Vault, log *slog.Logger, handlers ...ChangeHandler) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		root:     root,
		vault:    v,
		handlers: handlers,
		log:      log,
		settle:   defaultSettle,
	}
}

type pendingOp uint8

const (
	opUpsert pendingOp = iota
	opRemove
)

// Run watches until ctx is canceled. Events are batched until the
// filesystem settles, then applied in one pass.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}

	pending := make(map[string]pendingOp)
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.record(fw, event, pending) {
				settle = time.After(w.settle)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)

		case <-settle:
			settle = nil
			w.flush(pending)
			pending = make(map[string]pendingOp)
		}
	}
}

// record translates one fsnotify event into a pending op. Returns false
// for events the vault does not care about.
func (w *Watcher) record(fw *fsnotify.Watcher, event fsnotify.Event, pending map[string]pendingOp) bool {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, event.Name); err != nil {
				w.log.Warn("watch new directory", "dir", event.Name, "err", err)
			}
			return false
		}
	}

	rel, ok := w.relPath(event.Name)
	if !ok {
		return false
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		pending[rel] = opUpsert
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// A rename surfaces as Rename on the old path plus Create on the
		// new one; flush pairs them up by basename.
		pending[rel] = opRemove
	default:
		return false
	}
	return true
}

// flush applies a settled batch: removals and creations with a matching
// basename become renames, everything else maps 1:1 onto engine
// notifications.
func (w *Watcher) flush(pending map[string]pendingOp) {
	var removed, upserted []string
	for rel, op := range pending {
		if op == opRemove {
			removed = append(removed, rel)
		} else {
			upserted = append(upserted, rel)
		}
	}
	sort.Strings(removed)
	sort.Strings(upserted)

	renamed := make(map[string]string) // old -> new
	claimed := make(map[string]struct{})
	for _, old := range removed {
		for _, created := range upserted {
			if _, taken := claimed[created]; taken {
				continue
			}
			if strings.EqualFold(baseName(old), baseName(created)) {
				renamed[old] = created
				claimed[created] = struct{}{}
				break
			}
		}
	}

	for _, old := range removed {
		if created, ok := renamed[old]; ok {
			w.vault.Rename(old, created)
			n := note.New(created)
			for _, h := range w.handlers {
				h.NoteRenamed(n, old)
			}
			w.log.Info("note renamed", "from", old, "to", created)
			continue
		}
		w.vault.Remove(old)
		for _, h := range w.handlers {
			h.NoteRemoved(old)
		}
		w.log.Info("note removed", "path", old)
	}

	for _, created := range upserted {
		if _, wasRename := claimed[created]; wasRename {
			continue
		}
		w.vault.Add(created)
		n := note.New(created)
		for _, h := range w.handlers {
			h.NoteUpserted(n)
		}
		w.log.Info("note upserted", "path", created)
	}
}

// relPath converts an absolute event path to a vault-relative slash path,
// filtering out anything that is not a visible markdown note.
func (w *Watcher) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if insideDotDir(rel) || !strings.EqualFold(filepath.Ext(rel), markdownExt) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}
