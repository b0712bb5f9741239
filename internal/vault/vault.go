// Package vault is the embedding host for the graph engine: it scans a
// note collection from a billy filesystem, parses YAML frontmatter into
// normalized field values, resolves wiki-style references to concrete
// notes, and feeds file-watcher events into the engine as serialized
// change notifications.
package vault

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

const markdownExt = ".md"

// Vault indexes the markdown notes of one collection. It implements
// note.Enumerator, note.LinkResolver and metacache.Loader, so a single
// Vault can back any number of graphs.
type Vault struct {
	fs billy.Filesystem

	paths  map[string]struct{} // vault-relative slash paths
	byName map[string][]string // lowercase basename (no ext) -> paths
}

// Open wraps fs. Call Scan before using the vault as an enumerator or
// resolver.
func Open(fs billy.Filesystem) *Vault {
	return &Vault{
		fs:     fs,
		paths:  make(map[string]struct{}),
		byName: make(map[string][]string),
	}
}

// Scan walks the filesystem and rebuilds the note index. Dot-directories
// (.obsidian, .git and friends) are skipped.
func (v *Vault) Scan() error {
	v.paths = make(map[string]struct{})
	v.byName = make(map[string][]string)

	return util.Walk(v.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if strings.HasPrefix(name, ".") && normalize(p) != "" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.EqualFold(path.Ext(name), markdownExt) {
			return nil
		}
		rel := normalize(p)
		if insideDotDir(rel) {
			return nil
		}
		v.index(rel)
		return nil
	})
}

// Notes implements note.Enumerator. Paths come back sorted so full builds
// are deterministic.
func (v *Vault) Notes() []note.Note {
	paths := make([]string, 0, len(v.paths))
	for p := range v.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	notes := make([]note.Note, 0, len(paths))
	for _, p := range paths {
		notes = append(notes, note.New(p))
	}
	return notes
}

// Contains reports whether the vault currently tracks path.
func (v *Vault) Contains(p string) bool {
	_, ok := v.paths[normalize(p)]
	return ok
}

// Resolve implements note.LinkResolver. The reference is stripped of wiki
// syntax ("[[Target|alias]]", "Target#heading"), then matched as an exact
// vault path, a source-relative path, or a unique basename. Ambiguous
// basenames and unknown targets stay unresolved.
func (v *Vault) Resolve(ref string, source note.Note) (note.Note, bool) {
	target := CleanRef(ref)
	if target == "" {
		return note.Note{}, false
	}

	for _, candidate := range []string{
		target,
		target + markdownExt,
		path.Join(path.Dir(source.Path), target),
		path.Join(path.Dir(source.Path), target+markdownExt),
	} {
		if _, ok := v.paths[normalize(candidate)]; ok {
			return note.New(normalize(candidate)), true
		}
	}

	if matches := v.byName[strings.ToLower(baseName(target))]; len(matches) == 1 {
		return note.New(matches[0]), true
	}
	return note.Note{}, false
}

// Add registers a single note path (used by the watcher for created files).
func (v *Vault) Add(p string) {
	v.index(normalize(p))
}

// Remove drops a single note path from the index.
func (v *Vault) Remove(p string) {
	rel := normalize(p)
	if _, ok := v.paths[rel]; !ok {
		return
	}
	delete(v.paths, rel)
	key := strings.ToLower(baseName(rel))
	kept := v.byName[key][:0]
	for _, existing := range v.byName[key] {
		if existing != rel {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		delete(v.byName, key)
	} else {
		v.byName[key] = kept
	}
}

// Rename moves a path in the index.
func (v *Vault) Rename(oldPath, newPath string) {
	v.Remove(oldPath)
	v.Add(newPath)
}

func (v *Vault) index(rel string) {
	if _, ok := v.paths[rel]; ok {
		return
	}
	v.paths[rel] = struct{}{}
	key := strings.ToLower(baseName(rel))
	v.byName[key] = append(v.byName[key], rel)
	sort.Strings(v.byName[key])
}

// CleanRef reduces a raw reference to its target: wiki brackets, alias and
// heading suffixes and the markdown extension are stripped.
func CleanRef(ref string) string {
	r := strings.TrimSpace(ref)
	r = strings.TrimPrefix(r, "[[")
	r = strings.TrimSuffix(r, "]]")
	if i := strings.IndexByte(r, '|'); i >= 0 {
		r = r[:i]
	}
	if i := strings.IndexByte(r, '#'); i >= 0 {
		r = r[:i]
	}
	r = strings.TrimSpace(r)
	return strings.TrimSuffix(r, markdownExt)
}

// normalize strips leading slashes so index keys match note paths
// regardless of how the walker reported them.
func normalize(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func insideDotDir(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func baseName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
