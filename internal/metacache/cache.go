// Package metacache provides a bounded, read-through cache of parsed note
// metadata. Several relationship graphs (one per configured field) can share
// a single cache instance so the same note is never parsed twice. The cache
// is always an explicitly injected dependency, never a package-level global.
package metacache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

// DefaultSize bounds the cache when the caller does not configure one.
const DefaultSize = 4096

// Metadata holds every normalized field parsed from one note, keyed by
// field name.
type Metadata map[string]note.FieldValue

// Loader parses a note's structured metadata from its source. Called at
// most once per note between invalidations.
type Loader interface {
	Load(n note.Note) Metadata
}

// Cache is a read-through LRU over a Loader.
type Cache struct {
	loader  Loader
	entries *lru.Cache[string, Metadata]
}

// New builds a cache of the given size over loader. Size <= 0 uses
// DefaultSize.
func New(loader Loader, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, Metadata](size)
	if err != nil {
		return nil, fmt.Errorf("create metadata cache: %w", err)
	}
	return &Cache{loader: loader, entries: entries}, nil
}

// ReadField implements note.FieldReader. A miss loads the whole note's
// metadata once, so sibling graphs reading other fields hit the cache.
func (c *Cache) ReadField(n note.Note, field string) note.FieldValue {
	md, ok := c.entries.Get(n.Path)
	if !ok {
		md = c.loader.Load(n)
		if md == nil {
			md = Metadata{}
		}
		c.entries.Add(n.Path, md)
	}
	return md[field]
}

// Invalidate drops the cached metadata for a path. Must be called before
// re-reading a changed or renamed note.
func (c *Cache) Invalidate(path string) {
	c.entries.Remove(path)
}

// Len reports how many notes are currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}
