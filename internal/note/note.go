// Package note defines the document value type shared by the graph engine
// and its host, plus the collaborator interfaces the engine consumes.
// The engine never parses or resolves anything itself; it only sees these.
package note

import (
	"path"
	"strings"
)

// Note identifies a document in the collection: a stable, opaque path and a
// display name. Notes are immutable values compared by Path only — two notes
// with the same path are the same document regardless of Name.
type Note struct {
	Path string
	Name string
}

// New builds a Note from a vault-relative path, deriving the display name
// from the basename without its extension.
func New(p string) Note {
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return Note{Path: p, Name: base}
}

// Same reports whether two notes identify the same document.
func (n Note) Same(other Note) bool {
	return n.Path == other.Path
}

// FieldValue is the normalized shape of a relationship field. The raw
// frontmatter value (absent, single string, list of strings) is resolved to
// this tagged form once, at the field-reader boundary.
//
// Present with zero Refs means the document declared the field with an empty
// value — it opted into the hierarchy but is currently rootless. That state
// is distinct from an absent field and matters for root classification.
type FieldValue struct {
	Present bool
	Refs    []string
}

// Absent is the FieldValue for a document that does not declare the field.
var Absent = FieldValue{}

// Single wraps one raw reference string.
func Single(ref string) FieldValue {
	return FieldValue{Present: true, Refs: []string{ref}}
}

// List wraps a list of raw reference strings. A nil or empty list is still
// Present.
func List(refs ...string) FieldValue {
	return FieldValue{Present: true, Refs: refs}
}

// FieldReader supplies the raw declared value of a configured field for a
// document. Implementations live host-side (frontmatter parsing, caching).
type FieldReader interface {
	ReadField(n Note, field string) FieldValue
}

// LinkResolver resolves a raw reference string, relative to the document
// that declared it, into a concrete note. The second return is false when
// the reference cannot be resolved; unresolvable references are expected
// input, not errors.
type LinkResolver interface {
	Resolve(ref string, source Note) (Note, bool)
}

// Enumerator returns the full set of documents in the collection. Used only
// during a full graph build.
type Enumerator interface {
	Notes() []Note
}
