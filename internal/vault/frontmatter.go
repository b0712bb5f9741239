package vault

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/metacache"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
)

const frontmatterFence = "---"

// Load implements metacache.Loader: it reads a note and normalizes every
// top-level frontmatter field into a FieldValue. Partially broken input is
// the expected common case, so an unreadable file or malformed YAML yields
// empty metadata (every field absent) rather than an error.
func (v *Vault) Load(n note.Note) metacache.Metadata {
	content, err := util.ReadFile(v.fs, n.Path)
	if err != nil {
		return metacache.Metadata{}
	}
	return ParseFrontmatter(content)
}

// ParseFrontmatter extracts the leading YAML frontmatter block and
// normalizes its fields. The raw values arrive in whatever shape the author
// typed — scalar, list, or empty — and are resolved here, once, into the
// tagged form the engine consumes.
func ParseFrontmatter(content []byte) metacache.Metadata {
	block, ok := frontmatterBlock(string(content))
	if !ok {
		return metacache.Metadata{}
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return metacache.Metadata{}
	}

	md := make(metacache.Metadata, len(raw))
	for key, value := range raw {
		md[key] = normalizeFieldValue(value)
	}
	return md
}

// frontmatterBlock returns the YAML between the opening and closing fences.
func frontmatterBlock(content string) (string, bool) {
	rest, ok := strings.CutPrefix(content, frontmatterFence+"\n")
	if !ok {
		// A note may legitimately start with "---\r\n" on Windows.
		rest, ok = strings.CutPrefix(content, frontmatterFence+"\r\n")
		if !ok {
			return "", false
		}
	}
	end := strings.Index(rest, "\n"+frontmatterFence)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// normalizeFieldValue maps an arbitrarily shaped YAML value onto the
// tagged union {present-empty, single, list}.
func normalizeFieldValue(value any) note.FieldValue {
	switch v := value.(type) {
	case nil:
		return note.List() // "parent:" with no value — present but empty
	case string:
		if strings.TrimSpace(v) == "" {
			return note.List()
		}
		return note.Single(v)
	case []any:
		refs := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case nil:
				continue
			case string:
				if strings.TrimSpace(it) != "" {
					refs = append(refs, it)
				}
			default:
				refs = append(refs, fmt.Sprint(it))
			}
		}
		return note.List(refs...)
	case map[string]any:
		// Nested mappings carry no reference we can use; the field is
		// still declared.
		return note.List()
	default:
		return note.Single(fmt.Sprint(v))
	}
}
