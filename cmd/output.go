package cmd

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/graph"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/traverse"
)

// printJSON writes v as indented JSON. Output structures are plain maps and
// slices so the wire shape is explicit rather than reflected off internal
// structs.
func printJSON(v any) {
	fmt.Println(oj.JSON(v, 2))
}

func noteMap(n note.Note) map[string]any {
	return map[string]any{"path": n.Path, "name": n.Name}
}

func notesMaps(notes []note.Note) []any {
	out := make([]any, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteMap(n))
	}
	return out
}

// generationsMaps renders generations as a list of lists, nearest first.
func generationsMaps(gens [][]note.Note) []any {
	if gens == nil {
		return nil
	}
	out := make([]any, 0, len(gens))
	for _, gen := range gens {
		out = append(out, notesMaps(gen))
	}
	return out
}

func cycleMap(c *graph.Cycle) map[string]any {
	return map[string]any{
		"path":   notesMaps(c.Path),
		"length": c.Length,
	}
}

func treeMap(t *traverse.TreeNode) map[string]any {
	if t == nil {
		return nil
	}
	m := map[string]any{
		"note":  noteMap(t.Note),
		"depth": t.Depth,
	}
	if t.IsCycle {
		m["cycle"] = true
	}
	if len(t.Meta) > 0 {
		m["meta"] = t.Meta
	}
	if len(t.Children) > 0 {
		children := make([]any, 0, len(t.Children))
		for _, c := range t.Children {
			children = append(children, treeMap(c))
		}
		m["children"] = children
	}
	return m
}

func diagnosticsMap(field string, d *graph.Diagnostics) map[string]any {
	cycles := make([]any, 0, len(d.Cycles))
	for _, c := range d.Cycles {
		cycles = append(cycles, cycleMap(c))
	}
	unresolved := make([]any, 0, len(d.Unresolved))
	for _, u := range d.Unresolved {
		unresolved = append(unresolved, map[string]any{
			"note": noteMap(u.Note),
			"ref":  u.Ref,
		})
	}
	broken := make([]any, 0, len(d.Broken))
	for _, b := range d.Broken {
		broken = append(broken, map[string]any{
			"parent":    noteMap(b.Parent),
			"child":     noteMap(b.Child),
			"direction": string(b.Direction),
		})
	}
	return map[string]any{
		"field":      field,
		"healthy":    d.Healthy(),
		"errors":     d.ErrorCount(),
		"cycles":     cycles,
		"unresolved": unresolved,
		"broken":     broken,
		"orphans":    notesMaps(d.Orphans),
		"stats": map[string]any{
			"notes":       d.Stats.Notes,
			"edges":       d.Stats.Edges,
			"roots":       d.Stats.Roots,
			"leaves":      d.Stats.Leaves,
			"avg_fan_out": d.Stats.AvgFanOut,
			"max_depth":   d.Stats.MaxDepth,
			"orphans":     d.Stats.Orphans,
			"cycle_notes": d.Stats.CycleNotes,
		},
	}
}

func cycleString(c *graph.Cycle) string {
	names := make([]string, 0, c.Length+1)
	for _, n := range c.Path {
		names = append(names, n.Name)
	}
	if len(c.Path) > 0 {
		names = append(names, c.Path[0].Name) // show the loop closing
	}
	return strings.Join(names, " -> ")
}

// printTree renders a materialized tree as an indented listing.
func printTree(t *traverse.TreeNode) {
	if t == nil {
		return
	}
	marker := ""
	if t.IsCycle {
		marker = "  [cycle]"
	}
	fmt.Printf("%s%s (%s)%s\n", strings.Repeat("  ", t.Depth), t.Note.Name, t.Note.Path, marker)
	for _, c := range t.Children {
		printTree(c)
	}
}

func printNotes(notes []note.Note) {
	for _, n := range notes {
		fmt.Printf("%s (%s)\n", n.Name, n.Path)
	}
}
