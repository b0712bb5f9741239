// Package cmd wires the CLI around the relationship graph engine. Commands
// share a single setup path: load config, scan the vault, build one graph
// per configured field.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/config"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/engine"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/graph"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/metacache"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/vault"
)

// noteArgContext is the resolver source for CLI arguments: resolution is
// vault-root relative.
var noteArgContext = note.Note{}

var (
	vaultPath  string
	configPath string
	fieldName  string
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "relations",
	Short: "Explore parent relationships declared in a markdown vault",
	Long: `relations maintains a graph of the parent links declared in note
frontmatter and answers structural queries over it: ancestors,
descendants, siblings, cousins, cycles and graph-health diagnostics.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "v", ".", "Path to the vault root")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to relations.hcl (default <vault>/relations.hcl)")
	rootCmd.PersistentFlags().StringVarP(&fieldName, "field", "f", "", "Relationship field (overrides configured hierarchies)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
}

// app bundles everything a command needs after setup.
type app struct {
	cfg     *config.Config
	vault   *vault.Vault
	cache   *metacache.Cache
	engines map[string]*engine.Engine
	primary *engine.Engine
}

// loadApp loads config, scans the vault and builds every configured graph.
// All graphs share one metadata cache, so a note's frontmatter is parsed
// once no matter how many fields are tracked.
func loadApp() (*app, error) {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(vaultPath, "relations.hcl")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if fieldName != "" {
		cfg.Hierarchies = []config.Hierarchy{{Field: fieldName}}
	}

	v := vault.Open(osfs.New(vaultPath))
	if err := v.Scan(); err != nil {
		return nil, fmt.Errorf("scan vault %s: %w", vaultPath, err)
	}

	cache, err := metacache.New(v, cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		vault:   v,
		cache:   cache,
		engines: make(map[string]*engine.Engine),
	}
	for _, field := range cfg.Fields() {
		g := graph.New(field, cache, v, v)
		e := engine.New(g, cache, cfg.MaxDepth)
		e.Build()
		a.engines[field] = e
		if a.primary == nil {
			a.primary = e
		}
	}
	return a, nil
}

// resolveArg turns a CLI note argument (path, path without extension, or
// bare name) into a tracked note path.
func (a *app) resolveArg(arg string) (string, error) {
	if a.primary.Graph().Node(arg) != nil {
		return arg, nil
	}
	if n, ok := a.vault.Resolve(arg, noteArgContext); ok {
		return n.Path, nil
	}
	return "", fmt.Errorf("unknown note %q", arg)
}
