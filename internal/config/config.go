// Package config loads the explorer's HCL configuration. The recognized
// surface is small: which frontmatter fields encode parent links, the
// default traversal depth, and the metadata cache bound.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Defaults applied when the file (or an attribute) is missing.
const (
	DefaultField     = "parent"
	DefaultMaxDepth  = 10
	DefaultCacheSize = 4096
)

// Hierarchy configures one relationship graph.
type Hierarchy struct {
	Field string `hcl:"field,label"`
}

// Config is the decoded configuration file.
//
//	max_depth  = 10
//	cache_size = 4096
//
//	hierarchy "parent" {}
//	hierarchy "source" {}
type Config struct {
	MaxDepth    int         `hcl:"max_depth,optional"`
	CacheSize   int         `hcl:"cache_size,optional"`
	Hierarchies []Hierarchy `hcl:"hierarchy,block"`
}

// Default is the configuration used when no file exists: one graph over
// the "parent" field.
func Default() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		CacheSize:   DefaultCacheSize,
		Hierarchies: []Hierarchy{{Field: DefaultField}},
	}
}

// Load reads and decodes path. A missing file is not an error — the
// defaults apply. A present but invalid file is.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", path, diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", path, diags.Error())
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if len(c.Hierarchies) == 0 {
		c.Hierarchies = []Hierarchy{{Field: DefaultField}}
	}
}

// Fields lists the configured relationship fields in declaration order.
func (c *Config) Fields() []string {
	fields := make([]string, 0, len(c.Hierarchies))
	for _, h := range c.Hierarchies {
		fields = append(fields, h.Field)
	}
	return fields
}
