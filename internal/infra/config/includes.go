package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxIncludeDepth = 10

// includeResolver overlays included YAML fragments onto a Config. chain is
// the stack of files being merged, outermost first, and is used to reject
// cycles.
type includeResolver struct {
	cfg   *Config
	chain []string
}

// resolveIncludes merges every fragment named by cfg.Includes, depth first
// and in listed order. root is the absolute path of the main file.
func resolveIncludes(cfg *Config, root string) error {
	r := &includeResolver{cfg: cfg, chain: []string{root}}
	return r.merge(filepath.Dir(root))
}

func (r *includeResolver) merge(dir string) error {
	if len(r.chain) > maxIncludeDepth {
		return fmt.Errorf("config includes: nesting deeper than %d", maxIncludeDepth)
	}
	patterns := r.cfg.Includes
	r.cfg.Includes = nil

	for _, pattern := range patterns {
		files, err := includeFiles(dir, pattern)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := r.overlay(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *includeResolver) overlay(path string) error {
	if slices.Contains(r.chain, path) {
		return fmt.Errorf("config includes: circular include of %q via %s", path, strings.Join(r.chain, " -> "))
	}
	if err := validatePermissions(path); err != nil {
		return fmt.Errorf("config includes: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config includes: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, r.cfg); err != nil {
		return fmt.Errorf("config includes: parse %q: %w", path, err)
	}

	r.chain = append(r.chain, path)
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()
	return r.merge(filepath.Dir(path))
}

// includeFiles returns the absolute files pattern names under dir. Relative
// patterns must stay inside dir. Globs may match nothing; literal paths are
// returned even when absent so the read fails loudly.
func includeFiles(dir, pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		full := filepath.Join(dir, pattern)
		if rel, err := filepath.Rel(dir, full); err != nil || !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("config includes: %q escapes config directory", pattern)
		}
		pattern = full
	}
	pattern = filepath.Clean(pattern)

	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("config includes: bad glob %q: %w", pattern, err)
	}
	return matches, nil
}
