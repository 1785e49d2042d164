package services

import (
	"context"
	"path"
	"strings"

	"github.com/lborres/linkage/pkg/cache"
)

// SourceDir is where relative imports in bundled output are resolved from
const SourceDir = "src"

// ModuleResolver serves browser-loadable modules: bundle, then rewrite imports
type ModuleResolver struct {
	bundler Bundler
	rules   []Rule
	cache   *cache.InMemory[string]
}

// NewModuleResolver uses DefaultRules when rules is nil. A nil cache disables caching.
func NewModuleResolver(bundler Bundler, rules []Rule, c *cache.InMemory[string]) *ModuleResolver {
	if rules == nil {
		rules = DefaultRules(SourceDir)
	}
	return &ModuleResolver{
		bundler: bundler,
		rules:   rules,
		cache:   c,
	}
}

// Resolve bundles entry, a path relative to the project root, and rewrites
// its imports. Entries that escape the root are clamped to it.
func (m *ModuleResolver) Resolve(ctx context.Context, entry string, platform Platform) (string, error) {
	entry = strings.TrimPrefix(path.Clean("/"+entry), "/")
	key := string(platform) + ":" + entry

	if m.cache != nil {
		if code, err := m.cache.Get(key); err == nil {
			return code, nil
		}
	}

	bundled, err := m.bundler.Bundle(ctx, entry, platform)
	if err != nil {
		return "", err
	}

	code := Rewrite(bundled, m.rules)

	if m.cache != nil {
		m.cache.Set(key, code)
	}
	return code, nil
}

// Stats reports the transform cache counters. ok is false when caching is off.
func (m *ModuleResolver) Stats() (stats cache.Stats, ok bool) {
	if m.cache == nil {
		return cache.Stats{}, false
	}
	return m.cache.Stats(), true
}
