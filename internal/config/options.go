package config

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/types"
	"github.com/mamaar/nsadjust/pkg/xaml"
)

// WorkspaceOptions maps c onto the options of adjust.OpenWorkspace.
func (c *Config) WorkspaceOptions(logger *slog.Logger) adjust.WorkspaceOptions {
	return adjust.WorkspaceOptions{
		MarkupExtensions: c.MarkupExtensions,
		Exclude:          c.Exclude,
		Workers:          c.ParseWorkers,
		RootNamespace:    c.RootNamespace,
		Logger:           logger,
	}
}

// RunOptions maps c onto the options of a batch run in the workspace at root.
func (c *Config) RunOptions(root string, force bool, logger *slog.Logger) adjust.RunOptions {
	return adjust.RunOptions{
		ExcludedNamespaces: c.ExcludedNamespaces,
		Markup:             xaml.Options{KeepUnusedAliases: !c.Markup.RemoveUnusedAliases, Logger: logger},
		Force:              force,
		InScope:            c.InScope(root),
		Logger:             logger,
	}
}

// InScope reports whether a document under root escapes every exclude
// pattern. Documents outside root are out of scope.
func (c *Config) InScope(root string) func(doc *types.Document) bool {
	return func(doc *types.Document) bool {
		rel, err := filepath.Rel(root, doc.Path)
		if err != nil {
			return false
		}
		rel = filepath.ToSlash(rel)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return false
		}
		for _, pattern := range c.Exclude {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return false
			}
		}
		return true
	}
}

// WatchExtensions returns every extension the file watcher follows.
func (c *Config) WatchExtensions() []string {
	return append([]string{".cs"}, c.MarkupExtensions...)
}
