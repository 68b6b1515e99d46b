// Package census tracks which types remain in each namespace during a batch of
// moves and strips the using directives of namespaces the batch emptied.
package census

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mamaar/nsadjust/pkg/fixer"
	"github.com/mamaar/nsadjust/pkg/types"
)

// TypeSource enumerates every type of a workspace
type TypeSource interface {
	AllTypes(ctx context.Context) ([]*types.Symbol, error)
}

// Census maps namespaces to the types still believed to live there. It is
// owned by one batch run and not safe for concurrent use.
type Census struct {
	members map[string]map[string]bool
	removed map[string]bool
	order   []string
}

func New() *Census {
	return &Census{
		members: make(map[string]map[string]bool),
		removed: make(map[string]bool),
	}
}

// Build records every type reported by src.
func Build(ctx context.Context, src TypeSource) (*Census, error) {
	all, err := src.AllTypes(ctx)
	if err != nil {
		return nil, err
	}
	c := New()
	for _, sym := range all {
		c.Add(sym.Namespace, sym.FullName)
	}
	return c, nil
}

// Add records a type in namespace. Emptied namespaces stay emptied.
func (c *Census) Add(namespace, fullName string) {
	if c.removed[namespace] {
		return
	}
	set, ok := c.members[namespace]
	if !ok {
		set = make(map[string]bool)
		c.members[namespace] = set
	}
	set[fullName] = true
}

// TypeRemoved records that a type left its namespace and reports whether this
// emptied the namespace.
func (c *Census) TypeRemoved(sym *types.Symbol) bool {
	set, ok := c.members[sym.Namespace]
	if !ok {
		return false
	}
	delete(set, sym.FullName)
	if len(set) > 0 {
		return false
	}
	delete(c.members, sym.Namespace)
	if !c.removed[sym.Namespace] {
		c.removed[sym.Namespace] = true
		c.order = append(c.order, sym.Namespace)
	}
	return true
}

// Remaining returns the types still recorded in namespace, sorted.
func (c *Census) Remaining(namespace string) []string {
	var names []string
	for name := range c.members[namespace] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespaces returns every namespace that still holds types, sorted.
func (c *Census) Namespaces() []string {
	names := make([]string, 0, len(c.members))
	for ns := range c.members {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// ShouldRemove reports whether namespace was emptied.
func (c *Census) ShouldRemove(namespace string) bool {
	return c.removed[namespace]
}

// NamespacesToRemove returns the emptied namespaces in the order they emptied.
func (c *Census) NamespacesToRemove() []string {
	return append([]string(nil), c.order...)
}

// Workspace is what the cleanup sweep reads and edits
type Workspace interface {
	fixer.Workspace
	Documents() []*types.Document
}

// SweepOptions narrows which documents the sweep edits
type SweepOptions struct {
	// InScope reports whether a document belongs to the active configuration.
	InScope func(doc *types.Document) bool
	Logger  *slog.Logger
}

// Sweep removes plain using directives of every emptied namespace from the
// in-scope C# documents of ws and returns how many were removed. Generated
// documents are skipped. Cancellation is checked between documents.
func Sweep(ctx context.Context, ws Workspace, c *Census, opts SweepOptions) (int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	namespaces := c.NamespacesToRemove()
	if len(namespaces) == 0 {
		return 0, nil
	}

	batch := fixer.NewBatch(ws, logger)
	for _, doc := range ws.Documents() {
		if err := ctx.Err(); err != nil {
			return batch.Applied(fixer.RemoveImportKind), &types.RefactorError{
				Type:    types.Cancelled,
				Message: "import cleanup cancelled",
				Cause:   err,
			}
		}
		if doc.Kind != types.CSharpDocument || doc.Generated {
			continue
		}
		if opts.InScope != nil && !opts.InScope(doc) {
			continue
		}

		for _, ns := range namespaces {
			batch.RemoveImport(doc.Path, ns)
		}
		if _, err := batch.Apply(ctx); err != nil {
			return batch.Applied(fixer.RemoveImportKind), err
		}
	}

	removed := batch.Applied(fixer.RemoveImportKind)
	logger.Info("import cleanup finished", "namespaces", len(namespaces), "removed", removed)
	return removed, nil
}
