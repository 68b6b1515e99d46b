// Package adjust sequences one namespace adjustment: transitions, reference
// rewrites, the subject's own namespace blocks, markup files and the final
// import cleanup.
package adjust

import (
	"context"
	"log/slog"

	"github.com/mamaar/nsadjust/pkg/census"
	"github.com/mamaar/nsadjust/pkg/classify"
	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/fixer"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/transition"
	"github.com/mamaar/nsadjust/pkg/types"
	"github.com/mamaar/nsadjust/pkg/xaml"
)

// Options configures an Adjuster
type Options struct {
	// ExcludedNamespaces are never moved, e.g. generated namespaces.
	ExcludedNamespaces []string
	// Census, when set, is told about every moved type.
	Census *census.Census
	Markup xaml.Options
	Logger *slog.Logger
}

// Outcome describes what adjusting one file did
type Outcome struct {
	File         string                  `json:"file"`
	Transitions  []transition.Transition `json:"transitions"`
	Moved        []types.MovedType       `json:"moved"`
	ChangedFiles []string                `json:"changed_files"`
	MarkupFiles  []string                `json:"markup_files"`
	Stats        classify.Stats          `json:"stats"`
	Issues       []types.Issue           `json:"issues,omitempty"`
}

// Adjuster moves the types of one subject file at a time
type Adjuster struct {
	oracle   semantic.Oracle
	logger   *slog.Logger
	opts     Options
	excluded map[string]bool
}

func NewAdjuster(oracle semantic.Oracle, opts Options) *Adjuster {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Markup.Logger == nil {
		opts.Markup.Logger = logger
	}
	return &Adjuster{oracle: oracle, logger: logger, opts: opts, excluded: excludedSet(opts.ExcludedNamespaces)}
}

func excludedSet(namespaces []string) map[string]bool {
	excluded := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		excluded[ns] = true
	}
	return excluded
}

// transitionsFor computes the transitions of root under target, leaving out
// excluded namespaces.
func transitionsFor(root *csharp.File, target string, excluded map[string]bool, logger *slog.Logger) *transition.Container {
	var kept []transition.Transition
	for _, t := range transition.Compute(root, target).All() {
		if excluded[t.Original] {
			logger.Debug("namespace excluded", "file", root.Path, "namespace", t.Original)
			continue
		}
		kept = append(kept, t)
	}
	return transition.NewContainer(root.Path, kept...)
}

// AdjustFile moves the namespaces declared in path under target and reports
// whether there was anything to change.
func (a *Adjuster) AdjustFile(ctx context.Context, path, target string) (bool, error) {
	outcome, err := a.Adjust(ctx, path, target)
	return outcome != nil, err
}

// Adjust is AdjustFile returning the details. A nil outcome means the file was
// skipped: it has no tree or nothing to move.
func (a *Adjuster) Adjust(ctx context.Context, path, target string) (*Outcome, error) {
	root, err := a.oracle.SyntaxRoot(ctx, path)
	if err != nil {
		if types.IsEnvironmentMissing(err) {
			a.logger.Warn("skipping file without syntax tree", "file", path, "err", err)
			return nil, nil
		}
		return nil, err
	}

	transitions := transitionsFor(root, target, a.excluded, a.logger)
	if transitions.Empty() {
		a.logger.Debug("nothing to adjust", "file", path, "target", target)
		return nil, nil
	}

	// Once a file starts rewriting it is finished.
	ctx = context.WithoutCancel(ctx)

	declared, err := a.oracle.DeclaredTypes(ctx, path)
	if err != nil {
		if types.IsEnvironmentMissing(err) {
			a.logger.Warn("skipping file without semantic model", "file", path, "err", err)
			return nil, nil
		}
		return nil, err
	}

	outcome := &Outcome{File: path, Transitions: transitions.All()}
	batch := fixer.NewBatch(a.oracle, a.logger)
	rewriter := classify.NewRewriter(a.oracle, batch, a.logger)

	var moved []*types.Symbol
	for _, sym := range declared {
		if !transitions.Has(sym.Namespace) {
			continue
		}
		stats, err := rewriter.Rewrite(ctx, sym, transitions, path)
		if err != nil {
			return outcome, err
		}
		outcome.Stats.Add(stats)
		moved = append(moved, sym)
	}

	// The subject's own blocks. Only top-level names are written; nested
	// blocks keep their relative names.
	for _, block := range root.NamespaceBlocks() {
		if !block.IsRoot() || !transitions.Has(block.FullName) {
			continue
		}
		tr, err := transitions.Lookup(block.FullName)
		if err != nil {
			return outcome, err
		}
		batch.Replace(path, root, fixer.Replacement{
			Start:       block.NameNode.Start,
			End:         block.NameNode.End,
			Old:         root.Text(block.NameNode),
			New:         tr.Modified,
			Description: "Rename namespace " + tr.Original,
		})
		// Types left behind in the old namespace may still be used here.
		batch.ForceImport(path, tr.Original)
	}

	changed, err := batch.Apply(ctx)
	if err != nil {
		return outcome, err
	}
	outcome.ChangedFiles = changed
	outcome.Issues = rewriter.Issues()

	for _, sym := range moved {
		tr, err := transitions.Lookup(sym.Namespace)
		if err != nil {
			return outcome, err
		}
		outcome.Moved = append(outcome.Moved, types.MovedType{
			FullName: sym.FullName,
			From:     tr.Original,
			To:       tr.Modified,
			File:     path,
		})
		if a.opts.Census != nil && a.opts.Census.TypeRemoved(sym) {
			a.logger.Debug("namespace emptied", "namespace", sym.Namespace)
		}
	}

	markup, err := a.moveMarkup(outcome.Moved)
	if err != nil {
		return outcome, err
	}
	outcome.MarkupFiles = markup

	a.logger.Info("file adjusted",
		"file", path,
		"types", len(outcome.Moved),
		"qualified", outcome.Stats.Qualified,
		"member_access", outcome.Stats.MemberAccess,
		"imports", outcome.Stats.Imports,
		"changed", len(changed),
		"markup", len(markup))
	return outcome, nil
}

// moveMarkup renames every moved type in every markup document.
func (a *Adjuster) moveMarkup(moved []types.MovedType) ([]string, error) {
	if len(moved) == 0 {
		return nil, nil
	}
	var changed []string
	for _, doc := range a.oracle.Documents() {
		if doc.Kind != types.MarkupDocument {
			continue
		}
		md, err := xaml.Open(doc.Path, xaml.StoreSource{Store: a.oracle, Path: doc.Path}, a.opts.Markup)
		if err != nil {
			if types.IsEnvironmentMissing(err) {
				a.logger.Warn("skipping unreadable markup", "file", doc.Path, "err", err)
				continue
			}
			return changed, err
		}
		for _, m := range moved {
			name := m.FullName[len(m.From)+1:]
			if _, err := md.MoveObject(m.From, name, m.To); err != nil {
				return changed, err
			}
		}
		saved, err := md.SaveIfChangesExists()
		if err != nil {
			return changed, err
		}
		if saved {
			changed = append(changed, doc.Path)
		}
	}
	return changed, nil
}
