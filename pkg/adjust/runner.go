package adjust

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mamaar/nsadjust/pkg/census"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/types"
	"github.com/mamaar/nsadjust/pkg/xaml"
)

// RunOptions configures a batch run
type RunOptions struct {
	ExcludedNamespaces []string
	Markup             xaml.Options
	// Force proceeds despite pre-flight warnings. Errors always stop a run.
	Force bool
	// InScope limits the import cleanup; nil means every document.
	InScope func(doc *types.Document) bool
	Logger  *slog.Logger
}

// Runner adjusts a list of subject files as one batch
type Runner struct {
	oracle semantic.Oracle
	logger *slog.Logger
	opts   RunOptions
}

func NewRunner(oracle semantic.Oracle, opts RunOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{oracle: oracle, logger: logger, opts: opts}
}

// Run checks the subjects, adjusts them strictly in order and strips the
// imports of every namespace the batch emptied. Cancellation is honoured
// between files and between cleanup documents. Files already rewritten stay
// rewritten when a run stops early; the returned report says how far it got.
func (r *Runner) Run(ctx context.Context, subjects []types.Subject) (*types.Report, error) {
	report := &types.Report{}

	issues, err := r.Preflight(ctx, subjects)
	if err != nil {
		return report, err
	}
	report.Issues = issues
	if err := r.validate(issues); err != nil {
		return report, err
	}

	before := versions(r.oracle.Documents())

	c, err := census.Build(ctx, r.oracle)
	if err != nil {
		return report, err
	}
	adjuster := NewAdjuster(r.oracle, Options{
		ExcludedNamespaces: r.opts.ExcludedNamespaces,
		Census:             c,
		Markup:             r.opts.Markup,
		Logger:             r.logger,
	})

	defer func() {
		report.ChangedFiles = changedSince(before, r.oracle.Documents())
	}()

	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return report, &types.RefactorError{Type: types.Cancelled, Message: "adjusting cancelled", File: subject.Path, Cause: err}
		}
		outcome, err := adjuster.Adjust(ctx, subject.Path, subject.Target)
		if outcome != nil {
			report.Processed = append(report.Processed, subject.Path)
			report.Moved = append(report.Moved, outcome.Moved...)
			report.Issues = append(report.Issues, outcome.Issues...)
		}
		if err != nil {
			r.logger.Error("adjusting aborted", "file", subject.Path, "err", err)
			return report, err
		}
		if outcome == nil {
			report.Skipped = append(report.Skipped, subject.Path)
		}
	}

	removed, err := census.Sweep(ctx, r.oracle, c, census.SweepOptions{InScope: r.opts.InScope, Logger: r.logger})
	report.RemovedImports = removed
	report.RemovedNamespace = c.NamespacesToRemove()
	if err != nil {
		return report, err
	}

	r.logger.Info("batch finished",
		"processed", len(report.Processed),
		"skipped", len(report.Skipped),
		"moved", len(report.Moved),
		"removed_imports", removed)
	return report, nil
}

func versions(docs []*types.Document) map[string]uint64 {
	v := make(map[string]uint64, len(docs))
	for _, doc := range docs {
		v[doc.Path] = doc.Version
	}
	return v
}

func changedSince(before map[string]uint64, docs []*types.Document) []string {
	var changed []string
	for _, doc := range docs {
		if version, ok := before[doc.Path]; ok && version != doc.Version {
			changed = append(changed, doc.Path)
		}
	}
	sort.Strings(changed)
	return changed
}
