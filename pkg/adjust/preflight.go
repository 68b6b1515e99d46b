package adjust

import (
	"context"
	"fmt"

	"github.com/mamaar/nsadjust/pkg/types"
)

// Preflight checks subjects before any edit. Name conflicts in a target
// namespace are errors; documents that cannot be read and documents with
// syntax errors are warnings.
func (r *Runner) Preflight(ctx context.Context, subjects []types.Subject) ([]types.Issue, error) {
	all, err := r.oracle.AllTypes(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]*types.Symbol, len(all))
	for _, sym := range all {
		existing[sym.FullName] = sym
	}
	planned := make(map[string]string)
	excluded := excludedSet(r.opts.ExcludedNamespaces)

	var issues []types.Issue
	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return issues, &types.RefactorError{Type: types.Cancelled, Message: "pre-flight cancelled", Cause: err}
		}

		root, err := r.oracle.SyntaxRoot(ctx, subject.Path)
		if err != nil {
			if !types.IsEnvironmentMissing(err) {
				return issues, err
			}
			issues = append(issues, types.Issue{
				Type:        types.IssueMissingDocument,
				Description: err.Error(),
				File:        subject.Path,
				Severity:    types.Warning,
			})
			continue
		}
		transitions := transitionsFor(root, subject.Target, excluded, r.logger)
		if transitions.Empty() {
			continue
		}

		declared, err := r.oracle.DeclaredTypes(ctx, subject.Path)
		if err != nil {
			return issues, err
		}
		for _, sym := range declared {
			if !transitions.Has(sym.Namespace) {
				continue
			}
			tr, err := transitions.Lookup(sym.Namespace)
			if err != nil {
				return issues, err
			}
			destination := tr.Modified + "." + sym.Name

			if other, ok := existing[destination]; ok && other.File != subject.Path {
				issues = append(issues, types.Issue{
					Type:        types.IssueNameConflict,
					Description: fmt.Sprintf("%s already exists in %s", destination, other.File),
					File:        subject.Path,
					Line:        root.Line(sym.Start),
					Severity:    types.Error,
				})
				continue
			}
			if file, ok := planned[destination]; ok && file != subject.Path {
				issues = append(issues, types.Issue{
					Type:        types.IssueNameConflict,
					Description: fmt.Sprintf("%s is also moved there from %s", destination, file),
					File:        subject.Path,
					Line:        root.Line(sym.Start),
					Severity:    types.Error,
				})
				continue
			}
			planned[destination] = subject.Path
		}
	}

	issues = append(issues, r.oracle.Diagnostics(ctx)...)
	return issues, nil
}

// validate turns pre-flight issues into the error that stops a run.
func (r *Runner) validate(issues []types.Issue) error {
	if types.HasErrors(issues) {
		var blocking []types.Issue
		for _, issue := range issues {
			if issue.Severity == types.Error {
				blocking = append(blocking, issue)
			}
		}
		return &types.ValidationError{Issues: blocking}
	}
	if r.opts.Force {
		return nil
	}
	var warnings []types.Issue
	for _, issue := range issues {
		if issue.Severity == types.Warning {
			warnings = append(warnings, issue)
		}
	}
	if len(warnings) > 0 {
		return &types.ValidationError{Issues: warnings}
	}
	return nil
}
