package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/fixer"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/transition"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Oracle is the part of the semantic view the rewriter needs
type Oracle interface {
	SyntaxRoot(ctx context.Context, path string) (*csharp.File, error)
	SemanticModel(ctx context.Context, path string) (semantic.Model, error)
	FindReferences(ctx context.Context, sym *types.Symbol) ([]types.Reference, error)
}

// Stats counts the decisions taken for one declaration
type Stats struct {
	Qualified    int
	MemberAccess int
	Imports      int
	Skipped      int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Qualified += other.Qualified
	s.MemberAccess += other.MemberAccess
	s.Imports += other.Imports
	s.Skipped += other.Skipped
}

// Rewriter queues fixes for every reference to a moved declaration
type Rewriter struct {
	oracle Oracle
	batch  *fixer.Batch
	logger *slog.Logger
	issues []types.Issue
}

func NewRewriter(oracle Oracle, batch *fixer.Batch, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{oracle: oracle, batch: batch, logger: logger}
}

// Issues returns the informational issues recorded so far, one per reference
// that fell back to an import.
func (r *Rewriter) Issues() []types.Issue {
	return append([]types.Issue(nil), r.issues...)
}

// Rewrite classifies every reference to def and queues the matching fix.
// subject is the file declaring def; it moves with def and never needs an
// import of its own new namespace. A namespace missing from transitions is a
// contract violation and is returned as an error.
func (r *Rewriter) Rewrite(ctx context.Context, def *types.Symbol, transitions *transition.Container, subject string) (Stats, error) {
	var stats Stats

	tr, err := transitions.Lookup(def.Namespace)
	if err != nil {
		return stats, err
	}
	modified := tr.Modified
	if def.Namespace == modified {
		return stats, nil
	}

	refs, err := r.oracle.FindReferences(ctx, def)
	if err != nil {
		if types.IsEnvironmentMissing(err) {
			r.logger.Warn("reference search unavailable", "type", def.FullName, "err", err)
			return stats, nil
		}
		return stats, err
	}

	for _, ref := range refs {
		file, err := r.oracle.SyntaxRoot(ctx, ref.File)
		if err != nil {
			if types.IsEnvironmentMissing(err) {
				r.logger.Warn("skipping reference without syntax tree", "file", ref.File, "line", ref.Line, "err", err)
				stats.Skipped++
				continue
			}
			return stats, err
		}
		model, err := r.oracle.SemanticModel(ctx, ref.File)
		if err != nil {
			if types.IsEnvironmentMissing(err) {
				r.logger.Warn("skipping reference without semantic model", "file", ref.File, "line", ref.Line, "err", err)
				stats.Skipped++
				continue
			}
			return stats, err
		}

		decision := Classify(file, model, ref, def, modified)
		switch decision.Shape {
		case QualifiedName, MemberAccess:
			r.batch.Replace(ref.File, file, decision.Replacement)
			if decision.Shape == QualifiedName {
				stats.Qualified++
			} else {
				stats.MemberAccess++
			}
			r.logger.Debug("reference requalified", "file", ref.File, "line", ref.Line, "shape", decision.Shape, "type", def.FullName)

		case Unclassified:
			if ref.File == subject || inNamespace(file, ref.Start, modified) {
				stats.Skipped++
				continue
			}
			r.batch.Import(ref.File, decision.Import)
			stats.Imports++
			r.logger.Warn("reference fixed by import", "file", ref.File, "line", ref.Line, "type", def.FullName, "import", decision.Import)
			r.issues = append(r.issues, types.Issue{
				Type:        types.IssueUnclassifiedReference,
				Description: fmt.Sprintf("%s referenced without a rewritable qualifier, importing %s", def.FullName, decision.Import),
				File:        ref.File,
				Line:        ref.Line,
				Severity:    types.Info,
			})
		}
	}
	return stats, nil
}

func inNamespace(file *csharp.File, offset int, namespace string) bool {
	for _, ns := range file.EnclosingNamespaces(offset) {
		if ns == namespace {
			return true
		}
	}
	return false
}
