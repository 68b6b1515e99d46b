package fixer

import (
	"context"
	"log/slog"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/edit"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Workspace is the live document store fixes are committed to
type Workspace interface {
	SyntaxRoot(ctx context.Context, path string) (*csharp.File, error)
	TryApplyEdit(ctx context.Context, path string, baseVersion uint64, text string) (bool, error)
}

type fileFixers struct {
	replace *ReplaceFixer
	imports *ImportFixer
	removes *RemoveImportFixer
}

// ordered returns the fixers of one file in application order.
func (f *fileFixers) ordered() []Fixer {
	return []Fixer{f.replace, f.imports, f.removes}
}

// Batch holds the pending fixers of every touched document
type Batch struct {
	ws     Workspace
	logger *slog.Logger

	files   map[string]*fileFixers
	order   []string
	applied map[Kind]int
}

func NewBatch(ws Workspace, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{ws: ws, logger: logger, files: make(map[string]*fileFixers), applied: make(map[Kind]int)}
}

func (b *Batch) fixersFor(file string) *fileFixers {
	f, ok := b.files[file]
	if !ok {
		f = &fileFixers{replace: &ReplaceFixer{}, imports: &ImportFixer{}, removes: &RemoveImportFixer{}}
		b.files[file] = f
		b.order = append(b.order, file)
	}
	return f
}

// Replace queues a span replacement in file. The span refers to base, the
// tree it was computed on.
func (b *Batch) Replace(file string, base *csharp.File, r Replacement) {
	b.fixersFor(file).replace.AddSubject(base, r)
}

// Import queues an import of namespace in file.
func (b *Batch) Import(file, namespace string) {
	b.fixersFor(file).imports.AddSubject(namespace)
}

// ForceImport queues an import that is added even to files without usings.
func (b *Batch) ForceImport(file, namespace string) {
	b.fixersFor(file).imports.AddForced(namespace)
}

// RemoveImport queues removal of plain `using namespace;` directives in file.
func (b *Batch) RemoveImport(file, namespace string) {
	b.fixersFor(file).removes.AddSubject(namespace)
}

// Applied returns how many edits of kind were committed so far.
func (b *Batch) Applied(kind Kind) int {
	return b.applied[kind]
}

// Files returns the files with pending fixes in the order they were touched.
func (b *Batch) Files() []string {
	return append([]string(nil), b.order...)
}

// Imports returns the namespaces queued for import in file.
func (b *Batch) Imports(file string) []string {
	if f, ok := b.files[file]; ok {
		return f.imports.Namespaces()
	}
	return nil
}

// Replacements returns the number of replacements queued for file.
func (b *Batch) Replacements(file string) int {
	if f, ok := b.files[file]; ok {
		return f.replace.Len()
	}
	return 0
}

// Apply commits every pending fixer, one transaction per file and kind, and
// returns the files whose text changed. A rejected commit is retried from a
// fresh tree until it succeeds. Documents that vanished are skipped.
func (b *Batch) Apply(ctx context.Context) ([]string, error) {
	// A file that started rewriting is finished even when ctx is cancelled.
	ctx = context.WithoutCancel(ctx)

	var changed []string
	for _, file := range b.order {
		fileChanged := false
		for _, fixer := range b.files[file].ordered() {
			if fixer.Len() == 0 {
				continue
			}
			applied, err := b.applyFixer(ctx, file, fixer)
			if err != nil {
				if types.IsEnvironmentMissing(err) {
					b.logger.Warn("skipping fixes for missing document", "file", file, "kind", fixer.Kind(), "err", err)
					break
				}
				return changed, err
			}
			fileChanged = fileChanged || applied
		}
		if fileChanged {
			changed = append(changed, file)
		}
	}

	b.files = make(map[string]*fileFixers)
	b.order = nil
	return changed, nil
}

func (b *Batch) applyFixer(ctx context.Context, file string, fixer Fixer) (bool, error) {
	for attempt := 1; ; attempt++ {
		root, err := b.ws.SyntaxRoot(ctx, file)
		if err != nil {
			return false, err
		}

		changes := fixer.Edits(root)
		if len(changes) == 0 {
			b.logDropped(file, fixer)
			return false, nil
		}

		text, err := edit.Apply(string(root.Source), changes)
		if err != nil {
			return false, &types.RefactorError{
				Type:    types.InvalidOperation,
				Message: "failed to apply " + fixer.Kind().String() + " fixes",
				File:    file,
				Cause:   err,
			}
		}

		ok, err := b.ws.TryApplyEdit(ctx, file, root.Version, text)
		if err != nil {
			return false, err
		}
		if ok {
			b.logDropped(file, fixer)
			b.applied[fixer.Kind()] += len(changes)
			b.logger.Debug("fixes applied", "file", file, "kind", fixer.Kind(), "edits", len(changes), "attempt", attempt)
			return true, nil
		}
		b.logger.Debug("document changed during fix, retrying", "file", file, "kind", fixer.Kind(), "attempt", attempt)
	}
}

func (b *Batch) logDropped(file string, fixer Fixer) {
	if rf, ok := fixer.(*ReplaceFixer); ok && rf.Dropped() > 0 {
		b.logger.Warn("replacements dropped, their sites changed", "file", file, "dropped", rf.Dropped())
	}
}
