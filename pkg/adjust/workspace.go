package adjust

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mamaar/nsadjust/pkg/edit"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/types"
)

// WorkspaceOptions configures OpenWorkspace
type WorkspaceOptions struct {
	MarkupExtensions []string
	Exclude          []string // doublestar patterns relative to the root
	Workers          int
	// RootNamespace overrides the project root namespace when deriving targets.
	RootNamespace string
	Logger        *slog.Logger
}

// Workspace is a loaded directory whose edits are held in memory until
// Commit. A dry run simply never commits.
type Workspace struct {
	Root  string
	Index *semantic.Index

	disk    *semantic.DiskStore
	overlay *semantic.OverlayStore
	opts    WorkspaceOptions
	logger  *slog.Logger
}

// OpenWorkspace lists and parses every C# and markup file below root.
func OpenWorkspace(ctx context.Context, root string, opts WorkspaceOptions) (*Workspace, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extensions := append([]string{".cs"}, opts.MarkupExtensions...)
	disk, err := semantic.NewDiskStore(root, extensions, opts.Exclude)
	if err != nil {
		return nil, &types.RefactorError{Type: types.FileSystemError, Message: "failed to open workspace", File: root, Cause: err}
	}
	w := &Workspace{Root: disk.Root, disk: disk, opts: opts, logger: logger}
	if err := w.reload(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) reload(ctx context.Context) error {
	w.overlay = semantic.NewOverlayStore(w.disk)
	w.Index = semantic.NewIndex(w.Root, w.overlay, semantic.Options{
		MarkupExtensions: w.opts.MarkupExtensions,
		Workers:          w.opts.Workers,
		Logger:           w.logger,
	})
	return w.Index.Load(ctx)
}

// Resolve maps a user supplied path to a document of the workspace.
func (w *Workspace) Resolve(path string) (string, error) {
	docs := w.Index.Documents()
	resolved := types.ResolveDocumentPath(docs, w.Root, path)
	if _, ok := w.Index.Document(resolved); ok {
		return resolved, nil
	}
	msg := "file is not part of the workspace"
	if suggestions := semantic.Suggest(docs, path, 3); len(suggestions) > 0 {
		msg += ", did you mean: " + strings.Join(suggestions, ", ")
	}
	return "", &types.RefactorError{Type: types.DocumentMissing, Message: msg, File: path}
}

// Target derives the namespace a document belongs in from its project and
// folder.
func (w *Workspace) Target(path string) (string, error) {
	project, err := semantic.FindProject(path, w.Root)
	if err != nil {
		if w.opts.RootNamespace == "" {
			return "", err
		}
		project = &semantic.Project{Dir: w.Root, RootNamespace: w.opts.RootNamespace}
	}
	rootNamespace := project.RootNamespace
	if w.opts.RootNamespace != "" {
		rootNamespace = w.opts.RootNamespace
	}
	return semantic.TargetNamespace(rootNamespace, project.Dir, path)
}

// Subjects resolves paths and pairs each with target, or with the namespace
// derived from its folder when target is empty.
func (w *Workspace) Subjects(paths []string, target string) ([]types.Subject, error) {
	subjects := make([]types.Subject, 0, len(paths))
	for _, p := range paths {
		resolved, err := w.Resolve(p)
		if err != nil {
			return nil, err
		}
		t := target
		if t == "" {
			if t, err = w.Target(resolved); err != nil {
				return nil, err
			}
		}
		subjects = append(subjects, types.Subject{Path: resolved, Target: t})
	}
	return subjects, nil
}

// Pending returns the uncommitted changes.
func (w *Workspace) Pending() []semantic.Pending {
	return w.overlay.Changes()
}

// Diff renders every uncommitted change as a unified diff.
func (w *Workspace) Diff() (string, error) {
	var b strings.Builder
	for _, p := range w.overlay.Changes() {
		rel, err := filepath.Rel(w.Root, p.Path)
		if err != nil {
			rel = p.Path
		}
		d, err := edit.Diff(filepath.ToSlash(rel), p.Original, p.Modified)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", rel, err)
		}
		b.WriteString(d)
	}
	return b.String(), nil
}

// Commit writes every pending change to disk, optionally keeping a .backup
// copy of each file first, and returns the written paths.
func (w *Workspace) Commit(backup bool) ([]string, error) {
	pending := w.overlay.Changes()
	var written []string
	for _, p := range pending {
		if backup {
			if _, err := edit.BackupFile(p.Path); err != nil {
				return nil, err
			}
		}
		written = append(written, p.Path)
	}
	if err := w.overlay.Commit(); err != nil {
		return nil, &types.RefactorError{Type: types.FileSystemError, Message: "failed to write changes", File: w.Root, Cause: err}
	}
	w.logger.Info("changes written", "files", len(written), "backup", backup)
	return written, nil
}

// Discard drops every uncommitted change and reloads from disk.
func (w *Workspace) Discard(ctx context.Context) error {
	return w.reload(ctx)
}
