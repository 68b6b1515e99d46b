package semantic

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Options configures an Index
type Options struct {
	MarkupExtensions []string
	Workers          int
	Logger           *slog.Logger
}

type entry struct {
	doc  *types.Document
	file *csharp.File // nil for markup documents
}

// tables are rebuilt wholesale after every change so models can keep a
// consistent snapshot without locking.
type tables struct {
	types        map[string]*types.Symbol   // full name -> type
	namespaces   map[string]bool            // declared namespaces and their prefixes
	extensions   map[string][]*types.Symbol // method name -> extension methods
	globalUsings []usingInfo
}

type usingInfo struct {
	name  string
	alias string
}

// Index is an Oracle over every C# and markup document of a Store
type Index struct {
	root   string
	store  Store
	logger *slog.Logger
	opts   Options

	mu      sync.RWMutex
	entries map[string]*entry
	tables  *tables
}

var _ Oracle = (*Index)(nil)

// NewIndex creates an empty index; call Load to populate it.
func NewIndex(root string, store Store, opts Options) *Index {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Index{
		root:    root,
		store:   store,
		logger:  opts.Logger,
		opts:    opts,
		entries: make(map[string]*entry),
		tables:  newTables(),
	}
}

func newTables() *tables {
	return &tables{
		types:      make(map[string]*types.Symbol),
		namespaces: make(map[string]bool),
		extensions: make(map[string][]*types.Symbol),
	}
}

// Root returns the workspace root the index was created for.
func (i *Index) Root() string {
	return i.root
}

// Store returns the text storage behind the index.
func (i *Index) Store() Store {
	return i.store
}

// Load lists the store and parses every document in parallel.
func (i *Index) Load(ctx context.Context) error {
	paths, err := i.store.List()
	if err != nil {
		return &types.RefactorError{Type: types.FileSystemError, Message: "failed to list workspace files", File: i.root, Cause: err}
	}

	var candidates []string
	for _, path := range paths {
		if _, ok := i.kindOf(path); ok {
			candidates = append(candidates, path)
		}
	}

	results := make([]*entry, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Workers)
	for n, path := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := i.store.ReadFile(path)
			if err != nil {
				i.logger.Warn("skipping unreadable document", "file", path, "err", err)
				return nil
			}
			e, err := i.parseEntry(path, data)
			if err != nil {
				i.logger.Warn("skipping unparseable document", "file", path, "err", err)
				return nil
			}
			results[n] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &types.RefactorError{Type: types.Cancelled, Message: "workspace load interrupted", Cause: err}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = make(map[string]*entry, len(results))
	for _, e := range results {
		if e != nil {
			i.entries[e.doc.Path] = e
		}
	}
	i.rebuildLocked()

	i.logger.Info("workspace loaded", "root", i.root, "documents", len(i.entries), "types", len(i.tables.types))
	return nil
}

func (i *Index) kindOf(path string) (types.DocumentKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".cs" {
		return types.CSharpDocument, true
	}
	if hasExtension(path, i.opts.MarkupExtensions) {
		return types.MarkupDocument, true
	}
	return 0, false
}

func (i *Index) parseEntry(path string, data []byte) (*entry, error) {
	kind, ok := i.kindOf(path)
	if !ok {
		return nil, fmt.Errorf("unsupported document %s", path)
	}
	version := xxhash.Sum64(data)
	doc := &types.Document{Path: path, Kind: kind, Version: version, Generated: isGenerated(path, data)}
	if kind == types.MarkupDocument {
		return &entry{doc: doc}, nil
	}

	file, err := csharp.Parse(path, data)
	if err != nil {
		return nil, err
	}
	file.Version = version
	return &entry{doc: doc, file: file}, nil
}

// rebuildLocked recomputes the symbol tables from the current entries.
func (i *Index) rebuildLocked() {
	t := newTables()

	paths := make([]string, 0, len(i.entries))
	for path, e := range i.entries {
		if e.file != nil {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		file := i.entries[path].file
		for _, block := range file.NamespaceBlocks() {
			addNamespace(t.namespaces, block.FullName)
		}
		for _, u := range file.Usings() {
			if u.Global && !u.Static {
				t.globalUsings = append(t.globalUsings, usingInfo{name: u.Name, alias: u.Alias})
			}
		}
		for _, d := range file.TypeDeclarations() {
			full := d.FullName()
			if _, exists := t.types[full]; exists {
				// Partial declarations share the first symbol.
				continue
			}
			sym := &types.Symbol{
				Name:      d.Name,
				FullName:  full,
				Namespace: d.Namespace,
				Kind:      d.Kind,
				File:      path,
				Start:     d.NameNode.Start,
				End:       d.NameNode.End,
				Static:    d.Static,
			}
			for _, m := range d.ExtensionMethods {
				method := &types.Symbol{
					Name:      m.Name,
					FullName:  full + "." + m.Name,
					Namespace: d.Namespace,
					Kind:      types.MethodSymbol,
					File:      path,
					Start:     m.NameNode.Start,
					End:       m.NameNode.End,
					Static:    true,
					Parent:    sym,
				}
				sym.Children = append(sym.Children, method)
				t.extensions[m.Name] = append(t.extensions[m.Name], method)
			}
			t.types[full] = sym
		}
	}
	i.tables = t
}

func addNamespace(set map[string]bool, name string) {
	for name != "" {
		set[name] = true
		dot := strings.LastIndex(name, ".")
		if dot < 0 {
			return
		}
		name = name[:dot]
	}
}

// Documents returns the indexed documents sorted by path.
func (i *Index) Documents() []*types.Document {
	i.mu.RLock()
	defer i.mu.RUnlock()
	docs := make([]*types.Document, 0, len(i.entries))
	for _, e := range i.entries {
		doc := *e.doc
		docs = append(docs, &doc)
	}
	sort.Slice(docs, func(a, b int) bool { return docs[a].Path < docs[b].Path })
	return docs
}

// Document returns one indexed document.
func (i *Index) Document(path string) (*types.Document, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.entries[path]
	if !ok {
		return nil, false
	}
	doc := *e.doc
	return &doc, true
}

// refresh re-reads path and reparses it when its content version moved.
func (i *Index) refresh(path string) (*entry, error) {
	i.mu.RLock()
	e, ok := i.entries[path]
	i.mu.RUnlock()
	if !ok {
		return nil, &types.RefactorError{Type: types.DocumentMissing, Message: "document is not part of the workspace", File: path}
	}

	data, err := i.store.ReadFile(path)
	if err != nil {
		return nil, &types.RefactorError{Type: types.DocumentMissing, Message: "document cannot be read", File: path, Cause: err}
	}
	if xxhash.Sum64(data) == e.doc.Version {
		return e, nil
	}

	fresh, err := i.parseEntry(path, data)
	if err != nil {
		return nil, &types.RefactorError{Type: types.ParseError, Message: "failed to parse document", File: path, Cause: err}
	}
	i.mu.Lock()
	i.entries[path] = fresh
	i.rebuildLocked()
	i.mu.Unlock()
	i.logger.Debug("document reparsed", "file", path)
	return fresh, nil
}

// SyntaxRoot returns the current tree of a C# document.
func (i *Index) SyntaxRoot(ctx context.Context, path string) (*csharp.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.RefactorError{Type: types.Cancelled, Message: "cancelled", File: path, Cause: err}
	}
	e, err := i.refresh(path)
	if err != nil {
		return nil, err
	}
	if e.file == nil {
		return nil, &types.RefactorError{Type: types.SemanticModelMissing, Message: "document has no C# syntax tree", File: path}
	}
	return e.file, nil
}

// SemanticModel returns a resolver bound to the current tree of path.
func (i *Index) SemanticModel(ctx context.Context, path string) (Model, error) {
	file, err := i.SyntaxRoot(ctx, path)
	if err != nil {
		return nil, err
	}
	return i.modelFor(file), nil
}

func (i *Index) modelFor(file *csharp.File) *model {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return &model{file: file, tables: i.tables}
}

// DeclaredTypes returns the top-level types declared in path.
func (i *Index) DeclaredTypes(ctx context.Context, path string) ([]*types.Symbol, error) {
	file, err := i.SyntaxRoot(ctx, path)
	if err != nil {
		return nil, err
	}
	m := i.modelFor(file)
	var syms []*types.Symbol
	for _, d := range file.TypeDeclarations() {
		if sym := m.DeclaredSymbol(d.Node); sym != nil {
			syms = append(syms, sym)
		}
	}
	return syms, nil
}

// Lookup returns the type with the given full name.
func (i *Index) Lookup(fullName string) *types.Symbol {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tables.types[fullName]
}

// AllTypes returns every declared top-level type sorted by full name.
func (i *Index) AllTypes(ctx context.Context) ([]*types.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.RefactorError{Type: types.Cancelled, Message: "cancelled", Cause: err}
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	all := make([]*types.Symbol, 0, len(i.tables.types))
	for _, sym := range i.tables.types {
		all = append(all, sym)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].FullName < all[b].FullName })
	return all, nil
}

// FindReferences returns every site referring to sym. References to the
// extension methods of a static class are included.
func (i *Index) FindReferences(ctx context.Context, sym *types.Symbol) ([]types.Reference, error) {
	names := map[string]bool{sym.Name: true}
	if trimmed, ok := strings.CutSuffix(sym.Name, "Attribute"); ok && trimmed != "" {
		names[trimmed] = true
	}
	for _, child := range sym.Children {
		names[child.Name] = true
	}

	var refs []types.Reference
	for _, doc := range i.Documents() {
		if doc.Kind != types.CSharpDocument {
			continue
		}
		file, err := i.SyntaxRoot(ctx, doc.Path)
		if err != nil {
			var refErr *types.RefactorError
			if errors.As(err, &refErr) && refErr.Type == types.Cancelled {
				return nil, err
			}
			i.logger.Warn("skipping document during reference search", "file", doc.Path, "err", err)
			continue
		}
		m := i.modelFor(file)
		file.Root.Walk(func(n *csharp.Node) bool {
			if n.Kind != csharp.KindIdentifier || !names[file.Text(n)] {
				return true
			}
			target := m.SymbolAt(n)
			if target == nil {
				return true
			}
			if !target.SameAs(sym) && (target.Parent == nil || !target.Parent.SameAs(sym)) {
				return true
			}
			refs = append(refs, types.Reference{
				Symbol: target,
				File:   doc.Path,
				Start:  n.Start,
				End:    n.End,
				Line:   file.Line(n.Start),
				Column: file.Column(n.Start),
			})
			return true
		})
	}
	return refs, nil
}

// TryApplyEdit replaces the text of path when its content still has
// baseVersion. It returns false when the document changed in between.
func (i *Index) TryApplyEdit(ctx context.Context, path string, baseVersion uint64, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &types.RefactorError{Type: types.Cancelled, Message: "cancelled", File: path, Cause: err}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.entries[path]
	if !ok {
		return false, &types.RefactorError{Type: types.DocumentMissing, Message: "document is not part of the workspace", File: path}
	}
	current, err := i.store.ReadFile(path)
	if err != nil {
		return false, &types.RefactorError{Type: types.DocumentMissing, Message: "document cannot be read", File: path, Cause: err}
	}
	if version := xxhash.Sum64(current); version != baseVersion {
		i.logger.Debug("edit rejected, document changed", "file", path, "base", baseVersion, "current", version)
		if version != e.doc.Version {
			if fresh, err := i.parseEntry(path, current); err == nil {
				i.entries[path] = fresh
				i.rebuildLocked()
			}
		}
		return false, nil
	}

	if err := i.store.WriteFile(path, []byte(text)); err != nil {
		return false, &types.RefactorError{Type: types.FileSystemError, Message: "failed to write document", File: path, Cause: err}
	}
	fresh, err := i.parseEntry(path, []byte(text))
	if err != nil {
		return false, &types.RefactorError{Type: types.ParseError, Message: "failed to parse edited document", File: path, Cause: err}
	}
	i.entries[path] = fresh
	i.rebuildLocked()
	return true, nil
}

// Diagnostics reports every C# document that needed error recovery.
func (i *Index) Diagnostics(ctx context.Context) []types.Issue {
	var issues []types.Issue
	for _, doc := range i.Documents() {
		if ctx.Err() != nil {
			break
		}
		if doc.Kind != types.CSharpDocument || doc.Generated {
			continue
		}
		file, err := i.SyntaxRoot(ctx, doc.Path)
		if err != nil || !file.HasErrors {
			continue
		}
		issues = append(issues, types.Issue{
			Type:        types.IssueCompilationError,
			Description: "syntax errors found, references in this file may be incomplete",
			File:        doc.Path,
			Line:        file.ErrorLine,
			Severity:    types.Warning,
		})
	}
	return issues
}

// ReadText returns the current text of a document.
func (i *Index) ReadText(path string) (string, error) {
	data, err := i.store.ReadFile(path)
	if err != nil {
		return "", &types.RefactorError{Type: types.DocumentMissing, Message: "document cannot be read", File: path, Cause: err}
	}
	return string(data), nil
}

// WriteText replaces the text of a document and refreshes its entry.
func (i *Index) WriteText(path, text string) error {
	if err := i.store.WriteFile(path, []byte(text)); err != nil {
		return &types.RefactorError{Type: types.FileSystemError, Message: "failed to write document", File: path, Cause: err}
	}
	if _, err := i.refresh(path); err != nil {
		var refErr *types.RefactorError
		if errors.As(err, &refErr) && refErr.Type == types.DocumentMissing {
			return nil
		}
		return err
	}
	return nil
}

// Invalidate brings one document in line with the store after an external
// change: new files are added, changed files reparsed, deleted ones dropped.
func (i *Index) Invalidate(path string) error {
	if _, ok := i.kindOf(path); !ok {
		return nil
	}
	data, err := i.store.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			i.Remove(path)
			return nil
		}
		return &types.RefactorError{Type: types.FileSystemError, Message: "document cannot be read", File: path, Cause: err}
	}

	i.mu.RLock()
	e, known := i.entries[path]
	i.mu.RUnlock()
	if known && e.doc.Version == xxhash.Sum64(data) {
		return nil
	}

	fresh, err := i.parseEntry(path, data)
	if err != nil {
		return &types.RefactorError{Type: types.ParseError, Message: "failed to parse document", File: path, Cause: err}
	}
	i.mu.Lock()
	i.entries[path] = fresh
	i.rebuildLocked()
	i.mu.Unlock()
	i.logger.Debug("document invalidated", "file", path, "new", !known)
	return nil
}

// Remove drops a document from the index.
func (i *Index) Remove(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.entries[path]; !ok {
		return
	}
	delete(i.entries, path)
	i.rebuildLocked()
	i.logger.Debug("document removed", "file", path)
}

// ConflictingType returns an existing type named name in namespace, declared
// outside file.
func (i *Index) ConflictingType(namespace, name, file string) *types.Symbol {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sym := i.tables.types[qualify(namespace, name)]
	if sym == nil || sym.File == file {
		return nil
	}
	return sym
}

func isGenerated(path string, data []byte) bool {
	lower := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".g.cs", ".g.i.cs", ".designer.cs", ".generated.cs"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(string(head), "<auto-generated")
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
