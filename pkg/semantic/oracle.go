// Package semantic answers the questions a namespace move needs: which types a
// file declares, where they are referenced and what a syntax node refers to.
//
// Oracle is the contract the engines consume. Index is a workspace-wide
// implementation built on tree-sitter syntax trees with name resolution at
// namespace granularity.
package semantic

import (
	"context"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Oracle is the semantic view of a workspace
type Oracle interface {
	Documents() []*types.Document
	SyntaxRoot(ctx context.Context, path string) (*csharp.File, error)
	SemanticModel(ctx context.Context, path string) (Model, error)
	DeclaredTypes(ctx context.Context, path string) ([]*types.Symbol, error)
	FindReferences(ctx context.Context, sym *types.Symbol) ([]types.Reference, error)
	AllTypes(ctx context.Context) ([]*types.Symbol, error)
	TryApplyEdit(ctx context.Context, path string, baseVersion uint64, text string) (bool, error)
	Diagnostics(ctx context.Context) []types.Issue
	ReadText(path string) (string, error)
	WriteText(path, text string) error
}

// Model resolves nodes of one syntax tree
type Model interface {
	// SymbolAt returns the type or extension method an identifier refers to.
	SymbolAt(n *csharp.Node) *types.Symbol
	// NamespaceOf returns the namespace a name or access expression denotes.
	NamespaceOf(n *csharp.Node) (string, bool)
	// DeclaredSymbol returns the type declared by a declaration node or its name.
	DeclaredSymbol(n *csharp.Node) *types.Symbol
}
