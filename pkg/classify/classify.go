// Package classify decides how each reference to a moved type is fixed.
package classify

import (
	"fmt"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/fixer"
	"github.com/mamaar/nsadjust/pkg/semantic"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Shape is the syntactic form of a reference site
type Shape int

const (
	// Unclassified sites are fixed by importing the new namespace.
	Unclassified Shape = iota
	// QualifiedName sites like `Old.Ns.Type` get their qualifier replaced.
	QualifiedName
	// MemberAccess sites like `Old.Ns.Type.Member` get their type prefix replaced.
	MemberAccess
)

// String returns the string representation of Shape
func (s Shape) String() string {
	switch s {
	case QualifiedName:
		return "QualifiedName"
	case MemberAccess:
		return "MemberAccess"
	default:
		return "Unclassified"
	}
}

// Decision is the fix chosen for one reference site
type Decision struct {
	Shape       Shape
	File        string
	Line        int
	Replacement fixer.Replacement // QualifiedName and MemberAccess
	Import      string            // Unclassified
}

// Classify inspects the syntax around ref and decides how to point it at
// modified, the new namespace of def.
func Classify(file *csharp.File, model semantic.Model, ref types.Reference, def *types.Symbol, modified string) Decision {
	fallback := Decision{Shape: Unclassified, File: ref.File, Line: ref.Line, Import: modified}

	id := file.IdentifierAt(ref.Start, ref.End)
	if id == nil || id.Parent == nil {
		return fallback
	}
	site := id
	if id.Parent.Is(csharp.KindGenericName) && id.Parent.FirstNamed() == id {
		site = id.Parent
	}
	parent := site.Parent
	if parent == nil || parent.LastNamed() != site {
		return fallback
	}

	var shape Shape
	switch {
	case parent.Is(csharp.KindQualifiedName):
		shape = QualifiedName
	case parent.Is(csharp.KindMemberAccess):
		if ref.Symbol == nil || !ref.Symbol.Kind.IsType() {
			return fallback
		}
		shape = MemberAccess
	default:
		return fallback
	}

	qualifier := parent.FirstNamed()
	if qualifier == nil || qualifier == site {
		return fallback
	}
	ns, ok := model.NamespaceOf(qualifier)
	if !ok || ns != def.Namespace {
		return fallback
	}

	newText := modified
	if isGlobalQualified(file, qualifier) {
		newText = "global::" + modified
	}
	old := file.Text(qualifier)
	return Decision{
		Shape: shape,
		File:  ref.File,
		Line:  ref.Line,
		Replacement: fixer.Replacement{
			Start:       qualifier.Start,
			End:         qualifier.End,
			Old:         old,
			New:         newText,
			Description: fmt.Sprintf("Requalify %s as %s.%s", old, modified, def.Name),
		},
	}
}

// isGlobalQualified reports whether the leftmost part of a dotted name is
// `global::`.
func isGlobalQualified(file *csharp.File, n *csharp.Node) bool {
	for n != nil && n.Is(csharp.KindQualifiedName, csharp.KindMemberAccess) {
		n = n.FirstNamed()
	}
	if n == nil || n.Kind != csharp.KindAliasQualifiedName {
		return false
	}
	text := file.Text(n)
	return len(text) >= 6 && text[:6] == "global"
}
