package semantic

import (
	"strings"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/types"
)

// model resolves names of one file against a snapshot of the index tables.
// Lookup follows the C# order at namespace granularity: enclosing namespaces
// innermost first, then the global namespace, then using aliases and imports.
type model struct {
	file   *csharp.File
	tables *tables
}

func (m *model) SymbolAt(n *csharp.Node) *types.Symbol {
	if n == nil {
		return nil
	}
	if n.Kind == csharp.KindGenericName {
		n = n.Child(csharp.KindIdentifier)
	}
	if n == nil || n.Kind != csharp.KindIdentifier || n.Parent == nil {
		return nil
	}
	if csharp.IsDeclarationName(n) || inNamespaceName(n) || m.inNamespaceImport(n) {
		return nil
	}

	name := m.file.Text(n)
	attribute := n.Ancestor("attribute") != nil && n.Ancestor("attribute_argument_list") == nil

	site := n
	if n.Parent.Is(csharp.KindGenericName) && n.Parent.FirstNamed() == n {
		site = n.Parent
	}
	parent := site.Parent

	switch {
	case parent.Is(csharp.KindQualifiedName) && parent.LastNamed() == site:
		if ns, ok := m.NamespaceOf(parent.FirstNamed()); ok {
			return m.typeIn(ns, name, attribute)
		}
		return nil

	case parent.Is(csharp.KindAliasQualifiedName) && parent.LastNamed() == site:
		if m.aliasQualifier(parent) == "global" {
			return m.typeIn("", name, attribute)
		}
		return nil

	case parent.Is(csharp.KindMemberAccess) && parent.LastNamed() == site:
		expr := parent.FirstNamed()
		if ns, ok := m.NamespaceOf(expr); ok {
			return m.typeIn(ns, name, false)
		}
		if t := m.typeOfExpression(expr); t != nil {
			// A member of a named type, not an extension call.
			return nil
		}
		return m.extensionMethod(n.Start, name)
	}

	return m.resolveSimple(n.Start, name, attribute)
}

// typeOfExpression returns the type an expression names, if it names one.
func (m *model) typeOfExpression(expr *csharp.Node) *types.Symbol {
	switch expr.Kind {
	case csharp.KindIdentifier, csharp.KindGenericName:
		return m.SymbolAt(expr)
	case csharp.KindQualifiedName, csharp.KindMemberAccess, csharp.KindAliasQualifiedName:
		sym := m.SymbolAt(expr.LastNamed())
		if sym != nil && sym.Kind.IsType() {
			return sym
		}
	}
	return nil
}

func (m *model) NamespaceOf(n *csharp.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case csharp.KindIdentifier:
		name := m.file.Text(n)
		for _, enclosing := range m.file.EnclosingNamespaces(n.Start) {
			if m.tables.types[qualify(enclosing, name)] != nil {
				return "", false
			}
			if candidate := qualify(enclosing, name); m.tables.namespaces[candidate] {
				return candidate, true
			}
		}
		if m.tables.types[name] != nil {
			return "", false
		}
		if m.tables.namespaces[name] {
			return name, true
		}
		if target, ok := m.aliasAt(n.Start, name); ok && m.tables.namespaces[target] {
			return target, true
		}
		return "", false

	case csharp.KindQualifiedName, csharp.KindMemberAccess:
		right := n.LastNamed()
		if right == nil || right.Kind != csharp.KindIdentifier {
			return "", false
		}
		left, ok := m.NamespaceOf(n.FirstNamed())
		if !ok {
			return "", false
		}
		candidate := qualify(left, m.file.Text(right))
		if m.tables.namespaces[candidate] && m.tables.types[candidate] == nil {
			return candidate, true
		}
		return "", false

	case csharp.KindAliasQualifiedName:
		if m.aliasQualifier(n) != "global" {
			return "", false
		}
		name := m.file.Text(n.LastNamed())
		if m.tables.namespaces[name] {
			return name, true
		}
	}
	return "", false
}

func (m *model) DeclaredSymbol(n *csharp.Node) *types.Symbol {
	if n == nil {
		return nil
	}
	decl := n
	if n.Kind == csharp.KindIdentifier && n.Parent != nil && csharp.DeclaredTypeName(n.Parent) == n {
		decl = n.Parent
	}
	nameNode := csharp.DeclaredTypeName(decl)
	if nameNode == nil {
		return nil
	}
	namespace := ""
	if enclosing := m.file.EnclosingNamespaces(decl.Start); len(enclosing) > 0 {
		namespace = enclosing[0]
	}
	return m.tables.types[qualify(namespace, m.file.Text(nameNode))]
}

func (m *model) typeIn(namespace, name string, attribute bool) *types.Symbol {
	if sym := m.tables.types[qualify(namespace, name)]; sym != nil {
		return sym
	}
	if attribute {
		return m.tables.types[qualify(namespace, name+"Attribute")]
	}
	return nil
}

func (m *model) resolveSimple(offset int, name string, attribute bool) *types.Symbol {
	for _, enclosing := range m.file.EnclosingNamespaces(offset) {
		if sym := m.typeIn(enclosing, name, attribute); sym != nil {
			return sym
		}
	}
	if sym := m.typeIn("", name, attribute); sym != nil {
		return sym
	}
	if target, ok := m.aliasAt(offset, name); ok {
		if sym := m.tables.types[target]; sym != nil {
			return sym
		}
	}
	for _, namespace := range m.importsAt(offset) {
		if sym := m.typeIn(namespace, name, attribute); sym != nil {
			return sym
		}
	}
	return nil
}

func (m *model) extensionMethod(offset int, name string) *types.Symbol {
	candidates := m.tables.extensions[name]
	if len(candidates) == 0 {
		return nil
	}
	visible := make(map[string]bool)
	for _, ns := range m.file.EnclosingNamespaces(offset) {
		visible[ns] = true
	}
	for _, ns := range m.importsAt(offset) {
		visible[ns] = true
	}
	for _, method := range candidates {
		if visible[method.Namespace] {
			return method
		}
	}
	return nil
}

// visibleUsings returns the using directives in scope at offset, including
// global usings from every file.
func (m *model) visibleUsings(offset int) []usingInfo {
	var visible []usingInfo
	for _, u := range m.file.Usings() {
		if u.Static {
			continue
		}
		if block := u.Node.Ancestor(csharp.KindNamespace); block != nil && !block.Contains(offset) {
			continue
		}
		visible = append(visible, usingInfo{name: u.Name, alias: u.Alias})
	}
	return append(visible, m.tables.globalUsings...)
}

func (m *model) importsAt(offset int) []string {
	var namespaces []string
	for _, u := range m.visibleUsings(offset) {
		if u.alias == "" {
			namespaces = append(namespaces, u.name)
		}
	}
	return namespaces
}

func (m *model) aliasAt(offset int, alias string) (string, bool) {
	for _, u := range m.visibleUsings(offset) {
		if u.alias == alias {
			return u.name, true
		}
	}
	return "", false
}

// aliasQualifier returns the text left of `::`.
func (m *model) aliasQualifier(n *csharp.Node) string {
	text := m.file.Text(n)
	if i := strings.Index(text, "::"); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return ""
}

// inNamespaceName reports whether n is part of a namespace declaration name.
func inNamespaceName(n *csharp.Node) bool {
	p := n.Parent
	for p != nil && p.Kind == csharp.KindQualifiedName {
		p = p.Parent
	}
	return p.Is(csharp.KindNamespace, csharp.KindFileScopedNamespace)
}

// inNamespaceImport reports whether n sits in a plain `using X.Y;` directive.
func (m *model) inNamespaceImport(n *csharp.Node) bool {
	directive := n.Ancestor(csharp.KindUsing)
	if directive == nil {
		return false
	}
	for _, u := range m.file.Usings() {
		if u.Node == directive {
			return u.IsNamespaceImport()
		}
	}
	return false
}
