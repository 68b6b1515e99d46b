package csharp

import (
	"sort"
	"strings"

	"github.com/mamaar/nsadjust/pkg/types"
)

const (
	KindNamespace           = "namespace_declaration"
	KindFileScopedNamespace = "file_scoped_namespace_declaration"
	KindUsing               = "using_directive"
	KindQualifiedName       = "qualified_name"
	KindAliasQualifiedName  = "alias_qualified_name"
	KindMemberAccess        = "member_access_expression"
	KindGenericName         = "generic_name"
	KindIdentifier          = "identifier"
)

var typeDeclKinds = map[string]types.SymbolKind{
	"class_declaration":         types.ClassSymbol,
	"struct_declaration":        types.StructSymbol,
	"interface_declaration":     types.InterfaceSymbol,
	"enum_declaration":          types.EnumSymbol,
	"delegate_declaration":      types.DelegateSymbol,
	"record_declaration":        types.RecordSymbol,
	"record_struct_declaration": types.RecordSymbol,
}

// NamespaceBlock is one namespace declaration in a file
type NamespaceBlock struct {
	Node       *Node
	NameNode   *Node
	Name       string   // Declared name ("B.C" for `namespace B.C`)
	Segments   []string // Declared names of the enclosing blocks, outermost first, ending with Name
	FullName   string
	FileScoped bool
	Depth      int
	Start      int // Scope of the block; file scoped blocks run to end of file
	End        int
}

// IsRoot reports whether the block is declared directly in the compilation unit.
func (b *NamespaceBlock) IsRoot() bool {
	return len(b.Segments) == 1
}

// NamespaceBlocks returns every namespace declaration in document order.
func (f *File) NamespaceBlocks() []*NamespaceBlock {
	if f.blocks != nil {
		return f.blocks
	}
	blocks := []*NamespaceBlock{}
	f.Root.Walk(func(n *Node) bool {
		if !n.Is(KindNamespace, KindFileScopedNamespace) {
			return true
		}
		nameNode := n.Child(KindIdentifier, KindQualifiedName)
		if nameNode == nil {
			return true
		}
		name := NormalizeName(f.Text(nameNode))

		var segments []string
		for p := n.Parent; p != nil; p = p.Parent {
			if !p.Is(KindNamespace, KindFileScopedNamespace) {
				continue
			}
			if pn := p.Child(KindIdentifier, KindQualifiedName); pn != nil {
				segments = append(segments, NormalizeName(f.Text(pn)))
			}
		}
		// Collected inner to outer, flip to outermost first.
		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
		segments = append(segments, name)

		block := &NamespaceBlock{
			Node:       n,
			NameNode:   nameNode,
			Name:       name,
			Segments:   segments,
			FullName:   strings.Join(segments, "."),
			FileScoped: n.Kind == KindFileScopedNamespace,
			Depth:      len(segments) - 1,
			Start:      n.Start,
			End:        n.End,
		}
		if block.FileScoped {
			block.End = len(f.Source) + 1
		}
		blocks = append(blocks, block)
		return true
	})
	f.blocks = blocks
	return blocks
}

// EnclosingNamespaces returns the namespaces in scope at offset in C# lookup
// order: the innermost block first, then each of its dotted prefixes.
func (f *File) EnclosingNamespaces(offset int) []string {
	var containing []*NamespaceBlock
	for _, b := range f.NamespaceBlocks() {
		if b.Start <= offset && offset < b.End {
			containing = append(containing, b)
		}
	}
	sort.SliceStable(containing, func(i, j int) bool {
		return containing[i].Depth > containing[j].Depth
	})

	seen := make(map[string]bool)
	var result []string
	for _, b := range containing {
		name := b.FullName
		for name != "" {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
			i := strings.LastIndex(name, ".")
			if i < 0 {
				break
			}
			name = name[:i]
		}
	}
	return result
}

// Using is one using directive
type Using struct {
	Node     *Node
	NameNode *Node
	Name     string // Imported namespace, or the aliased/static target
	Alias    string
	Static   bool
	Global   bool
}

// IsNamespaceImport reports whether the directive is a plain `using X.Y;`.
func (u *Using) IsNamespaceImport() bool {
	return u.Alias == "" && !u.Static
}

// Usings returns every using directive in document order, including those
// declared inside namespace blocks.
func (f *File) Usings() []*Using {
	if f.usings != nil {
		return f.usings
	}
	usings := []*Using{}
	f.Root.Walk(func(n *Node) bool {
		if n.Kind != KindUsing {
			return true
		}
		if u := f.parseUsing(n); u != nil {
			usings = append(usings, u)
		}
		return false
	})
	f.usings = usings
	return usings
}

func (f *File) parseUsing(n *Node) *Using {
	u := &Using{Node: n}
	var candidates []*Node
	equalsAt := -1
	for _, child := range n.Children {
		switch {
		case child.Kind == "static" || (!child.Named && f.Text(child) == "static"):
			u.Static = true
		case child.Kind == "global" || (!child.Named && f.Text(child) == "global"):
			u.Global = true
		case child.Kind == "name_equals":
			if id := child.Child(KindIdentifier); id != nil {
				u.Alias = f.Text(id)
			}
		case child.Kind == "=":
			equalsAt = len(candidates)
		case child.Is(KindIdentifier, KindQualifiedName, KindGenericName, KindAliasQualifiedName):
			candidates = append(candidates, child)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	if equalsAt > 0 && u.Alias == "" {
		u.Alias = f.Text(candidates[0])
	}
	u.NameNode = candidates[len(candidates)-1]
	u.Name = NormalizeName(f.Text(u.NameNode))
	return u
}

// TypeDecl is one top-level type declaration
type TypeDecl struct {
	Node             *Node
	NameNode         *Node
	Name             string
	Kind             types.SymbolKind
	Namespace        string
	Static           bool
	ExtensionMethods []*MethodDecl
}

// FullName returns the namespace qualified type name.
func (d *TypeDecl) FullName() string {
	if d.Namespace == "" {
		return d.Name
	}
	return d.Namespace + "." + d.Name
}

// MethodDecl is an extension method declared by a static class
type MethodDecl struct {
	Node     *Node
	NameNode *Node
	Name     string
}

// TypeDeclarations returns the types declared directly in a namespace or the
// compilation unit. Nested types move with their container and are skipped.
func (f *File) TypeDeclarations() []*TypeDecl {
	var decls []*TypeDecl
	f.Root.Walk(func(n *Node) bool {
		kind, ok := typeDeclKinds[n.Kind]
		if !ok {
			return true
		}
		nameNode := declaredNameNode(n)
		if nameNode == nil {
			return false
		}
		d := &TypeDecl{
			Node:     n,
			NameNode: nameNode,
			Name:     f.Text(nameNode),
			Kind:     kind,
			Static:   f.hasModifier(n, nameNode, "static"),
		}
		if ns := f.EnclosingNamespaces(n.Start); len(ns) > 0 {
			d.Namespace = ns[0]
		}
		if d.Static && kind == types.ClassSymbol {
			d.ExtensionMethods = f.extensionMethods(n)
		}
		decls = append(decls, d)
		// Nested declarations are not visited.
		return false
	})
	return decls
}

func (f *File) hasModifier(decl, nameNode *Node, modifier string) bool {
	for _, child := range decl.Children {
		if child == nameNode {
			break
		}
		if strings.TrimSpace(f.Text(child)) == modifier && child.Is("modifier", modifier) {
			return true
		}
	}
	return false
}

func (f *File) extensionMethods(class *Node) []*MethodDecl {
	body := class.Child("declaration_list")
	if body == nil {
		return nil
	}
	var methods []*MethodDecl
	for _, member := range body.Children {
		if member.Kind != "method_declaration" {
			continue
		}
		params := member.Child("parameter_list")
		if params == nil {
			continue
		}
		first := params.Child("parameter")
		if first == nil {
			continue
		}
		text := strings.TrimSpace(f.Text(first))
		if !strings.HasPrefix(text, "this ") && !strings.HasPrefix(text, "this\t") {
			continue
		}
		nameNode := member.identifierBefore("type_parameter_list", "parameter_list")
		if nameNode == nil {
			continue
		}
		methods = append(methods, &MethodDecl{Node: member, NameNode: nameNode, Name: f.Text(nameNode)})
	}
	return methods
}

// declaredNameNode returns the identifier that names a type declaration.
func declaredNameNode(n *Node) *Node {
	if n.Kind == "delegate_declaration" {
		return n.identifierBefore("type_parameter_list", "parameter_list")
	}
	return n.Child(KindIdentifier)
}

// IsTypeDeclaration reports whether n declares a type.
func IsTypeDeclaration(n *Node) bool {
	_, ok := typeDeclKinds[n.Kind]
	return ok
}

// DeclaredTypeName returns the name identifier when n declares a type.
func DeclaredTypeName(n *Node) *Node {
	if !IsTypeDeclaration(n) {
		return nil
	}
	return declaredNameNode(n)
}

// IsDeclarationName reports whether the identifier names the declaration it
// belongs to (a type, member, variable or parameter) instead of referring to
// something declared elsewhere.
func IsDeclarationName(id *Node) bool {
	if id == nil || id.Kind != KindIdentifier || id.Parent == nil {
		return false
	}
	p := id.Parent
	if IsTypeDeclaration(p) {
		return declaredNameNode(p) == id
	}
	switch p.Kind {
	case "method_declaration", "local_function_statement":
		return p.identifierBefore("type_parameter_list", "parameter_list") == id
	case "property_declaration", "event_declaration", "parameter":
		return p.lastIdentifier() == id
	case "variable_declarator", "enum_member_declaration", "constructor_declaration",
		"destructor_declaration", "type_parameter", "catch_declaration", "name_equals",
		"name_colon", "labeled_statement":
		return p.Child(KindIdentifier) == id
	case "foreach_statement":
		return p.identifierBefore("in") == id
	case KindNamespace, KindFileScopedNamespace:
		return true
	}
	return false
}
