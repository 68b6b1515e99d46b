// Package csharp turns C# source text into plain Go syntax trees.
//
// Parsing is done with tree-sitter; the resulting tree is copied into Node
// values so callers never hold cgo memory and trees can be kept alongside the
// source they were built from.
package csharp

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
)

var language = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_csharp.Language())
})

// File is a parsed C# document
type File struct {
	Path      string
	Source    []byte
	Root      *Node
	Version   uint64 // Content version assigned by the owner of the text
	HasErrors bool
	ErrorLine int // First line (1-based) holding an ERROR or MISSING node

	blocks []*NamespaceBlock
	usings []*Using
}

// Parse builds a File from source text. A tree is always produced for
// syntactically broken input; HasErrors reports whether recovery happened.
func Parse(path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(language()); err != nil {
		return nil, fmt.Errorf("set C# language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", path)
	}
	defer tree.Close()

	f := &File{Path: path, Source: src}
	f.Root = f.convert(tree.RootNode(), nil)
	return f, nil
}

// convert copies a tree-sitter node and its children.
func (f *File) convert(tsNode *sitter.Node, parent *Node) *Node {
	n := &Node{
		Kind:   tsNode.Kind(),
		Start:  int(tsNode.StartByte()),
		End:    int(tsNode.EndByte()),
		Named:  tsNode.IsNamed(),
		Parent: parent,
	}

	if tsNode.IsError() || tsNode.IsMissing() {
		if !f.HasErrors {
			f.HasErrors = true
			f.ErrorLine = int(tsNode.StartPosition().Row) + 1
		}
	}

	count := tsNode.ChildCount()
	if count > 0 {
		n.Children = make([]*Node, 0, count)
	}
	for i := uint(0); i < count; i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		n.Children = append(n.Children, f.convert(child, n))
	}
	return n
}

// Text returns the source text covered by n.
func (f *File) Text(n *Node) string {
	if n == nil || n.Start < 0 || n.End > len(f.Source) || n.Start > n.End {
		return ""
	}
	return string(f.Source[n.Start:n.End])
}

// Line returns the 1-based line of a byte offset.
func (f *File) Line(offset int) int {
	line := 1
	for i := 0; i < offset && i < len(f.Source); i++ {
		if f.Source[i] == '\n' {
			line++
		}
	}
	return line
}

// Column returns the 1-based column of a byte offset.
func (f *File) Column(offset int) int {
	col := 1
	for i := offset - 1; i >= 0 && i < len(f.Source); i-- {
		if f.Source[i] == '\n' {
			break
		}
		col++
	}
	return col
}

// NodeAt returns the deepest node spanning exactly [start, end) whose kind is
// one of kinds (any kind when none are given).
func (f *File) NodeAt(start, end int, kinds ...string) *Node {
	var found *Node
	f.Root.Walk(func(n *Node) bool {
		if n.Start > start || n.End < end {
			return false
		}
		if n.Start == start && n.End == end && (len(kinds) == 0 || n.Is(kinds...)) {
			found = n
		}
		return true
	})
	return found
}

// IdentifierAt returns the identifier node at exactly [start, end).
func (f *File) IdentifierAt(start, end int) *Node {
	return f.NodeAt(start, end, "identifier")
}
