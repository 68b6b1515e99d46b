package csharp

import "strings"

// Node is an immutable copy of one syntax tree node
type Node struct {
	Kind     string
	Start    int // Byte offsets into File.Source
	End      int
	Named    bool
	Parent   *Node
	Children []*Node
}

// Is reports whether the node kind is one of kinds.
func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// NamedChildren returns the named children of n.
func (n *Node) NamedChildren() []*Node {
	var named []*Node
	for _, child := range n.Children {
		if child.Named && child.Kind != "comment" {
			named = append(named, child)
		}
	}
	return named
}

// FirstNamed returns the first named child, if any.
func (n *Node) FirstNamed() *Node {
	for _, child := range n.Children {
		if child.Named && child.Kind != "comment" {
			return child
		}
	}
	return nil
}

// LastNamed returns the last named child, if any.
func (n *Node) LastNamed() *Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if n.Children[i].Named && n.Children[i].Kind != "comment" {
			return n.Children[i]
		}
	}
	return nil
}

// Child returns the first direct child of one of kinds.
func (n *Node) Child(kinds ...string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Is(kinds...) {
			return child
		}
	}
	return nil
}

// Ancestor returns the closest ancestor of one of kinds.
func (n *Node) Ancestor(kinds ...string) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Contains reports whether the byte offset lies inside the node.
func (n *Node) Contains(offset int) bool {
	return n.Start <= offset && offset < n.End
}

// identifierBefore returns the last direct identifier child that precedes the
// first child of one of stopKinds.
func (n *Node) identifierBefore(stopKinds ...string) *Node {
	var last *Node
	for _, child := range n.Children {
		if child.Is(stopKinds...) {
			return last
		}
		if child.Kind == "identifier" {
			last = child
		}
	}
	return last
}

func (n *Node) lastIdentifier() *Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if n.Children[i].Kind == "identifier" {
			return n.Children[i]
		}
	}
	return nil
}

// NormalizeName strips whitespace from a dotted name.
func NormalizeName(text string) string {
	return strings.Join(strings.Fields(text), "")
}
