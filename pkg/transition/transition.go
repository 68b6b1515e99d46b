// Package transition computes how the namespace blocks of one C# file are
// renamed when the file is moved under a new root namespace.
package transition

import (
	"fmt"
	"strings"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Transition maps one declared namespace to its new name
type Transition struct {
	Original string `json:"original"`
	Modified string `json:"modified"`
	IsRoot   bool   `json:"is_root"`
}

// Container holds the transitions of one file in declaration order
type Container struct {
	File        string
	transitions []Transition
	byOriginal  map[string]int
}

// NewContainer builds a container from transitions. Duplicate original names
// keep the first entry; no-op transitions are dropped.
func NewContainer(file string, transitions ...Transition) *Container {
	c := &Container{File: file, byOriginal: make(map[string]int)}
	for _, t := range transitions {
		c.add(t)
	}
	return c
}

func (c *Container) add(t Transition) {
	if t.Original == t.Modified {
		return
	}
	if _, exists := c.byOriginal[t.Original]; exists {
		return
	}
	c.byOriginal[t.Original] = len(c.transitions)
	c.transitions = append(c.transitions, t)
}

// Compute enumerates every namespace block of root and derives its name under
// target. Only the outermost declared name is replaced, nested suffixes are
// kept: `A.B` with a nested `C` moves to `Target` and `Target.C`.
func Compute(root *csharp.File, target string) *Container {
	c := NewContainer(root.Path)
	target = csharp.NormalizeName(target)
	if target == "" {
		return c
	}
	for _, block := range root.NamespaceBlocks() {
		segments := append([]string{target}, block.Segments[1:]...)
		c.add(Transition{
			Original: block.FullName,
			Modified: strings.Join(segments, "."),
			IsRoot:   block.IsRoot(),
		})
	}
	return c
}

// Empty reports whether the file needs no namespace changes.
func (c *Container) Empty() bool {
	return len(c.transitions) == 0
}

// Len returns the number of transitions.
func (c *Container) Len() int {
	return len(c.transitions)
}

// All returns the transitions in declaration order.
func (c *Container) All() []Transition {
	out := make([]Transition, len(c.transitions))
	copy(out, c.transitions)
	return out
}

// Has reports whether original has a transition.
func (c *Container) Has(original string) bool {
	_, ok := c.byOriginal[original]
	return ok
}

// Lookup returns the transition for original. A miss means the caller touched a
// namespace this file does not declare and is reported as TransitionMissing.
func (c *Container) Lookup(original string) (Transition, error) {
	i, ok := c.byOriginal[original]
	if !ok {
		return Transition{}, &types.RefactorError{
			Type:    types.TransitionMissing,
			Message: fmt.Sprintf("no namespace transition for %q", original),
			File:    c.File,
		}
	}
	return c.transitions[i], nil
}

// Root returns the transition of the first top-level namespace block.
func (c *Container) Root() (Transition, bool) {
	for _, t := range c.transitions {
		if t.IsRoot {
			return t, true
		}
	}
	return Transition{}, false
}

// Roots returns every top-level transition.
func (c *Container) Roots() []Transition {
	var roots []Transition
	for _, t := range c.transitions {
		if t.IsRoot {
			roots = append(roots, t)
		}
	}
	return roots
}
