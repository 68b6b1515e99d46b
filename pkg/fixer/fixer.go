// Package fixer queues text fixes per document and applies them with
// optimistic concurrency.
package fixer

import (
	"sort"
	"strings"

	"github.com/mamaar/nsadjust/pkg/csharp"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Kind identifies what a fixer does
type Kind int

const (
	ReplaceKind Kind = iota
	ImportKind
	RemoveImportKind
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case ReplaceKind:
		return "Replace"
	case ImportKind:
		return "Import"
	case RemoveImportKind:
		return "RemoveImport"
	default:
		return "Unknown"
	}
}

// Fixer turns its queued subjects into edits against the current tree of
// one document
type Fixer interface {
	Kind() Kind
	Len() int
	Edits(root *csharp.File) []types.Change
}

// Replacement swaps the text of one span
type Replacement struct {
	Start       int
	End         int
	Old         string
	New         string
	Description string
}

// ReplaceFixer accumulates span replacements. Subjects are additive since
// each targets a distinct node. Every span refers to the revision of the
// document it was computed on.
type ReplaceFixer struct {
	subjects []replaceSubject
	bases    map[uint64]string
	dropped  int
}

type replaceSubject struct {
	version uint64
	r       Replacement
}

func (f *ReplaceFixer) Kind() Kind { return ReplaceKind }

func (f *ReplaceFixer) Len() int { return len(f.subjects) }

// AddSubject queues one replacement whose span refers to base.
func (f *ReplaceFixer) AddSubject(base *csharp.File, r Replacement) {
	if f.bases == nil {
		f.bases = make(map[uint64]string)
	}
	if _, ok := f.bases[base.Version]; !ok {
		f.bases[base.Version] = string(base.Source)
	}
	f.subjects = append(f.subjects, replaceSubject{version: base.Version, r: r})
}

// Dropped returns how many replacements the last Edits call could not place.
func (f *ReplaceFixer) Dropped() int { return f.dropped }

// Edits maps every replacement onto root. When root is a later revision than
// the one a span was computed on, the span follows its line only if that
// line is unchanged. Replacements that cannot be placed, no longer hold
// their old text, or overlap one already placed are dropped.
func (f *ReplaceFixer) Edits(root *csharp.File) []types.Change {
	source := string(root.Source)
	maps := make(map[uint64]*spanMap)
	f.dropped = 0

	var changes []types.Change
	for _, s := range f.subjects {
		start, end := s.r.Start, s.r.End
		if s.version != root.Version {
			m, ok := maps[s.version]
			if !ok {
				m = newSpanMap(f.bases[s.version], source)
				maps[s.version] = m
			}
			var mapped bool
			if start, end, mapped = m.Map(start, end); !mapped {
				f.dropped++
				continue
			}
		}
		if start < 0 || end > len(source) || source[start:end] != s.r.Old {
			f.dropped++
			continue
		}
		c := types.Change{
			File:        root.Path,
			Start:       start,
			End:         end,
			OldText:     s.r.Old,
			NewText:     s.r.New,
			Description: s.r.Description,
		}
		if overlapsAny(changes, c) {
			continue
		}
		changes = append(changes, c)
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Start < changes[j].Start })
	return changes
}

func overlapsAny(changes []types.Change, c types.Change) bool {
	for _, existing := range changes {
		if existing.Start == c.Start && existing.End == c.End {
			return true
		}
		if existing.Start < c.End && c.Start < existing.End {
			return true
		}
	}
	return false
}

// ImportFixer ensures using directives exist. Subjects have set semantics.
type ImportFixer struct {
	namespaces []string
	seen       map[string]bool
	forced     map[string]bool
}

func (f *ImportFixer) Kind() Kind { return ImportKind }

func (f *ImportFixer) Len() int { return len(f.namespaces) }

// AddSubject requests an import of namespace. Files without any using
// directive are left alone.
func (f *ImportFixer) AddSubject(namespace string) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[namespace] {
		return
	}
	f.seen[namespace] = true
	f.namespaces = append(f.namespaces, namespace)
}

// AddForced requests an import that is inserted even when the file has no
// using directives yet.
func (f *ImportFixer) AddForced(namespace string) {
	f.AddSubject(namespace)
	if f.forced == nil {
		f.forced = make(map[string]bool)
	}
	f.forced[namespace] = true
}

// Namespaces returns the requested namespaces in request order.
func (f *ImportFixer) Namespaces() []string {
	return append([]string(nil), f.namespaces...)
}

func (f *ImportFixer) Edits(root *csharp.File) []types.Change {
	usings := root.Usings()
	existing := make(map[string]bool)
	for _, u := range usings {
		if u.IsNamespaceImport() {
			existing[u.Name] = true
		}
	}

	var anchor *csharp.Using
	for _, u := range usings {
		if u.Node.Parent != nil && u.Node.Parent.Kind == "compilation_unit" {
			anchor = u
		}
	}
	if anchor == nil && len(usings) > 0 {
		anchor = usings[len(usings)-1]
	}

	var changes []types.Change
	for _, ns := range f.namespaces {
		if existing[ns] {
			continue
		}
		switch {
		case anchor != nil:
			changes = append(changes, insertAfter(root, anchor, ns))
		case f.forced[ns]:
			changes = append(changes, insertAtTop(root, ns))
		default:
			continue
		}
		existing[ns] = true
	}
	return changes
}

// insertAfter places `using ns;` on the line after anchor with the same
// indentation and line ending.
func insertAfter(root *csharp.File, anchor *csharp.Using, ns string) types.Change {
	src := root.Source
	lineStart := anchor.Node.Start
	for lineStart > 0 && src[lineStart-1] != '\n' {
		lineStart--
	}
	indent := leadingWhitespace(string(src[lineStart:anchor.Node.Start]))

	pos := anchor.Node.End
	for pos < len(src) && src[pos] != '\n' {
		pos++
	}
	newline := "\n"
	if pos > 0 && pos < len(src) && src[pos-1] == '\r' {
		newline = "\r\n"
	}

	var text string
	if pos < len(src) {
		pos++
		text = indent + "using " + ns + ";" + newline
	} else {
		text = newline + indent + "using " + ns + ";"
	}
	return types.Change{
		File:        root.Path,
		Start:       pos,
		End:         pos,
		NewText:     text,
		Description: "Add using " + ns,
	}
}

// insertAtTop places `using ns;` before the first namespace declaration, or at
// the start of the file.
func insertAtTop(root *csharp.File, ns string) types.Change {
	newline := "\n"
	if strings.Contains(string(root.Source), "\r\n") {
		newline = "\r\n"
	}
	pos := 0
	if blocks := root.NamespaceBlocks(); len(blocks) > 0 {
		pos = blocks[0].Node.Start
		for pos > 0 && root.Source[pos-1] != '\n' {
			pos--
		}
	}
	return types.Change{
		File:        root.Path,
		Start:       pos,
		End:         pos,
		NewText:     "using " + ns + ";" + newline + newline,
		Description: "Add using " + ns,
	}
}

// RemoveImportFixer deletes plain using directives of the given namespaces.
// Aliases and static imports are kept.
type RemoveImportFixer struct {
	namespaces map[string]bool
}

func (f *RemoveImportFixer) Kind() Kind { return RemoveImportKind }

func (f *RemoveImportFixer) Len() int { return len(f.namespaces) }

func (f *RemoveImportFixer) AddSubject(namespace string) {
	if f.namespaces == nil {
		f.namespaces = make(map[string]bool)
	}
	f.namespaces[namespace] = true
}

func (f *RemoveImportFixer) Edits(root *csharp.File) []types.Change {
	var changes []types.Change
	for _, block := range usingBlocks(root) {
		emptied := true
		for _, u := range block {
			if !u.IsNamespaceImport() || !f.namespaces[u.Name] {
				emptied = false
				continue
			}
			start, end := lineSpan(root.Source, u.Node.Start, u.Node.End)
			changes = append(changes, types.Change{
				File:        root.Path,
				Start:       start,
				End:         end,
				OldText:     string(root.Source[start:end]),
				Description: "Remove using " + u.Name,
			})
		}
		// An emptied block takes its blank separator line with it.
		if emptied && len(changes) > 0 {
			last := &changes[len(changes)-1]
			if end := blankLineEnd(root.Source, last.End); end > last.End && last.End > 0 && root.Source[last.End-1] == '\n' {
				last.End = end
				last.OldText = string(root.Source[last.Start:last.End])
			}
		}
	}
	return changes
}

// usingBlocks groups using directives that are separated by whitespace only.
func usingBlocks(root *csharp.File) [][]*csharp.Using {
	var blocks [][]*csharp.Using
	prevEnd := -1
	for _, u := range root.Usings() {
		if prevEnd >= 0 && len(strings.TrimSpace(string(root.Source[prevEnd:u.Node.Start]))) == 0 {
			blocks[len(blocks)-1] = append(blocks[len(blocks)-1], u)
		} else {
			blocks = append(blocks, []*csharp.Using{u})
		}
		prevEnd = u.Node.End
	}
	return blocks
}

// blankLineEnd returns the end of the whitespace-only line starting at
// offset, or offset when the line holds anything else.
func blankLineEnd(src []byte, offset int) int {
	i := offset
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	if i < len(src) && src[i] == '\n' {
		return i + 1
	}
	return offset
}

// lineSpan widens [start, end) to whole lines when nothing else shares them.
func lineSpan(src []byte, start, end int) (int, int) {
	lineStart := start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart > 0 && src[lineStart-1] != '\n' {
		return start, end
	}
	lineEnd := end
	for lineEnd < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t' || src[lineEnd] == '\r') {
		lineEnd++
	}
	if lineEnd < len(src) && src[lineEnd] != '\n' {
		return start, end
	}
	if lineEnd < len(src) {
		lineEnd++
	}
	return lineStart, lineEnd
}

func leadingWhitespace(s string) string {
	for i, r := range s {
		if r != ' ' && r != '\t' {
			return s[:i]
		}
	}
	return s
}
