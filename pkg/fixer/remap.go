package fixer

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// spanMap carries offsets of one revision of a document over to a later
// one. Only spans on lines both revisions share are carried; anything on a
// line that was edited in between has no counterpart.
type spanMap struct {
	oldStarts []int
	newStarts []int
	lineTo    []int // new line per old line, -1 when the line changed
}

func newSpanMap(oldText, newText string) *spanMap {
	a := difflib.SplitLines(oldText)
	b := difflib.SplitLines(newText)

	lineTo := make([]int, len(a))
	for i := range lineTo {
		lineTo[i] = -1
	}
	// No automatic junk: brace-only lines are frequent in C# and must match.
	m := difflib.NewMatcherWithJunk(a, b, false, nil)
	for _, op := range m.GetOpCodes() {
		if op.Tag != 'e' {
			continue
		}
		for k := 0; k < op.I2-op.I1; k++ {
			lineTo[op.I1+k] = op.J1 + k
		}
	}
	return &spanMap{oldStarts: lineStarts(a), newStarts: lineStarts(b), lineTo: lineTo}
}

func lineStarts(lines []string) []int {
	starts := make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		starts[i] = offset
		offset += len(l)
	}
	return starts
}

func (m *spanMap) lineOf(offset int) int {
	return sort.Search(len(m.oldStarts), func(i int) bool { return m.oldStarts[i] > offset }) - 1
}

// Map returns where [start, end) of the old revision lies in the new one.
func (m *spanMap) Map(start, end int) (int, int, bool) {
	if start < 0 || end < start {
		return 0, 0, false
	}
	first := m.lineOf(start)
	last := first
	if end > start {
		last = m.lineOf(end - 1)
	}
	if first < 0 || last >= len(m.lineTo) {
		return 0, 0, false
	}
	for l := first; l <= last; l++ {
		if m.lineTo[l] < 0 || m.lineTo[l]-m.lineTo[first] != l-first {
			return 0, 0, false
		}
	}
	newStart := m.newStarts[m.lineTo[first]] + start - m.oldStarts[first]
	return newStart, newStart + end - start, true
}
