package xaml

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mamaar/nsadjust/pkg/edit"
	"github.com/mamaar/nsadjust/pkg/types"
)

// Options configures a Document
type Options struct {
	// Disambiguator returns the random part of new alias names.
	Disambiguator func() string
	// KeepUnusedAliases disables removal of emptied source aliases.
	KeepUnusedAliases bool
	Logger            *slog.Logger
}

// Document is one markup file opened for renaming
type Document struct {
	name      string
	source    TextSource
	text      string
	structure *Structure
	changed   bool
	opts      Options
	logger    *slog.Logger
}

// Open reads source and discovers its structure. name identifies the
// document in logs.
func Open(name string, source TextSource, opts Options) (*Document, error) {
	text, err := source.ReadText()
	if err != nil {
		return nil, err
	}
	if opts.Disambiguator == nil {
		opts.Disambiguator = randomSuffix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Document{
		name:      name,
		source:    source,
		text:      text,
		structure: Parse(text),
		opts:      opts,
		logger:    logger,
	}, nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// Text returns the current, possibly unsaved, text.
func (d *Document) Text() string {
	return d.text
}

// Structure returns the structure of the current text.
func (d *Document) Structure() *Structure {
	return d.structure
}

// Changed reports whether any splice happened since opening.
func (d *Document) Changed() bool {
	return d.changed
}

// performable is one discovered site that may denote the moved class
type performable struct {
	start, end int
	apply      func(alias string) (string, bool)
}

// MoveObject points every usage of sourceNamespace.className at
// targetNamespace and returns how many sites were rewritten.
func (d *Document) MoveObject(sourceNamespace, className, targetNamespace string) (int, error) {
	if sourceNamespace == targetNamespace {
		return 0, nil
	}
	s := d.structure
	sourceAliases := s.AliasesFor(sourceNamespace)

	var sites []performable
	for _, c := range s.Controls {
		if sourceAliases[c.Prefix] && c.Name == className {
			sites = append(sites, performable{start: c.PrefixStart, end: c.PrefixEnd, apply: func(alias string) (string, bool) { return alias, true }})
		}
	}
	for _, r := range s.References {
		if sourceAliases[r.Prefix] && r.Name == className {
			sites = append(sites, performable{start: r.PrefixStart, end: r.PrefixEnd, apply: func(alias string) (string, bool) { return alias, true }})
		}
	}
	for _, c := range s.Classes {
		if c.Namespace == sourceNamespace && c.Name == className {
			sites = append(sites, performable{start: c.Start, end: c.End, apply: func(string) (string, bool) {
				return targetNamespace + "." + className, false
			}})
		}
	}
	if len(sites) == 0 {
		return 0, nil
	}

	// Later sites first so earlier offsets stay valid.
	sort.Slice(sites, func(i, j int) bool { return sites[i].start > sites[j].start })

	var (
		changes []types.Change
		pending *Xmlns
		alias   string
	)
	for _, site := range sites {
		replacement, needsAlias := site.apply(alias)
		if needsAlias && alias == "" {
			alias, pending = d.targetAlias(targetNamespace, sourceNamespace)
			replacement, _ = site.apply(alias)
		}
		changes = append(changes, types.Change{
			File:    d.name,
			Start:   site.start,
			End:     site.end,
			OldText: d.text[site.start:site.end],
			NewText: replacement,
		})
	}

	if pending != nil {
		changes = append(changes, d.insertion(pending))
	}

	if err := d.apply(changes); err != nil {
		return 0, err
	}
	d.logger.Debug("markup type moved", "file", d.name, "type", sourceNamespace+"."+className, "to", targetNamespace, "sites", len(sites))

	if !d.opts.KeepUnusedAliases {
		if err := d.removeUnusedAliases(sourceNamespace); err != nil {
			return len(sites), err
		}
	}
	return len(sites), nil
}

// targetAlias returns an existing alias bound to namespace, or a new pending
// declaration copying the assembly suffix of the source alias.
func (d *Document) targetAlias(namespace, sourceNamespace string) (string, *Xmlns) {
	for _, x := range d.structure.Xmlns {
		if x.Namespace == namespace {
			return x.Alias, nil
		}
	}

	suffix := ""
	for _, x := range d.structure.Xmlns {
		if x.Namespace == sourceNamespace {
			suffix = x.Suffix
			break
		}
	}

	base := namespace
	if dot := strings.LastIndex(namespace, "."); dot >= 0 {
		base = namespace[dot+1:]
	}
	alias := base + d.opts.Disambiguator()
	for d.structure.HasPrefix(alias) {
		alias = base + d.opts.Disambiguator()
	}
	return alias, &Xmlns{Alias: alias, Namespace: namespace, Suffix: suffix}
}

// insertion places a pending declaration right after the last xmlns
// attribute, on its own line when the existing declarations are.
func (d *Document) insertion(x *Xmlns) types.Change {
	decls := d.structure.Declarations
	pos := 0
	separator := " "
	if len(decls) > 0 {
		last := decls[len(decls)-1]
		pos = last[1]
		lineStart := last[0]
		for lineStart > 0 && (d.text[lineStart-1] == ' ' || d.text[lineStart-1] == '\t') {
			lineStart--
		}
		if lineStart == 0 || d.text[lineStart-1] == '\n' {
			newline := "\n"
			if lineStart >= 2 && d.text[lineStart-2] == '\r' {
				newline = "\r\n"
			}
			separator = newline + d.text[lineStart:last[0]]
		}
	} else if root := rootElementEnd(d.text); root >= 0 {
		pos = root
	}
	return types.Change{
		File:        d.name,
		Start:       pos,
		End:         pos,
		NewText:     separator + x.Declaration(),
		Description: "Add alias " + x.Alias,
	}
}

// rootElementEnd returns the offset right after the root element name.
func rootElementEnd(text string) int {
	m := regexp.MustCompile(`<[\w.:-]+`).FindAllStringIndex(text, -1)
	for _, loc := range m {
		if !strings.HasPrefix(text[loc[0]:], "<?") && !strings.HasPrefix(text[loc[0]:], "<!") {
			return loc[1]
		}
	}
	return -1
}

// removeUnusedAliases drops declarations bound to namespace that no tag,
// inline reference or attached property uses anymore.
func (d *Document) removeUnusedAliases(namespace string) error {
	var changes []types.Change
	for _, x := range d.structure.Xmlns {
		if x.Namespace != namespace || d.aliasInUse(x.Alias) {
			continue
		}
		start := x.Start
		for start > 0 && strings.ContainsRune(" \t\r\n", rune(d.text[start-1])) {
			start--
		}
		changes = append(changes, types.Change{
			File:        d.name,
			Start:       start,
			End:         x.End,
			OldText:     d.text[start:x.End],
			Description: "Remove alias " + x.Alias,
		})
	}
	if len(changes) == 0 {
		return nil
	}
	return d.apply(changes)
}

func (d *Document) aliasInUse(alias string) bool {
	for _, c := range d.structure.Controls {
		if c.Prefix == alias {
			return true
		}
	}
	for _, r := range d.structure.References {
		if r.Prefix == alias {
			return true
		}
	}
	usage := regexp.MustCompile(`(^|[^\w.:-])` + regexp.QuoteMeta(alias) + `:\w`)
	for _, loc := range usage.FindAllStringIndex(d.text, -1) {
		if !d.inDeclaration(loc[0]) {
			return true
		}
	}
	return false
}

func (d *Document) inDeclaration(offset int) bool {
	for _, span := range d.structure.Declarations {
		if offset >= span[0] && offset < span[1] {
			return true
		}
	}
	return false
}

// apply splices changes into the text and rediscovers the structure.
func (d *Document) apply(changes []types.Change) error {
	text, err := edit.Apply(d.text, changes)
	if err != nil {
		return &types.RefactorError{Type: types.InvalidOperation, Message: fmt.Sprintf("markup edit failed: %v", err), File: d.name, Cause: err}
	}
	if text == d.text {
		return nil
	}
	d.text = text
	d.structure = Parse(text)
	d.changed = true
	return nil
}

// SaveIfChangesExists writes the text back when anything changed and reports
// whether it did.
func (d *Document) SaveIfChangesExists() (bool, error) {
	if !d.changed {
		return false, nil
	}
	if err := d.source.UpdateText(d.text); err != nil {
		return false, err
	}
	d.changed = false
	return true, nil
}
