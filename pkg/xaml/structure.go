// Package xaml renames CLR namespaces inside XAML markup. Markup is never
// compiled, so the structure is discovered with regular expressions and
// rebuilt from scratch after every mutation.
package xaml

import (
	"regexp"
	"sort"
	"strings"
)

// XamlNamespace is the URI the `x:` vocabulary is bound to.
const XamlNamespace = "http://schemas.microsoft.com/winfx/2006/xaml"

var (
	xPrefixPattern = regexp.MustCompile(`xmlns:([\w.-]+)\s*=\s*"` + regexp.QuoteMeta(XamlNamespace) + `"`)
	xmlnsPattern   = regexp.MustCompile(`xmlns:([\w.-]+)\s*=\s*"clr-namespace:([\w.]+)(;[^"]*)?"`)
	declPattern    = regexp.MustCompile(`xmlns(?::[\w.-]+)?\s*=\s*"[^"]*"`)
	tagPattern     = regexp.MustCompile(`</?([\w.-]+):(\w+)`)
)

// Xmlns binds an alias to a CLR namespace
type Xmlns struct {
	Alias     string
	Namespace string
	Suffix    string // ";assembly=..." kept verbatim
	Start     int    // Span of the whole attribute
	End       int
	Saved     bool // false while waiting to be inserted
}

// Declaration renders the attribute text.
func (x *Xmlns) Declaration() string {
	return `xmlns:` + x.Alias + `="clr-namespace:` + x.Namespace + x.Suffix + `"`
}

// Control is a prefixed element tag such as <local:UserView
type Control struct {
	Prefix      string
	Name        string
	PrefixStart int
	PrefixEnd   int
}

// AttributeReference is an inline {x:Type p:N} or {x:Static p:N.M}
type AttributeReference struct {
	Extension   string // "Type" or "Static"
	Prefix      string
	Name        string
	Member      string
	PrefixStart int
	PrefixEnd   int
}

// Class is the x:Class code-behind declaration
type Class struct {
	Namespace string
	Name      string
	Start     int // Span of the full name inside the quotes
	End       int
}

// FullName returns the namespace qualified class name.
func (c *Class) FullName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "." + c.Name
}

// Structure is everything position bearing discovered in one text
type Structure struct {
	XPrefix      string
	Xmlns        []*Xmlns
	Declarations [][2]int // Spans of every xmlns attribute
	Controls     []*Control
	References   []*AttributeReference
	Classes      []*Class
}

// Parse scans text and returns its structure.
func Parse(text string) *Structure {
	s := &Structure{}

	if m := xPrefixPattern.FindStringSubmatch(text); m != nil {
		s.XPrefix = m[1]
	}

	for _, loc := range declPattern.FindAllStringIndex(text, -1) {
		s.Declarations = append(s.Declarations, [2]int{loc[0], loc[1]})
	}

	for _, m := range xmlnsPattern.FindAllStringSubmatchIndex(text, -1) {
		x := &Xmlns{
			Alias:     text[m[2]:m[3]],
			Namespace: text[m[4]:m[5]],
			Start:     m[0],
			End:       m[1],
			Saved:     true,
		}
		if m[6] >= 0 {
			x.Suffix = text[m[6]:m[7]]
		}
		s.Xmlns = append(s.Xmlns, x)
	}

	for _, m := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		s.Controls = append(s.Controls, &Control{
			Prefix:      text[m[2]:m[3]],
			Name:        text[m[4]:m[5]],
			PrefixStart: m[2],
			PrefixEnd:   m[3],
		})
	}

	if s.XPrefix == "" {
		return s
	}
	x := regexp.QuoteMeta(s.XPrefix)

	typePattern := regexp.MustCompile(`\{\s*` + x + `:Type\s+([\w.-]+):(\w+)\s*\}`)
	for _, m := range typePattern.FindAllStringSubmatchIndex(text, -1) {
		s.References = append(s.References, &AttributeReference{
			Extension:   "Type",
			Prefix:      text[m[2]:m[3]],
			Name:        text[m[4]:m[5]],
			PrefixStart: m[2],
			PrefixEnd:   m[3],
		})
	}
	staticPattern := regexp.MustCompile(`\{\s*` + x + `:Static\s+([\w.-]+):(\w+)\.(\w+)\s*\}`)
	for _, m := range staticPattern.FindAllStringSubmatchIndex(text, -1) {
		s.References = append(s.References, &AttributeReference{
			Extension:   "Static",
			Prefix:      text[m[2]:m[3]],
			Name:        text[m[4]:m[5]],
			Member:      text[m[6]:m[7]],
			PrefixStart: m[2],
			PrefixEnd:   m[3],
		})
	}
	sort.Slice(s.References, func(i, j int) bool { return s.References[i].PrefixStart < s.References[j].PrefixStart })

	classPattern := regexp.MustCompile(x + `:Class\s*=\s*"([\w.]+)"`)
	for _, m := range classPattern.FindAllStringSubmatchIndex(text, -1) {
		full := text[m[2]:m[3]]
		c := &Class{Name: full, Start: m[2], End: m[3]}
		if dot := strings.LastIndex(full, "."); dot >= 0 {
			c.Namespace, c.Name = full[:dot], full[dot+1:]
		}
		s.Classes = append(s.Classes, c)
	}

	return s
}

// AliasesFor returns the aliases bound to namespace.
func (s *Structure) AliasesFor(namespace string) map[string]bool {
	aliases := make(map[string]bool)
	for _, x := range s.Xmlns {
		if x.Namespace == namespace {
			aliases[x.Alias] = true
		}
	}
	return aliases
}

// Alias returns the declaration of alias, if any.
func (s *Structure) Alias(alias string) *Xmlns {
	for _, x := range s.Xmlns {
		if x.Alias == alias {
			return x
		}
	}
	return nil
}

// HasPrefix reports whether any declaration, saved or not, uses alias.
func (s *Structure) HasPrefix(alias string) bool {
	if alias == s.XPrefix {
		return true
	}
	return s.Alias(alias) != nil
}
