package types

// DocumentKind separates compiled sources from markup files.
type DocumentKind int

const (
	CSharpDocument DocumentKind = iota
	MarkupDocument
)

// String returns the string representation of a DocumentKind
func (k DocumentKind) String() string {
	switch k {
	case CSharpDocument:
		return "CSharp"
	case MarkupDocument:
		return "Markup"
	default:
		return "Unknown"
	}
}

// Document is a single file known to the workspace
type Document struct {
	Path      string // Absolute or store-relative path
	Kind      DocumentKind
	Version   uint64 // Content hash of the last observed text
	Generated bool   // Tool generated (*.g.cs, *.Designer.cs, <auto-generated>)
}

// Subject pairs a file selected by the operator with the namespace its
// types should end up in.
type Subject struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}
