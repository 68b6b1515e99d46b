package types

// Symbol represents a named C# entity the engine cares about
type Symbol struct {
	Name      string // Simple name ("User")
	FullName  string // Namespace qualified name ("App.Models.User")
	Namespace string // Declaring namespace ("App.Models"), empty for global
	Kind      SymbolKind
	File      string // Declaring file, empty for namespaces
	Start     int    // Byte offset of the declared name
	End       int
	Static    bool
	Parent    *Symbol   // Declaring type for members and extension methods
	Children  []*Symbol // Extension methods of a static class
}

type SymbolKind int

const (
	ClassSymbol SymbolKind = iota
	StructSymbol
	InterfaceSymbol
	EnumSymbol
	DelegateSymbol
	RecordSymbol
	NamespaceSymbol
	MethodSymbol
	PropertySymbol
	FieldSymbol
	MemberSymbol
)

// String returns the string representation of a SymbolKind
func (k SymbolKind) String() string {
	switch k {
	case ClassSymbol:
		return "Class"
	case StructSymbol:
		return "Struct"
	case InterfaceSymbol:
		return "Interface"
	case EnumSymbol:
		return "Enum"
	case DelegateSymbol:
		return "Delegate"
	case RecordSymbol:
		return "Record"
	case NamespaceSymbol:
		return "Namespace"
	case MethodSymbol:
		return "Method"
	case PropertySymbol:
		return "Property"
	case FieldSymbol:
		return "Field"
	case MemberSymbol:
		return "Member"
	default:
		return "Unknown"
	}
}

// IsType reports whether the kind names a type declaration.
func (k SymbolKind) IsType() bool {
	switch k {
	case ClassSymbol, StructSymbol, InterfaceSymbol, EnumSymbol, DelegateSymbol, RecordSymbol:
		return true
	}
	return false
}

// IsMember reports whether the kind is a property, field or method.
func (k SymbolKind) IsMember() bool {
	switch k {
	case MethodSymbol, PropertySymbol, FieldSymbol, MemberSymbol:
		return true
	}
	return false
}

// SameAs compares two symbols by identity rather than pointer.
func (s *Symbol) SameAs(other *Symbol) bool {
	if s == nil || other == nil {
		return false
	}
	if s.Kind != other.Kind || s.FullName != other.FullName {
		return false
	}
	if s.Kind.IsMember() {
		return s.Parent.SameAs(other.Parent)
	}
	return true
}

// Reference represents where a symbol is used
type Reference struct {
	Symbol *Symbol // Symbol resolved at the site
	File   string
	Start  int // Byte offsets of the referencing identifier
	End    int
	Line   int
	Column int
}
