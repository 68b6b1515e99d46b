package types

// Change represents a specific text edit to be made
type Change struct {
	File        string
	Start       int
	End         int
	OldText     string
	NewText     string
	Description string
}

type Issue struct {
	Type        IssueType
	Description string
	File        string
	Line        int
	Severity    IssueSeverity
}

type IssueType int

const (
	IssueCompilationError IssueType = iota
	IssueNameConflict
	IssueMissingDocument
	IssueUnclassifiedReference
)

// String returns the string representation of IssueType
func (t IssueType) String() string {
	switch t {
	case IssueCompilationError:
		return "CompilationError"
	case IssueNameConflict:
		return "NameConflict"
	case IssueMissingDocument:
		return "MissingDocument"
	case IssueUnclassifiedReference:
		return "UnclassifiedReference"
	default:
		return "Unknown"
	}
}

type IssueSeverity int

const (
	Error IssueSeverity = iota
	Warning
	Info
)

// String returns the string representation of IssueSeverity
func (s IssueSeverity) String() string {
	switch s {
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	default:
		return "Unknown"
	}
}

// HasErrors reports whether any issue carries Error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == Error {
			return true
		}
	}
	return false
}

// MovedType records one type that left its original namespace.
type MovedType struct {
	FullName string `json:"full_name"`
	From     string `json:"from"`
	To       string `json:"to"`
	File     string `json:"file"`
}

// Report summarizes one batch run
type Report struct {
	Processed        []string    `json:"processed"`
	Skipped          []string    `json:"skipped"`
	Moved            []MovedType `json:"moved"`
	ChangedFiles     []string    `json:"changed_files"`
	RemovedImports   int         `json:"removed_imports"`
	RemovedNamespace []string    `json:"removed_namespaces"`
	Issues           []Issue     `json:"issues,omitempty"`
}
