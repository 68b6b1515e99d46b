package types

import (
	"errors"
	"fmt"
)

// RefactorError represents errors in namespace adjusting operations
type RefactorError struct {
	Type    ErrorType
	Message string
	File    string
	Line    int
	Column  int
	Cause   error
}

func (e *RefactorError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

func (e *RefactorError) Unwrap() error {
	return e.Cause
}

type ErrorType int

const (
	ParseError ErrorType = iota
	SymbolNotFound
	InvalidOperation
	DocumentMissing
	SemanticModelMissing
	TransitionMissing
	NameConflict
	FileSystemError
	Cancelled
)

// String returns the string representation of an ErrorType
func (t ErrorType) String() string {
	switch t {
	case ParseError:
		return "ParseError"
	case SymbolNotFound:
		return "SymbolNotFound"
	case InvalidOperation:
		return "InvalidOperation"
	case DocumentMissing:
		return "DocumentMissing"
	case SemanticModelMissing:
		return "SemanticModelMissing"
	case TransitionMissing:
		return "TransitionMissing"
	case NameConflict:
		return "NameConflict"
	case FileSystemError:
		return "FileSystemError"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsEnvironmentMissing reports whether err only says that a document, tree or
// semantic model was not available. Such errors skip the current file or site.
func IsEnvironmentMissing(err error) bool {
	var re *RefactorError
	if !errors.As(err, &re) {
		return false
	}
	return re.Type == DocumentMissing || re.Type == SemanticModelMissing
}

// ValidationError represents pre-flight failures
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Issues[0].Description)
	}
	return fmt.Sprintf("validation failed with %d issues", len(e.Issues))
}
