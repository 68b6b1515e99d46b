package types

import (
	"path/filepath"
	"strings"
)

// ResolveDocumentPath resolves a user-provided file reference to a known document path.
func ResolveDocumentPath(docs []*Document, rootPath, userPath string) string {
	byPath := make(map[string]bool, len(docs))
	for _, doc := range docs {
		byPath[doc.Path] = true
	}

	// Strategy 1: Try exact match (for absolute paths)
	if byPath[userPath] {
		return userPath
	}

	// Strategy 2: Try relative to workspace root
	absPath := filepath.Join(rootPath, userPath)
	if byPath[absPath] {
		return absPath
	}

	// Strategy 3: Try a unique suffix match ("Models/User.cs")
	var matchedPath string
	matchCount := 0
	suffix := string(filepath.Separator) + filepath.Clean(userPath)
	for _, doc := range docs {
		if strings.HasSuffix(doc.Path, suffix) {
			matchedPath = doc.Path
			matchCount++
			if matchCount > 1 {
				break
			}
		}
	}
	if matchCount == 1 {
		return matchedPath
	}

	// If nothing matches, return the user input (will trigger helpful error message)
	return userPath
}
