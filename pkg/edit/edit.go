// Package edit applies span edits to document text and renders previews.
package edit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mamaar/nsadjust/pkg/types"
)

// Apply applies changes to content in descending start order so earlier
// offsets stay valid. Changes must not overlap and, when OldText is set, must
// still match the text at their span.
func Apply(content string, changes []types.Change) (string, error) {
	if len(changes) == 0 {
		return content, nil
	}

	// Reversed first so equal spans end up in registration order.
	sorted := make([]types.Change, 0, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		sorted = append(sorted, changes[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start > sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	if err := validatePositions(sorted); err != nil {
		return "", err
	}

	var err error
	for _, change := range sorted {
		content, err = applyChange(content, change)
		if err != nil {
			return "", err
		}
	}
	return content, nil
}

// applyChange applies a single change to the content
func applyChange(content string, change types.Change) (string, error) {
	if change.Start < 0 || change.End > len(content) || change.Start > change.End {
		return "", fmt.Errorf("invalid change bounds: start=%d, end=%d, content length=%d",
			change.Start, change.End, len(content))
	}

	if change.OldText != "" {
		actual := content[change.Start:change.End]
		if actual != change.OldText {
			return "", fmt.Errorf("old text mismatch at %d: expected %q, found %q",
				change.Start, change.OldText, actual)
		}
	}

	return content[:change.Start] + change.NewText + content[change.End:], nil
}

// validatePositions expects changes sorted by descending start. Several
// insertions at the same offset are allowed.
func validatePositions(changes []types.Change) error {
	for i := 0; i+1 < len(changes); i++ {
		later, earlier := changes[i], changes[i+1]
		if earlier.End > later.Start && !(earlier.Start == earlier.End && later.Start == later.End) {
			return fmt.Errorf("overlapping changes detected: [%d-%d] and [%d-%d]",
				earlier.Start, earlier.End, later.Start, later.End)
		}
	}
	return nil
}

// GroupByFile groups changes by their target file.
func GroupByFile(changes []types.Change) map[string][]types.Change {
	grouped := make(map[string][]types.Change)
	for _, change := range changes {
		grouped[change.File] = append(grouped[change.File], change)
	}
	return grouped
}

// Preview renders a readable summary of the changes, one section per file.
func Preview(changes []types.Change) string {
	if len(changes) == 0 {
		return "No changes to preview"
	}

	grouped := GroupByFile(changes)
	files := make([]string, 0, len(grouped))
	for file := range grouped {
		files = append(files, file)
	}
	sort.Strings(files)

	var preview strings.Builder
	fmt.Fprintf(&preview, "Preview of %d changes across %d files:\n\n", len(changes), len(files))

	for _, file := range files {
		changesForFile := grouped[file]
		fmt.Fprintf(&preview, "File: %s\n", file)
		preview.WriteString(strings.Repeat("-", len(file)+6) + "\n")

		sort.Slice(changesForFile, func(i, j int) bool {
			return changesForFile[i].Start < changesForFile[j].Start
		})

		for i, change := range changesForFile {
			fmt.Fprintf(&preview, "%d. %s\n", i+1, change.Description)
			fmt.Fprintf(&preview, "   Position: %d-%d\n", change.Start, change.End)
			if change.OldText != "" {
				fmt.Fprintf(&preview, "   - %s\n", truncate(change.OldText, 80))
			}
			if change.NewText != "" {
				fmt.Fprintf(&preview, "   + %s\n", truncate(change.NewText, 80))
			}
			preview.WriteString("\n")
		}
	}

	return preview.String()
}

// Diff renders a unified diff between the original and modified text.
func Diff(path, original, modified string) (string, error) {
	if original == modified {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "a/" + filepath.ToSlash(path),
		ToFile:   "b/" + filepath.ToSlash(path),
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}
	return text, nil
}

// truncate collapses whitespace and shortens text for single-line display.
func truncate(text string, length int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= length {
		return text
	}
	return text[:length-3] + "..."
}

// BackupFile copies a file to <path>.backup before it is modified.
func BackupFile(filePath string) (string, error) {
	backupPath := filePath + ".backup"

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", &types.RefactorError{
			Type:    types.FileSystemError,
			Message: "failed to read original file",
			File:    filePath,
			Cause:   err,
		}
	}

	if err := os.WriteFile(backupPath, content, 0644); err != nil {
		return "", &types.RefactorError{
			Type:    types.FileSystemError,
			Message: "failed to create backup",
			File:    backupPath,
			Cause:   err,
		}
	}

	return backupPath, nil
}

// RestoreFromBackup restores a file from its backup
func RestoreFromBackup(filePath, backupPath string) error {
	content, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("failed to restore file: %w", err)
	}

	return nil
}
