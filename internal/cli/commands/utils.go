package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mamaar/nsadjust/internal/cli"
	"github.com/mamaar/nsadjust/internal/config"
	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/types"
)

// commandContext is cancelled on interrupt so a batch stops between files.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openWorkspace loads the configuration and the workspace named by the
// flags or exits.
func openWorkspace(ctx context.Context) (*adjust.Workspace, *config.Config) {
	ws, cfg, err := cli.OpenWorkspaceWithFlags(ctx)
	if err != nil {
		Fail(err)
	}
	if *cli.GlobalFlags.Verbose {
		fmt.Fprintf(os.Stderr, "Workspace root: %s (%d documents)\n", ws.Root, len(ws.Index.Documents()))
	}
	return ws, cfg
}

// subjects resolves the file arguments against ws or exits.
func subjects(ws *adjust.Workspace, args []string) []types.Subject {
	subs, err := ws.Subjects(args, *cli.GlobalFlags.Target)
	if err != nil {
		Fail(err)
	}
	return subs
}

// Fail prints err, with the issues of a ValidationError, and exits.
func Fail(err error) {
	if *cli.GlobalFlags.Json {
		OutputJSON(map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var valErr *types.ValidationError
	if errors.As(err, &valErr) {
		fmt.Fprintf(os.Stderr, "\nValidation Issues:\n")
		for i, issue := range valErr.Issues {
			fmt.Fprintf(os.Stderr, "  %d. %s: %s\n", i+1, issue.Severity.String(), issue.Description)
			if issue.File != "" {
				fmt.Fprintf(os.Stderr, "     File: %s", issue.File)
				if issue.Line > 0 {
					fmt.Fprintf(os.Stderr, ":%d", issue.Line)
				}
				fmt.Fprintf(os.Stderr, "\n")
			}
		}
		if !types.HasErrors(valErr.Issues) {
			fmt.Fprintf(os.Stderr, "\nWarnings found. Use --force to proceed anyway\n")
		}
	}
	os.Exit(1)
}

// PrintIssues prints issues with a severity prefix.
func PrintIssues(root string, issues []types.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Printf("\nIssues Found:\n")
	for _, issue := range issues {
		prefix := "  "
		switch issue.Severity {
		case types.Error:
			prefix = "  ERROR: "
		case types.Warning:
			prefix = "  WARN:  "
		case types.Info:
			prefix = "  INFO:  "
		}
		fmt.Printf("%s%s\n", prefix, issue.Description)
		if issue.File != "" {
			fmt.Printf("        at %s:%d\n", relative(root, issue.File), issue.Line)
		}
	}
}

// PrintReport prints the summary of a batch run.
func PrintReport(root string, report *types.Report) {
	fmt.Printf("Processed %d files, skipped %d\n", len(report.Processed), len(report.Skipped))
	if *cli.GlobalFlags.Verbose {
		for _, f := range report.Skipped {
			fmt.Printf("  skipped %s\n", relative(root, f))
		}
	}

	if len(report.Moved) > 0 {
		fmt.Printf("\nMoved Types (%d):\n", len(report.Moved))
		for _, m := range report.Moved {
			fmt.Printf("  %s: %s -> %s\n", m.FullName, m.From, m.To)
		}
	}

	if len(report.ChangedFiles) > 0 {
		fmt.Printf("\nChanged Files (%d):\n", len(report.ChangedFiles))
		for _, f := range report.ChangedFiles {
			fmt.Printf("  - %s\n", relative(root, f))
		}
	}

	if report.RemovedImports > 0 {
		fmt.Printf("\nRemoved %d using directives of emptied namespaces", report.RemovedImports)
		if len(report.RemovedNamespace) > 0 {
			fmt.Printf(" (%v)", report.RemovedNamespace)
		}
		fmt.Println()
	}

	PrintIssues(root, report.Issues)
}

// OutputJSON outputs data as JSON
func OutputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
