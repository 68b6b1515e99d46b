package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/types"
)

// adjustResult is the --json output of adjust
type adjustResult struct {
	Report  *types.Report `json:"report"`
	DryRun  bool          `json:"dry_run"`
	Diff    string        `json:"diff,omitempty"`
	Written []string      `json:"written,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// AdjustCommand moves the given files into their target namespace
func AdjustCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: adjust requires at least one file\n")
		fmt.Fprintf(os.Stderr, "Usage: nsadjust adjust Features/Models/User.cs\n")
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	ws, cfg := openWorkspace(ctx)
	subs := subjects(ws, args)

	runner := adjust.NewRunner(ws.Index, cfg.RunOptions(ws.Root, *cli.GlobalFlags.Force, slog.Default()))
	report, runErr := runner.Run(ctx, subs)

	result := adjustResult{Report: report, DryRun: *cli.GlobalFlags.DryRun}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	// Files rewritten before a failure stay rewritten, as they would in an
	// editor, so pending changes are written even when the run stopped early.
	if *cli.GlobalFlags.DryRun {
		diff, err := ws.Diff()
		if err != nil {
			Fail(err)
		}
		result.Diff = diff
	} else if len(ws.Pending()) > 0 {
		written, err := ws.Commit(*cli.GlobalFlags.Backup)
		if err != nil {
			Fail(err)
		}
		result.Written = written
	}

	if *cli.GlobalFlags.Json {
		OutputJSON(result)
		if runErr != nil {
			os.Exit(1)
		}
		return
	}

	if runErr != nil && len(report.Processed) == 0 {
		Fail(runErr)
	}

	fmt.Printf("Namespace Adjustment\n")
	fmt.Printf("====================\n")
	PrintReport(ws.Root, report)

	if *cli.GlobalFlags.DryRun {
		fmt.Println("\nDry run mode - no changes will be applied")
		if result.Diff != "" {
			fmt.Printf("\n%s", result.Diff)
		}
	} else if len(result.Written) > 0 {
		fmt.Printf("\nModified %d files\n", len(result.Written))
		if *cli.GlobalFlags.Backup {
			fmt.Println("Backups were written next to each file with a .backup suffix")
		}
	}

	if runErr != nil {
		Fail(runErr)
	}
}
