package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
	"github.com/mamaar/nsadjust/pkg/adjust"
	"github.com/mamaar/nsadjust/pkg/types"
)

// PreflightCommand reports what would stop an adjust run
func PreflightCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: preflight requires at least one file\n")
		fmt.Fprintf(os.Stderr, "Usage: nsadjust preflight Features/Models/User.cs\n")
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	ws, cfg := openWorkspace(ctx)
	subs := subjects(ws, args)

	runner := adjust.NewRunner(ws.Index, cfg.RunOptions(ws.Root, *cli.GlobalFlags.Force, slog.Default()))
	issues, err := runner.Preflight(ctx, subs)
	if err != nil {
		Fail(err)
	}

	if *cli.GlobalFlags.Json {
		OutputJSON(map[string]any{"subjects": subs, "issues": issues})
	} else {
		fmt.Printf("Pre-flight Check (%d files)\n", len(subs))
		fmt.Printf("=========================\n")
		for _, s := range subs {
			fmt.Printf("  %s -> %s\n", relative(ws.Root, s.Path), s.Target)
		}
		if len(issues) == 0 {
			fmt.Println("\nNo issues found")
		}
		PrintIssues(ws.Root, issues)
	}

	if types.HasErrors(issues) {
		os.Exit(1)
	}
}
