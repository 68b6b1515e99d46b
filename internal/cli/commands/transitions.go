package commands

import (
	"fmt"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
	"github.com/mamaar/nsadjust/pkg/transition"
)

// TransitionsCommand shows the namespace transitions of one file
func TransitionsCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: transitions requires exactly one file\n")
		fmt.Fprintf(os.Stderr, "Usage: nsadjust transitions Features/Models/User.cs\n")
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	ws, _ := openWorkspace(ctx)
	sub := subjects(ws, args)[0]

	root, err := ws.Index.SyntaxRoot(ctx, sub.Path)
	if err != nil {
		Fail(err)
	}
	transitions := transition.Compute(root, sub.Target).All()

	if *cli.GlobalFlags.Json {
		OutputJSON(map[string]any{"file": sub.Path, "target": sub.Target, "transitions": transitions})
		return
	}

	fmt.Printf("Transitions for %s (target %s):\n", relative(ws.Root, sub.Path), sub.Target)
	if len(transitions) == 0 {
		fmt.Println("  none, the file already matches its target")
		return
	}
	for _, t := range transitions {
		marker := ""
		if t.IsRoot {
			marker = " (root)"
		}
		fmt.Printf("  %s -> %s%s\n", t.Original, t.Modified, marker)
	}
}
