package commands

import (
	"fmt"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
)

// TargetCommand shows the namespace each file belongs in
func TargetCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: target requires at least one file\n")
		fmt.Fprintf(os.Stderr, "Usage: nsadjust target Features/Models/User.cs\n")
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	ws, _ := openWorkspace(ctx)
	subs := subjects(ws, args)

	if *cli.GlobalFlags.Json {
		OutputJSON(subs)
		return
	}
	for _, s := range subs {
		fmt.Printf("%s\t%s\n", relative(ws.Root, s.Path), s.Target)
	}
}
