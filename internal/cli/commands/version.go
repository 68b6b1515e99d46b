package commands

import (
	"fmt"

	"github.com/mamaar/nsadjust/internal/cli"
)

// VersionCommand handles the version command
func VersionCommand(args []string) {
	if len(args) > 0 {
		fmt.Println(`Version Command - Show application version

Usage: nsadjust version

Shows the current version of nsadjust.`)
		return
	}

	cli.ShowVersion()
}
