package commands

import (
	"fmt"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
)

// HelpCommand handles help requests for specific commands
func HelpCommand(args []string) {
	if len(args) == 0 {
		cli.Usage()
		return
	}

	switch args[0] {
	case "adjust":
		fmt.Println(`Adjust Command - Move files into their target namespace

Usage: nsadjust [options] adjust <file>...

Arguments:
  file    C# source files, absolute or relative to the workspace

For every file the adjust command will:
  - Rename the outermost namespace declaration to the target and keep a
    using directive for the old namespace so the file still compiles
  - Rewrite nested namespace declarations below the new root
  - Rewrite every reference to the moved types across the workspace, adding
    using directives or qualifying names where a plain import would be
    ambiguous
  - Update XAML element names, attribute references and x:Class, declaring
    new xmlns aliases where needed
  - Remove using directives of namespaces the batch emptied

The target is the namespace derived from the nearest .csproj and the folder
of the file, unless --target is given. Name conflicts stop the batch before
anything is changed; parse errors are warnings and need --force.

Examples:
  nsadjust adjust Features/Models/User.cs
  nsadjust --dry-run adjust Features/Models/User.cs
  nsadjust --target App.Shared --backup adjust Shared/A.cs Shared/B.cs`)

	case "preflight":
		fmt.Println(`Preflight Command - Check a batch without changing anything

Usage: nsadjust [options] preflight <file>...

Reports name conflicts with existing types or with other files of the same
batch, and parse errors of the workspace. Exits non-zero when errors exist.

Examples:
  nsadjust preflight Features/Models/User.cs
  nsadjust --json preflight Features/Models/*.cs`)

	case "transitions":
		fmt.Println(`Transitions Command - Show the namespace transitions of a file

Usage: nsadjust [options] transitions <file>

Lists every declared namespace of the file with the name it would get. The
outermost declaration is marked as root.

Examples:
  nsadjust transitions Features/Models/User.cs
  nsadjust --target App.Core transitions Legacy/Helpers.cs`)

	case "target":
		fmt.Println(`Target Command - Show the namespace a file belongs in

Usage: nsadjust [options] target <file>...

The namespace is the RootNamespace of the nearest .csproj (or its file name)
followed by the folders between the project and the file. The root_namespace
config key overrides the project value.

Examples:
  nsadjust target Features/Models/User.cs`)

	case "census":
		fmt.Println(`Census Command - List namespaces and their types

Usage: nsadjust [options] census

Prints every namespace declared in the workspace with the number of types in
it. With --verbose the type names are listed too.`)

	case "config":
		fmt.Println(`Config Command - Print the effective configuration

Usage: nsadjust [--config FILE] config

Prints the configuration read from FILE, or from .nsadjust.toml in the
workspace, merged over the defaults.`)

	case "version":
		VersionCommand([]string{"help"})

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		cli.Usage()
	}
}
