package cli

import (
	"flag"
	"fmt"
	"os"
)

// Usage prints the usage information for the nsadjust command
func Usage() {
	fmt.Fprintf(os.Stderr, `nsadjust - Move C# files into the namespace their folder implies

Usage: nsadjust [options] <command> [arguments]

Commands:
  adjust <file>...
    Rewrite the namespace declarations of the files, every reference to
    their types and every markup document using them

  preflight <file>...
    Report name conflicts and parse errors without changing anything

  transitions <file>
    Show the namespace transitions a file would undergo

  target <file>...
    Show the namespace each file belongs in

  census
    List every namespace with the number of types declared in it

  config
    Print the effective configuration as TOML

  version
    Show version information

  help [command]
    Show help for a specific command

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  # Move a file into the namespace of its folder
  nsadjust adjust src/App/Features/Models/User.cs

  # Preview the edits as a diff
  nsadjust --dry-run adjust src/App/Features/Models/User.cs

  # Move several files into an explicit namespace
  nsadjust --target App.Shared adjust Shared/A.cs Shared/B.cs

  # Check a batch before running it
  nsadjust preflight Features/Models/*.cs
`)
}
