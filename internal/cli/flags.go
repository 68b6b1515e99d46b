package cli

import "flag"

// Flags holds all command line flags
type Flags struct {
	Version   *bool
	Workspace *string
	Target    *string
	Config    *string
	DryRun    *bool
	Json      *bool
	Verbose   *bool
	Force     *bool
	Backup    *bool
}

// GlobalFlags holds the parsed command line flags
var GlobalFlags *Flags

// InitFlags initializes all command line flags
func InitFlags() *Flags {
	return &Flags{
		Version:   flag.Bool("version", false, "Show version information"),
		Workspace: flag.String("workspace", ".", "Path to workspace root (defaults to current directory)"),
		Target:    flag.String("target", "", "Target namespace (defaults to the namespace derived from project and folder)"),
		Config:    flag.String("config", "", "Path to the config file (defaults to <workspace>/.nsadjust.toml)"),
		DryRun:    flag.Bool("dry-run", false, "Preview changes without applying them"),
		Json:      flag.Bool("json", false, "Output results in JSON format"),
		Verbose:   flag.Bool("verbose", false, "Enable verbose output"),
		Force:     flag.Bool("force", false, "Force operation even with warnings"),
		Backup:    flag.Bool("backup", false, "Create backup files before writing changes"),
	}
}

// ParseFlags parses command line flags with custom usage
func ParseFlags(usage func()) {
	if GlobalFlags == nil {
		GlobalFlags = InitFlags()
	}
	flag.Usage = usage
	flag.Parse()
}
