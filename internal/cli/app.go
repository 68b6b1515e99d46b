package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mamaar/nsadjust/internal/config"
	"github.com/mamaar/nsadjust/pkg/adjust"
)

// App represents the nsadjust application
type App struct {
	flags *Flags
}

// NewApp creates a new application instance
func NewApp() *App {
	return &App{}
}

// Initialize sets up the application with flags and logging
func (app *App) Initialize() {
	ParseFlags(Usage)
	app.flags = GlobalFlags
	slog.SetDefault(NewLogger(*app.flags.Verbose))
}

// Run executes the application logic with the provided runner
func (app *App) Run(runner *Runner) {
	if *app.flags.Version {
		ShowVersion()
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		Usage()
		os.Exit(1)
	}

	runner.Execute(args[0], args[1:])
}

// NewLogger returns the stderr text logger, at Debug level when verbose.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// LoadConfigWithFlags reads the configuration of the workspace given by the
// flags.
func LoadConfigWithFlags() (*config.Config, error) {
	return config.Load(*GlobalFlags.Workspace, *GlobalFlags.Config)
}

// OpenWorkspaceWithFlags loads the configuration and parses the workspace.
func OpenWorkspaceWithFlags(ctx context.Context) (*adjust.Workspace, *config.Config, error) {
	cfg, err := LoadConfigWithFlags()
	if err != nil {
		return nil, nil, err
	}
	ws, err := adjust.OpenWorkspace(ctx, *GlobalFlags.Workspace, cfg.WorkspaceOptions(slog.Default()))
	if err != nil {
		return nil, nil, fmt.Errorf("load workspace: %w", err)
	}
	return ws, cfg, nil
}
