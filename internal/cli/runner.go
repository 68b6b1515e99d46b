package cli

import (
	"fmt"
	"os"
	"sort"
)

// CommandFunc represents a command function signature
type CommandFunc func([]string)

// Runner routes a command name to its handler
type Runner struct {
	commands map[string]CommandFunc
}

// NewRunner creates a new command runner
func NewRunner() *Runner {
	return &Runner{
		commands: make(map[string]CommandFunc),
	}
}

// RegisterCommand registers a command handler
func (r *Runner) RegisterCommand(name string, fn CommandFunc) {
	r.commands[name] = fn
}

// Execute runs the named command, or prints usage and exits when it is
// unknown.
func (r *Runner) Execute(command string, args []string) {
	fn, ok := r.commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		Usage()
		os.Exit(1)
	}
	fn(args)
}

// Has reports whether command is registered.
func (r *Runner) Has(command string) bool {
	_, ok := r.commands[command]
	return ok
}

// Names returns the registered command names, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
