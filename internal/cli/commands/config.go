package commands

import (
	"fmt"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
)

// ConfigCommand prints the effective configuration
func ConfigCommand(args []string) {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Error: config takes no arguments\n")
		os.Exit(1)
	}

	cfg, err := cli.LoadConfigWithFlags()
	if err != nil {
		Fail(err)
	}

	if *cli.GlobalFlags.Json {
		OutputJSON(cfg)
		return
	}
	text, err := cfg.Encode()
	if err != nil {
		Fail(err)
	}
	if cfg.Path != "" {
		fmt.Printf("# %s\n", cfg.Path)
	} else {
		fmt.Println("# defaults")
	}
	fmt.Print(text)
}
