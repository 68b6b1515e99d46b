package commands

import (
	"fmt"
	"os"

	"github.com/mamaar/nsadjust/internal/cli"
	"github.com/mamaar/nsadjust/pkg/census"
)

type namespaceCount struct {
	Namespace string   `json:"namespace"`
	Types     []string `json:"types"`
}

// CensusCommand lists every namespace with the types declared in it
func CensusCommand(args []string) {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Error: census takes no arguments\n")
		os.Exit(1)
	}

	ctx, cancel := commandContext()
	defer cancel()

	ws, _ := openWorkspace(ctx)
	c, err := census.Build(ctx, ws.Index)
	if err != nil {
		Fail(err)
	}

	var counts []namespaceCount
	for _, ns := range c.Namespaces() {
		counts = append(counts, namespaceCount{Namespace: ns, Types: c.Remaining(ns)})
	}

	if *cli.GlobalFlags.Json {
		OutputJSON(counts)
		return
	}
	for _, nc := range counts {
		fmt.Printf("%-50s %d\n", nc.Namespace, len(nc.Types))
		if *cli.GlobalFlags.Verbose {
			for _, t := range nc.Types {
				fmt.Printf("    %s\n", t)
			}
		}
	}
}
