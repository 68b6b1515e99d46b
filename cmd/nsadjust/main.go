package main

import (
	"github.com/mamaar/nsadjust/internal/cli"
	"github.com/mamaar/nsadjust/internal/cli/commands"
)

func newRunner() *cli.Runner {
	runner := cli.NewRunner()
	runner.RegisterCommand("adjust", commands.AdjustCommand)
	runner.RegisterCommand("preflight", commands.PreflightCommand)
	runner.RegisterCommand("transitions", commands.TransitionsCommand)
	runner.RegisterCommand("target", commands.TargetCommand)
	runner.RegisterCommand("census", commands.CensusCommand)
	runner.RegisterCommand("config", commands.ConfigCommand)
	runner.RegisterCommand("version", commands.VersionCommand)
	runner.RegisterCommand("help", commands.HelpCommand)
	return runner
}

func main() {
	app := cli.NewApp()
	app.Initialize()
	app.Run(newRunner())
}
