package main

import (
	"testing"
)

func TestNewRunner_RegistersCommands(t *testing.T) {
	runner := newRunner()
	for _, name := range []string{"adjust", "preflight", "transitions", "target", "census", "config", "version", "help"} {
		if !runner.Has(name) {
			t.Errorf("command %q is not registered", name)
		}
	}
	if runner.Has("move") {
		t.Error("unexpected command move")
	}
}
