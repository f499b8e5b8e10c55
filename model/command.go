package model

import "github.com/0install/0install-dotnet-sub004/version"

// Canonical command names.
const (
	CommandRun     = "run"
	CommandCompile = "compile"
	CommandTest    = "test"
)

// Runner wraps a Command in another interface's command: running it
// means first selecting an implementation of Runner.InterfaceUri and
// invoking its Runner.Command, then appending this command's own
// arguments.
type Runner struct {
	InterfaceUri string
	Command      string // defaults to CommandRun
	Versions     version.Range
	Arguments    []string
}

// Command is a named executable entry point within an Implementation.
type Command struct {
	Name      string
	Path      string
	Arguments []string

	Runner *Runner

	Bindings     []Binding
	WorkingDir   string
	Dependencies []Dependency
	Restrictions []Restriction
}

func (r Runner) command() string {
	if r.Command == "" {
		return CommandRun
	}
	return r.Command
}
