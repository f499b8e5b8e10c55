package model

import (
	"os"
	"path/filepath"
	"strings"
)

// BindingKind identifies which activation mechanism a Binding performs.
type BindingKind int

const (
	// EnvironmentBinding prepends/appends/sets an environment variable
	// to a path (or path list) inside the dependency's implementation.
	EnvironmentBinding BindingKind = iota
	// ExecutableInBinding exposes a command of the dependency as an
	// executable on PATH (or as a named environment variable pointing
	// at it).
	ExecutableInBinding
)

// EnvironmentMode controls how an EnvironmentBinding combines its value
// with any existing variable.
type EnvironmentMode int

const (
	EnvPrepend EnvironmentMode = iota
	EnvAppend
	EnvReplace
)

// Binding describes how to activate a dependency at run time.
type Binding struct {
	Kind BindingKind

	// EnvironmentBinding fields.
	Name      string
	Insert    string // path relative to the implementation root, "" for the root itself
	Mode      EnvironmentMode
	Separator string // defaults to os.PathListSeparator when empty

	// ExecutableInBinding fields.
	Command string // command name exposed by the dependency, defaults to "run"
}

// Apply returns the new value of the environment variable this binding
// targets, given implRoot (the absolute path of the resolved
// dependency's implementation) and the variable's current value.
//
// The path-joining and prepend/append logic is the generalisation of
// the teacher's PYTHONPATH-builder: a list of installation paths joined
// by the platform path-list separator.
func (b Binding) Apply(implRoot, current string) string {
	value := implRoot
	if b.Insert != "" {
		value = filepath.Join(implRoot, filepath.FromSlash(b.Insert))
	}

	sep := b.Separator
	if sep == "" {
		sep = string(os.PathListSeparator)
	}

	switch b.Mode {
	case EnvReplace:
		return value
	case EnvAppend:
		if current == "" {
			return value
		}
		return current + sep + value
	default: // EnvPrepend
		if current == "" {
			return value
		}
		return value + sep + current
	}
}

// JoinPaths concatenates multiple resolved implementation paths using
// the platform path-list separator, matching buildPythonPath's
// strings.Builder loop in the teacher.
func JoinPaths(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}
