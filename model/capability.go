package model

// Capability is a declaration that an implementation handles a file
// type, protocol, AutoPlay event, or context-menu entry. Concrete
// capability kinds are produced by the capture pipeline (package
// capture) and consumed wherever a feed is serialised.
type Capability interface {
	CapabilityID() string
}

// FileType associates an implementation with a set of file extensions.
type FileType struct {
	ID          string
	Description string
	Extensions  []string
	Verbs       []Verb
}

func (f FileType) CapabilityID() string { return f.ID }

// UrlProtocol associates an implementation with a URL scheme.
type UrlProtocol struct {
	ID    string
	Verbs []Verb
}

func (u UrlProtocol) CapabilityID() string { return u.ID }

// Verb is a single action offered by a FileType/UrlProtocol/ContextMenu
// capability (e.g. "open", "edit").
type Verb struct {
	Name    string
	Command string
	Arg     string
}

// ContextMenuTarget names the four roots a ContextMenu capability can
// attach to.
type ContextMenuTarget string

const (
	TargetFiles           ContextMenuTarget = "files"
	TargetExecutableFiles ContextMenuTarget = "executable-files"
	TargetDirectories     ContextMenuTarget = "directories"
	TargetAll             ContextMenuTarget = "all"
)

// ContextMenu adds a verb to the Explorer context menu for a target
// kind of filesystem object.
type ContextMenu struct {
	ID     string
	Target ContextMenuTarget
	Verb   Verb
}

func (c ContextMenu) CapabilityID() string { return c.ID }

// AutoPlayEvent is one hardware/media event an AutoPlay handler reacts
// to (e.g. "PlayCDAudioOnArrival").
type AutoPlayEvent string

// AutoPlay registers a handler offered for one or more AutoPlay events.
type AutoPlay struct {
	ID          string
	ProgID      string
	Verb        string
	Provider    string
	Description string
	Events      []AutoPlayEvent
}

func (a AutoPlay) CapabilityID() string { return a.ID }

// DefaultProgram registers an implementation as a candidate default
// handler for a service (e.g. "StartMenuInternet").
type DefaultProgram struct {
	ID      string
	Service string
	Install InstallInfo
}

func (d DefaultProgram) CapabilityID() string { return d.ID }

// InstallInfo records the Reinstall/ShowIcons/HideIcons commands a
// default-program registration advertises, each split into a command
// and its arguments.
type InstallInfo struct {
	Reinstall  *CommandLine
	ShowIcons  *CommandLine
	HideIcons  *CommandLine
}

// CommandLine is a command path plus its trailing arguments, as split
// from a registered command line.
type CommandLine struct {
	Command   string
	Arguments string
}

// AppRegistration records an entry under
// HKLM\SOFTWARE\RegisteredApplications along with the capabilities it
// is scoped to.
type AppRegistration struct {
	ID            string
	CapabilityKey string
}

func (a AppRegistration) CapabilityID() string { return a.ID }
