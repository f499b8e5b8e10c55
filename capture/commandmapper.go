package capture

import (
	"sort"
	"strings"

	"github.com/0install/0install-dotnet-sub004/model"
)

// CommandMapper resolves an observed command line (as recorded in a
// registry verb, AutoPlay handler, etc.) back to the Command entry
// point it invokes, by longest-prefix match.
type CommandMapper struct {
	entries []mapperEntry
}

type mapperEntry struct {
	commandLine string
	command     model.Command
}

// NewCommandMapper builds the mapper for an installation rooted at
// installDir, recognising every command in commands: each is added with
// its quoted path, so that `"C:\App\app.exe" --arg` resolves, and also
// with its bare path (`C:\App\app.exe --arg`) when that path contains
// no whitespace or the command has no arguments.
func NewCommandMapper(installDir string, commands []model.Command) *CommandMapper {
	m := &CommandMapper{}
	for _, cmd := range commands {
		fullPath := joinPath(installDir, cmd.Path)
		quoted := `"` + fullPath + `"`

		m.add(quoted, cmd)

		hasWhitespace := strings.ContainsAny(fullPath, " \t")
		if !hasWhitespace || len(cmd.Arguments) == 0 {
			m.add(fullPath, cmd)
		}
	}

	sort.Slice(m.entries, func(i, j int) bool {
		return m.entries[i].commandLine > m.entries[j].commandLine
	})
	return m
}

func (m *CommandMapper) add(commandLine string, cmd model.Command) {
	m.entries = append(m.entries, mapperEntry{commandLine: commandLine, command: cmd})
}

func joinPath(dir, rel string) string {
	if dir == "" {
		return rel
	}
	if strings.HasSuffix(dir, `\`) {
		return dir + rel
	}
	return dir + `\` + rel
}

// GetCommand returns the Command whose registered command line is the
// longest case-insensitive prefix of observed, and the remaining,
// left-trimmed text as additionalArgs. The second return value is
// false if no entry matches.
func (m *CommandMapper) GetCommand(observed string) (model.Command, string, bool) {
	lowered := strings.ToLower(observed)
	for _, e := range m.entries {
		prefix := strings.ToLower(e.commandLine)
		if strings.HasPrefix(lowered, prefix) {
			rest := strings.TrimLeft(observed[len(e.commandLine):], " \t")
			return e.command, rest, true
		}
	}
	return model.Command{}, "", false
}
