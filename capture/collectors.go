package capture

import (
	"sort"
	"strings"

	"github.com/0install/0install-dotnet-sub004/model"
)

// contextMenuTargets are the four registry roots context-menu verbs
// are collected from (spec.md §4.6).
var contextMenuTargets = []struct {
	target model.ContextMenuTarget
	key    string
}{
	{model.TargetFiles, `*\shell`},
	{model.TargetExecutableFiles, `SystemFileAssociations\exefile\shell`},
	{model.TargetDirectories, `Directory\shell`},
	{model.TargetAll, `AllFilesystemObjects\shell`},
}

// collectFileTypes implements spec.md §4.6's "File types" collector:
// for each new progID under HKCR, build a FileType (or UrlProtocol, if
// the URL Protocol marker is present) from its verbs and any
// extensions that point to it. ProgIDs with no verbs are discarded.
func collectFileTypes(d *Diff, mapper *CommandMapper) []model.Capability {
	progIDs := newTopLevelHKCRKeys(d)

	extensionsByProgID := map[string][]string{}
	for _, e := range d.NewEntries {
		if e.Hive != "HKCR" || e.Name != "" || !strings.HasPrefix(e.Key, ".") {
			continue
		}
		if strings.Contains(e.Key[1:], `\`) {
			continue
		}
		extensionsByProgID[e.Value] = append(extensionsByProgID[e.Value], e.Key)
	}

	var caps []model.Capability
	for _, progID := range progIDs {
		verbs := collectVerbs(d, mapper, "HKCR", progID+`\shell`)
		if len(verbs) == 0 {
			continue
		}

		if _, isProtocol := d.valueOf(progID, "URL Protocol"); isProtocol {
			caps = append(caps, &model.UrlProtocol{ID: progID, Verbs: verbs})
			continue
		}

		exts := extensionsByProgID[progID]
		sort.Strings(exts)
		caps = append(caps, &model.FileType{ID: progID, Extensions: exts, Verbs: verbs})
	}
	return caps
}

func newTopLevelHKCRKeys(d *Diff) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range d.NewEntries {
		if e.Hive != "HKCR" {
			continue
		}
		if strings.HasPrefix(e.Key, ".") {
			continue
		}
		top := e.Key
		if idx := strings.Index(top, `\`); idx >= 0 {
			top = top[:idx]
		}
		if top == "" || seen[top] {
			continue
		}
		seen[top] = true
		out = append(out, top)
	}
	sort.Strings(out)
	return out
}

// collectVerbs builds one Verb per new verb name found directly under
// shellKey, resolving its registered command line back to a feed
// command (and any extra arguments) via mapper when possible.
func collectVerbs(d *Diff, mapper *CommandMapper, hive, shellKey string) []model.Verb {
	var verbs []model.Verb
	for _, e := range d.entriesUnder(shellKey) {
		if e.Hive != hive {
			continue
		}
		rel := strings.TrimPrefix(e.Key, shellKey+`\`)
		if rel == e.Key || strings.Contains(rel, `\`) {
			continue
		}

		verb := model.Verb{Name: rel}
		if commandLine, ok := d.valueOf(shellKey+`\`+rel+`\command`, ""); ok && mapper != nil {
			if cmd, args, found := mapper.GetCommand(commandLine); found {
				verb.Command = cmd.Name
				verb.Arg = args
			}
		}
		verbs = append(verbs, verb)
	}
	sort.Slice(verbs, func(i, j int) bool { return verbs[i].Name < verbs[j].Name })
	return verbs
}

// collectContextMenus implements spec.md §4.6's "Context menus"
// collector: a ContextMenu capability named "<target>-<verb>" per new
// verb under each of the four target roots, with its verb's command
// resolved through the CommandMapper.
func collectContextMenus(d *Diff, mapper *CommandMapper) []model.Capability {
	var caps []model.Capability
	for _, target := range contextMenuTargets {
		for _, verb := range collectVerbs(d, mapper, "HKCR", target.key) {
			caps = append(caps, &model.ContextMenu{
				ID:     string(target.target) + "-" + verb.Name,
				Target: target.target,
				Verb:   verb,
			})
		}
	}
	return caps
}

// collectAutoPlay implements spec.md §4.6's "AutoPlay" collector: one
// AutoPlay capability per new handler, carrying its ProgID, Verb,
// Provider and Description, and the events it is associated with.
func collectAutoPlay(d *Diff) []model.Capability {
	const root = `Microsoft\Windows\CurrentVersion\Explorer\AutoplayHandlers\Handlers`

	handlers := map[string]bool{}
	for _, e := range d.NewEntries {
		idx := strings.Index(e.Key, root)
		if idx < 0 {
			continue
		}
		rel := strings.TrimPrefix(e.Key[idx+len(root):], `\`)
		if rel == "" || strings.Contains(rel, `\`) {
			continue
		}
		handlers[rel] = true
	}

	var names []string
	for h := range handlers {
		names = append(names, h)
	}
	sort.Strings(names)

	var caps []model.Capability
	for _, name := range names {
		key := root + `\` + name
		progID, _ := d.valueOf(key, "ProgId")
		verb, _ := d.valueOf(key, "Verb")
		provider, _ := d.valueOf(key, "Provider")
		description, _ := d.valueOf(key, "Description")

		var events []model.AutoPlayEvent
		for _, e := range d.entriesUnder(`Microsoft\Windows\CurrentVersion\Explorer\AutoplayHandlers\EventHandlers`) {
			if e.Value == name {
				event := e.Key[strings.LastIndex(e.Key, `\`)+1:]
				events = append(events, model.AutoPlayEvent(event))
			}
		}

		caps = append(caps, &model.AutoPlay{
			ID:          name,
			ProgID:      progID,
			Verb:        verb,
			Provider:    provider,
			Description: description,
			Events:      events,
		})
	}
	return caps
}

// collectDefaultPrograms implements spec.md §4.6's "Default programs"
// collector: one DefaultProgram per service-client pair, including any
// Install Info commands whose command line begins with the quoted
// installation directory.
func collectDefaultPrograms(d *Diff, installDir string) []model.Capability {
	const root = `SOFTWARE\Clients`

	var caps []model.Capability
	seen := map[string]bool{}
	quotedDir := `"` + installDir + `\`

	var pairs []string
	for _, e := range d.NewEntries {
		if e.Hive != "HKLM" || !strings.HasPrefix(e.Key, root+`\`) {
			continue
		}
		rest := strings.TrimPrefix(e.Key, root+`\`)
		parts := strings.SplitN(rest, `\`, 3)
		if len(parts) < 2 {
			continue
		}
		pairKey := parts[0] + `\` + parts[1]
		if seen[pairKey] {
			continue
		}
		seen[pairKey] = true
		pairs = append(pairs, pairKey)
	}
	sort.Strings(pairs)

	for _, pairKey := range pairs {
		service := pairKey[:strings.Index(pairKey, `\`)]
		dp := &model.DefaultProgram{ID: pairKey, Service: service}

		infoKey := root + `\` + pairKey + `\InstallInfo`
		for _, name := range []string{"ReinstallCommand", "ShowIconsCommand", "HideIconsCommand"} {
			commandLine, ok := d.valueOf(infoKey, name)
			if !ok || !strings.HasPrefix(commandLine, quotedDir) {
				continue
			}
			command, args := splitQuotedCommand(commandLine)
			cl := &model.CommandLine{Command: command, Arguments: strings.Join(args, " ")}
			switch name {
			case "ReinstallCommand":
				dp.Install.Reinstall = cl
			case "ShowIconsCommand":
				dp.Install.ShowIcons = cl
			case "HideIconsCommand":
				dp.Install.HideIcons = cl
			}
		}

		caps = append(caps, dp)
	}

	return caps
}

func splitQuotedCommand(commandLine string) (string, []string) {
	if !strings.HasPrefix(commandLine, `"`) {
		fields := strings.Fields(commandLine)
		if len(fields) == 0 {
			return "", nil
		}
		return fields[0], fields[1:]
	}
	rest := commandLine[1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return commandLine, nil
	}
	command := rest[:end]
	remainder := strings.TrimSpace(rest[end+1:])
	var args []string
	if remainder != "" {
		args = strings.Fields(remainder)
	}
	return command, args
}

// collectAppRegistration implements spec.md §4.6's "App registration"
// collector: when RegisteredApplications carries exactly one new
// entry, build an AppRegistration from its name and capability-key
// path. Per spec.md, an application that registers itself this way
// already advertises its protocol/file associations through the
// FileType/UrlProtocol collectors, so this collector does not
// duplicate them.
func collectAppRegistration(d *Diff) *model.AppRegistration {
	const root = `SOFTWARE\RegisteredApplications`

	var name, capabilityKey string
	count := 0
	for _, e := range d.NewEntries {
		if e.Hive == "HKLM" && e.Key == root {
			name = e.Name
			capabilityKey = e.Value
			count++
		}
	}
	if count != 1 {
		return nil
	}

	return &model.AppRegistration{ID: name, CapabilityKey: capabilityKey}
}
