package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"

	"github.com/0install/0install-dotnet-sub004/capture"
	"github.com/0install/0install-dotnet-sub004/config"
	"github.com/0install/0install-dotnet-sub004/localfeed"
	"github.com/0install/0install-dotnet-sub004/model"
	"github.com/0install/0install-dotnet-sub004/solver"
	"github.com/0install/0install-dotnet-sub004/trust"
)

// Version identifies the version of 0install. This can be modified by
// CI during the release process.
var Version = "dev"

const defaultHelp = `0install solves, trusts and captures application feeds

Usage:

  0install <command> [options]

The commands are:

  select       solve a set of requirements against local feeds
  trust        list, add or remove trusted signing keys
  capture      snapshot, diff and finish an application capture session
  version      show 0install version
`

var locations config.Locations

func run(args []string) (int, error) {
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}

	switch arg {
	case "", "help", "--help", "-h":
		fmt.Print(defaultHelp)
		return 2, nil
	case "version", "--version":
		fmt.Printf("0install version: %s\n", Version)
		return 0, nil
	case "select":
		return runSelect(args[1:])
	case "trust":
		return runTrust(args[1:])
	case "capture":
		return runCapture(args[1:])
	default:
		fmt.Printf("0install %s: unknown command\n", arg)
		return 2, nil
	}
}

func main() {
	exitCode, err := run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	}
	os.Exit(exitCode)
}

// --- select ------------------------------------------------------------

func runSelect(args []string) (int, error) {
	flagSet := pflag.NewFlagSet("select", pflag.ContinueOnError)
	feedsDir := flagSet.String("feeds", "", "directory of local *.json feed files")
	command := flagSet.String("command", model.CommandRun, "command to select")
	if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
		return 0, nil
	} else if err != nil {
		return 2, err
	}
	if flagSet.NArg() < 1 {
		fmt.Println("0install select: interface URI not provided")
		return 2, nil
	}
	if *feedsDir == "" {
		fmt.Println("0install select: --feeds is required")
		return 2, nil
	}
	interfaceUri := flagSet.Arg(0)

	loader := localfeed.Directory{Path: *feedsDir}
	provider := newProvider(loader)

	s := &solver.BacktrackingSolver{Provider: provider}
	selections, err := s.Solve(model.Requirements{InterfaceUri: interfaceUri, Command: *command})
	if err != nil {
		return 1, err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(selections); err != nil {
		return 1, err
	}
	return 0, nil
}

// --- trust ---------------------------------------------------------------

func runTrust(args []string) (int, error) {
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}

	paths, err := locations.TrustDBPaths()
	if err != nil {
		return 1, err
	}

	switch arg {
	case "list":
		db, err := trust.LoadMerged(paths)
		if err != nil {
			return 1, err
		}
		for _, k := range db.Keys() {
			fmt.Printf("%s\n", k.Fingerprint)
			for _, d := range k.Domains() {
				fmt.Printf("  %s\n", d)
			}
		}
		return 0, nil

	case "add":
		if len(args) < 4 {
			fmt.Println("0install trust add: usage: 0install trust add <fingerprint> <domain>")
			return 2, nil
		}
		fingerprint, domain := args[2], args[3]
		if err := trust.ValidateFingerprint(fingerprint); err != nil {
			return 1, err
		}
		db, err := trust.Load(paths[0])
		if err != nil {
			return 1, err
		}
		db.Trust(fingerprint, domain)
		if err := db.Save(paths[0]); err != nil {
			return 1, err
		}
		fmt.Printf("trusted %s for %s\n", fingerprint, domain)
		return 0, nil

	case "remove":
		if len(args) < 3 {
			fmt.Println("0install trust remove: usage: 0install trust remove <fingerprint> [domain]")
			return 2, nil
		}
		fingerprint := args[2]
		db, err := trust.Load(paths[0])
		if err != nil {
			return 1, err
		}
		if len(args) >= 4 {
			db.UntrustDomain(fingerprint, args[3])
		} else {
			db.Untrust(fingerprint)
		}
		if err := db.Save(paths[0]); err != nil {
			return 1, err
		}
		return 0, nil

	default:
		fmt.Println("0install trust: expected list, add or remove")
		return 2, nil
	}
}

// --- capture ---------------------------------------------------------------

func runCapture(args []string) (int, error) {
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}

	stateDir, err := locations.CacheDir()
	if err != nil {
		return 1, err
	}
	snapshotPath := stateDir + "/capture-before.json"

	switch arg {
	case "start":
		snap, err := capture.TakeSnapshot()
		if err != nil {
			return 1, err
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return 1, err
		}
		if err := os.WriteFile(snapshotPath, data, 0o600); err != nil {
			return 1, err
		}
		fmt.Println("capture started; run the installer now, then call '0install capture diff'")
		return 0, nil

	case "diff":
		before, err := readSnapshot(snapshotPath)
		if err != nil {
			return 1, err
		}
		after, err := capture.TakeSnapshot()
		if err != nil {
			return 1, err
		}
		d := capture.ComputeDiff(before, after)
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return 1, err
		}
		fmt.Println(string(data))
		if len(d.NewDirs) != 1 {
			fmt.Fprintln(os.Stderr, color.YellowString("warning:"), "no single new installation directory found; pass one explicitly to 'finish'")
		}
		return 0, nil

	case "finish":
		flagSet := pflag.NewFlagSet("capture finish", pflag.ContinueOnError)
		installDir := flagSet.String("install-dir", "", "the detected installation directory")
		feedURI := flagSet.String("feed-uri", "", "the interface URI this capture publishes")
		archiveURL := flagSet.String("archive-url", "", "the URL the packaged archive will be published at")
		archivePath := flagSet.String("archive-path", "", "the path to the already-packaged archive on disk")
		if err := flagSet.Parse(args[1:]); err == pflag.ErrHelp {
			return 0, nil
		} else if err != nil {
			return 2, err
		}

		before, err := readSnapshot(snapshotPath)
		if err != nil {
			return 1, err
		}
		after, err := capture.TakeSnapshot()
		if err != nil {
			return 1, err
		}
		d := capture.ComputeDiff(before, after)

		dir := *installDir
		if dir == "" && len(d.NewDirs) == 1 {
			dir = d.NewDirs[0]
		}

		var bar *progressbar.ProgressBar
		if total, err := countFiles(dir); err == nil {
			bar = progressbar.Default(int64(total), "hashing installation directory")
		}

		feed, err := capture.FinishWithProgress(d, dir, nil, *feedURI, *archiveURL, *archivePath, func() {
			if bar != nil {
				bar.Add(1)
			}
		})
		if err != nil {
			return 1, err
		}
		data, err := json.MarshalIndent(feed, "", "  ")
		if err != nil {
			return 1, err
		}
		fmt.Println(string(data))
		return 0, nil

	default:
		fmt.Println("0install capture: expected start, diff or finish")
		return 2, nil
	}
}

func countFiles(dir string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			total++
		}
		return nil
	})
	return total, err
}

func readSnapshot(path string) (*capture.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no capture session found; run '0install capture start' first: %w", err)
	}
	var snap capture.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
