package capture

import (
	"testing"

	"github.com/0install/0install-dotnet-sub004/model"
)

func TestCommandMapperExactQuotedMatch(t *testing.T) {
	mapper := NewCommandMapper(`C:\Program Files\Example`, []model.Command{
		{Name: "run", Path: `bin\example.exe`},
	})

	cmd, args, ok := mapper.GetCommand(`"C:\Program Files\Example\bin\example.exe" --flag value`)
	if !ok {
		t.Fatal("expected match")
	}
	if cmd.Name != "run" {
		t.Errorf("command = %q, want run", cmd.Name)
	}
	if args != "--flag value" {
		t.Errorf("args = %q, want %q", args, "--flag value")
	}
}

func TestCommandMapperBareMatchOnlyWithoutWhitespaceOrArgs(t *testing.T) {
	mapper := NewCommandMapper(`C:\App`, []model.Command{
		{Name: "run", Path: `app.exe`, Arguments: []string{"--server"}},
	})

	_, _, ok := mapper.GetCommand(`C:\App\app.exe extra`)
	if !ok {
		t.Fatal("expected bare-path match when the path has no whitespace")
	}
}

func TestCommandMapperNoBareMatchWhenPathHasWhitespace(t *testing.T) {
	mapper := NewCommandMapper(`C:\Program Files\App`, []model.Command{
		{Name: "run", Path: `app.exe`, Arguments: []string{"--server"}},
	})

	_, _, ok := mapper.GetCommand(`C:\Program Files\App\app.exe extra`)
	if ok {
		t.Fatal("unquoted command line should not match a path containing whitespace")
	}

	_, _, ok = mapper.GetCommand(`"C:\Program Files\App\app.exe" extra`)
	if !ok {
		t.Fatal("quoted command line should always match")
	}
}

func TestCommandMapperLongestPrefixWins(t *testing.T) {
	mapper := NewCommandMapper(`C:\App`, []model.Command{
		{Name: "run", Path: `app.exe`},
		{Name: "update", Path: `tools\update.exe`},
	})

	cmd, _, ok := mapper.GetCommand(`C:\App\tools\update.exe --silent`)
	if !ok || cmd.Name != "update" {
		t.Fatalf("got %+v, %v; want update command", cmd, ok)
	}
}

func TestCommandMapperNoMatch(t *testing.T) {
	mapper := NewCommandMapper(`C:\App`, []model.Command{{Name: "run", Path: `app.exe`}})

	if _, _, ok := mapper.GetCommand(`C:\Other\thing.exe`); ok {
		t.Fatal("expected no match")
	}
}

func TestCommandMapperCaseInsensitive(t *testing.T) {
	mapper := NewCommandMapper(`C:\App`, []model.Command{{Name: "run", Path: `App.EXE`}})

	if _, _, ok := mapper.GetCommand(`c:\app\app.exe`); !ok {
		t.Fatal("expected case-insensitive match")
	}
}
