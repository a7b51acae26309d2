package export

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/recount/internal/discovery"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "out.md")

	if err := Write("# Doc\n\nbody\n", dest, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "# Doc\n\nbody\n" {
		t.Errorf("content = %q", b)
	}
}

func TestWriteLeavesNoTempOnSuccess(t *testing.T) {
	dir := t.TempDir()
	if err := Write("x", filepath.Join(dir, "out.md"), ""); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".recount-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteWithinAllowedBase(t *testing.T) {
	base := t.TempDir()
	if err := Write("ok", filepath.Join(base, "sub", "out.md"), base); err != nil {
		t.Fatalf("Write inside base: %v", err)
	}
}

func TestWriteRejectsEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	cases := []string{
		filepath.Join(outside, "out.md"),
		filepath.Join(base, "..", "escape.md"),
	}
	for _, dest := range cases {
		if err := Write("no", dest, base); err == nil {
			t.Errorf("Write(%s) should have been rejected", dest)
		}
	}
}

func TestWriteRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks not reliable on windows")
	}

	base := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(base, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatal(err)
	}

	if err := Write("no", filepath.Join(link, "out.md"), base); err == nil {
		t.Fatal("symlinked escape not rejected")
	}
}

func TestFileName(t *testing.T) {
	conv := discovery.Conversation{
		Project:   "code/myproj",
		SessionID: "abcdef12-3456-7890",
		Modified:  time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
	}

	got := FileName(conv)
	want := "code-myproj-abcdef12-20240305-093000.md"
	if got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestFileNameEmptyProject(t *testing.T) {
	conv := discovery.Conversation{SessionID: "short", Modified: time.Unix(0, 0).UTC()}
	got := FileName(conv)
	if !strings.HasPrefix(got, "conversation-short-") {
		t.Errorf("FileName = %q", got)
	}
}
