package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lazypower/recount/internal/transcript"
)

// Conversation is one discovered JSONL conversation log.
type Conversation struct {
	Path      string
	Project   string // decoded from the encoded project directory name
	SessionID string // filename stem, a UUID for Claude Code sessions
	Modified  time.Time
	Size      int64
}

// DefaultProjectsDir returns the Claude Code projects root: ~/.claude/projects
func DefaultProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// Scan walks the projects directory and returns every conversation log,
// newest first. Unreadable project directories are skipped, not fatal.
func Scan(projectsDir string) ([]Conversation, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	var convs []Conversation
	for _, entry := range entries {
		if !isDirOrSymlink(entry, projectsDir) {
			continue
		}

		projDir := filepath.Join(projectsDir, entry.Name())
		files, err := os.ReadDir(projDir)
		if err != nil {
			continue
		}

		project := ProjectName(entry.Name())
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			convs = append(convs, Conversation{
				Path:      filepath.Join(projDir, f.Name()),
				Project:   project,
				SessionID: strings.TrimSuffix(f.Name(), ".jsonl"),
				Modified:  info.ModTime(),
				Size:      info.Size(),
			})
		}
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].Modified.After(convs[j].Modified)
	})
	return convs, nil
}

// isDirOrSymlink reports whether the entry is a directory or a symlink that
// resolves to one.
func isDirOrSymlink(entry os.DirEntry, parentDir string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parentDir, entry.Name()))
	return err == nil && fi.IsDir()
}

// ProjectName decodes an encoded project directory name. Claude Code encodes
// the working directory by replacing path separators with dashes
// ("-Users-alice-code-myproj"), which is lossy: a dash in a real directory
// name is indistinguishable from a separator. We strip the home-directory
// prefix for any username ("<root>-<user>-") and keep the rest verbatim.
func ProjectName(dirName string) string {
	name := strings.TrimPrefix(dirName, "-")
	segs := strings.Split(name, "-")

	if len(segs) > 2 {
		switch segs[0] {
		case "Users", "home":
			rest := strings.Join(segs[2:], "-")
			if rest != "" {
				return rest
			}
		}
	}
	if name != "" {
		return name
	}
	return dirName
}

// Preview returns the first user message of a conversation, flattened to one
// line and capped at maxLen characters, for menu and listing display.
func Preview(path string, maxLen int) string {
	turns, _, err := transcript.ReadFile(path)
	if err != nil {
		return ""
	}

	for i := range turns {
		if turns[i].RoleName() != "user" {
			continue
		}
		text, parts := transcript.DecodeBody(turns[i].Body())
		if text == "" {
			for _, p := range parts {
				if p.Kind == transcript.KindText && strings.TrimSpace(p.Text) != "" {
					text = p.Text
					break
				}
			}
		}
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		if maxLen > 0 && len(text) > maxLen {
			text = text[:maxLen] + "…"
		}
		return text
	}
	return ""
}

// FindBySessionID locates a conversation by its session ID or a unique
// prefix of it.
func FindBySessionID(convs []Conversation, id string) (Conversation, bool) {
	for _, c := range convs {
		if c.SessionID == id {
			return c, true
		}
	}
	var match Conversation
	found := 0
	for _, c := range convs {
		if strings.HasPrefix(c.SessionID, id) {
			match = c
			found++
		}
	}
	if found == 1 {
		return match, true
	}
	return Conversation{}, false
}
