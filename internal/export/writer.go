package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lazypower/recount/internal/discovery"
)

// Write persists an assembled document to dest as one atomic operation:
// the document lands complete or not at all. When allowedBase is non-empty
// the destination must resolve inside it, symlinks included.
func Write(doc, dest, allowedBase string) error {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	if allowedBase != "" {
		if err := ensureWithin(allowedBase, dest); err != nil {
			return err
		}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".recount-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("finalize export: %w", err)
	}
	return nil
}

// ensureWithin rejects destinations that escape the allowed base directory.
// Both sides are resolved through symlinks before comparison, so a symlinked
// path cannot smuggle a write outside the base.
func ensureWithin(base, dest string) error {
	resolvedBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return fmt.Errorf("resolve allowed base %s: %w", base, err)
	}

	// The destination file usually does not exist yet; resolve its nearest
	// existing ancestor instead.
	resolvedDest, err := resolveExisting(dest)
	if err != nil {
		return fmt.Errorf("resolve destination %s: %w", dest, err)
	}

	rel, err := filepath.Rel(resolvedBase, resolvedDest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("destination %s escapes allowed base %s", dest, base)
	}
	return nil
}

// resolveExisting resolves symlinks for the deepest existing ancestor of
// path and rejoins the not-yet-created remainder.
func resolveExisting(path string) (string, error) {
	remainder := ""
	for cur := path; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, remainder), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		remainder = filepath.Join(filepath.Base(cur), remainder)
		cur = parent
	}
}

// FileName derives a deterministic export filename for a conversation:
// <project>-<session prefix>-<modified time>.md
func FileName(conv discovery.Conversation) string {
	project := sanitize(conv.Project)
	if project == "" {
		project = "conversation"
	}

	session := conv.SessionID
	if len(session) > 8 {
		session = session[:8]
	}

	stamp := conv.Modified.Format("20060102-150405")
	return fmt.Sprintf("%s-%s-%s.md", project, session, stamp)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// DefaultDest joins the configured export directory with the derived
// filename for a conversation.
func DefaultDest(exportDir string, conv discovery.Conversation) string {
	return filepath.Join(exportDir, FileName(conv))
}
