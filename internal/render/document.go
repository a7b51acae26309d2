package render

import (
	"fmt"
	"strings"

	"github.com/lazypower/recount/internal/transcript"
)

// documentTitle heads every export, even one with no turns.
const documentTitle = "# Claude Code Conversation"

// Assemble builds the complete export document: fixed title, optional
// session metadata from the first turn, a Conversation section, then every
// non-empty turn in input order. The result is a single string ready for
// whole-document persistence.
func (r *Renderer) Assemble(turns []transcript.Turn) string {
	var b strings.Builder
	b.WriteString(documentTitle)
	b.WriteString("\n")

	if len(turns) > 0 {
		if meta := r.sessionInfo(&turns[0]); meta != "" {
			b.WriteString("\n")
			b.WriteString(meta)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n## Conversation\n")

	for i := range turns {
		section := r.FormatTurn(&turns[i])
		if section == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(section)
		b.WriteString("\n")
	}

	return b.String()
}

// sessionInfo emits the metadata block only when the first record carries
// all four fields. Partial metadata gets no block at all.
func (r *Renderer) sessionInfo(t *transcript.Turn) string {
	if t.SessionID == "" || t.Timestamp == "" || t.WorkingDirectory == "" || t.ToolVersion == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Session Information\n\n")
	fmt.Fprintf(&b, "- **Session ID:** `%s`\n", t.SessionID)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.formatTimestamp(t.Timestamp))
	fmt.Fprintf(&b, "- **Working Directory:** `%s`\n", t.WorkingDirectory)
	fmt.Fprintf(&b, "- **Version:** %s", t.ToolVersion)
	return b.String()
}
