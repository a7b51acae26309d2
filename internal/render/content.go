package render

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lazypower/recount/internal/transcript"
)

// Options bound the renderer's output. Zero values take defaults so a
// Renderer is always usable.
type Options struct {
	// MaxResultLength caps rendered tool results, in characters.
	MaxResultLength int
	// DateFormat is the Go layout used for timestamp suffixes.
	DateFormat string
}

const (
	DefaultMaxResultLength = 3000
	DefaultDateFormat      = "2006-01-02 15:04:05"
)

// Renderer turns conversation turns into Markdown fragments. It is pure and
// stateless: identical input and options produce byte-identical output.
type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	if opts.MaxResultLength <= 0 {
		opts.MaxResultLength = DefaultMaxResultLength
	}
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultDateFormat
	}
	return &Renderer{opts: opts}
}

// FormatText runs the text passes in their fixed order:
// scrub, fold continuation summary, repair empty fences, shift headings.
func (r *Renderer) FormatText(s string) string {
	s = Scrub(s)
	s = FoldContinuation(s)
	s = RepairEmptyFences(s)
	s = ShiftHeadings(s)
	return s
}

// FormatBody renders a turn's raw content, whichever shape it takes: a
// plain string, a part sequence, or nothing.
func (r *Renderer) FormatBody(raw json.RawMessage) string {
	text, parts := transcript.DecodeBody(raw)
	if parts != nil {
		return r.FormatParts(parts)
	}
	if text != "" {
		return r.FormatText(text)
	}
	return ""
}

// FormatParts renders each part independently and joins the non-empty
// fragments with a single newline, preserving input order. An empty
// sequence yields an empty string.
func (r *Renderer) FormatParts(parts []transcript.ContentPart) string {
	var rendered []string
	for _, p := range parts {
		if out := r.FormatPart(p); out != "" {
			rendered = append(rendered, out)
		}
	}
	return strings.Join(rendered, "\n")
}

// FormatPart renders one content part. Unknown kinds render as empty output
// rather than failing. Forward compatibility is policy here, not an error.
func (r *Renderer) FormatPart(p transcript.ContentPart) string {
	switch p.Kind {
	case transcript.KindText:
		return r.FormatText(p.Text)
	case transcript.KindToolUse:
		return r.formatToolUse(p)
	case transcript.KindToolResult:
		return r.formatToolResult(p)
	default:
		return ""
	}
}

func (r *Renderer) formatToolUse(p transcript.ContentPart) string {
	name := p.ToolName
	if name == "" {
		name = "unknown"
	}
	head := "**Tool Use:** `" + name + "`"

	if len(p.ToolInput) == 0 {
		return head + "\n\n(empty)"
	}

	b, err := json.MarshalIndent(p.ToolInput, "", "  ")
	if err != nil {
		return head + "\n\n(error formatting JSON)"
	}
	return head + "\n\n```json\n" + string(b) + "\n```"
}

func (r *Renderer) formatToolResult(p transcript.ContentPart) string {
	text := toolResultText(p.Result)
	if strings.TrimSpace(text) == "" {
		return "**Tool Result:** (empty result)"
	}

	text = normalizeIndent(text)
	text = r.truncate(text)
	text = repairStructure(text)

	return "**Tool Result:**\n\n```\n" + text + "\n```"
}

// toolResultText stringifies a tool result. String content is scrubbed and
// stripped of viewer line-number prefixes; anything structured becomes
// pretty-printed JSON.
func toolResultText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return stripLineNumbers(Scrub(s))
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "(error formatting JSON)"
	}
	return string(b)
}

// lineNumberRe matches the "<spaces>N<arrow-or-tab>" prefixes that file
// viewers prepend to each line, a common paste artifact in tool results.
var lineNumberRe = regexp.MustCompile(`(?m)^[ \t]*\d+(?:→|\t)`)

func stripLineNumbers(s string) string {
	return lineNumberRe.ReplaceAllString(s, "")
}

var (
	// " M path" / "?? path" version-control status table rows. At least
	// one of the two status columns must be a real status letter, or plain
	// indented prose would match.
	vcsStatusRe = regexp.MustCompile(`^(?:[MTADRCU?!][ MTADRCU?!]| [MTADRCU?!]) \S`)
	// " path | 12 +++--" and the "3 files changed" footer, diff-stat rows.
	diffStatRe  = regexp.MustCompile(`^[ \t]*\S.*\|[ \t]*\d+[ \t]*[+-]*[ \t]*$`)
	diffTotalRe = regexp.MustCompile(`^[ \t]*\d+ files? changed`)
)

// normalizeIndent strips the leading whitespace shared by all non-blank
// lines. Status and diff-stat tables are the exception: their alignment is
// the payload, so unindented rows are padded to one leading space instead.
func normalizeIndent(s string) string {
	lines := strings.Split(s, "\n")

	if isAlignedTable(lines) {
		for i, ln := range lines {
			if ln == "" {
				continue
			}
			if ln[0] != ' ' && ln[0] != '\t' {
				lines[i] = " " + ln
			}
		}
		return strings.Join(lines, "\n")
	}

	prefix := commonIndent(lines)
	if prefix == "" {
		return s
	}
	for i, ln := range lines {
		lines[i] = strings.TrimPrefix(ln, prefix)
	}
	return strings.Join(lines, "\n")
}

func isAlignedTable(lines []string) bool {
	for _, ln := range lines {
		if vcsStatusRe.MatchString(ln) || diffStatRe.MatchString(ln) || diffTotalRe.MatchString(ln) {
			return true
		}
	}
	return false
}

// commonIndent returns the longest whitespace prefix shared by every
// non-blank line, or "" when any line starts flush left.
func commonIndent(lines []string) string {
	prefix := ""
	first := true
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		indent := ln[:len(ln)-len(strings.TrimLeft(ln, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			return ""
		}
	}
	if first {
		return ""
	}
	return prefix
}

// truncationMarker is appended wherever output has been cut short.
const truncationMarker = "... (truncated)"

// truncate caps s at the configured maximum, preferring to cut at the last
// newline within 100 characters of the limit to avoid mid-line cuts. A text
// already ending in the marker is left alone, so the pass is idempotent.
func (r *Renderer) truncate(s string) string {
	if strings.HasSuffix(strings.TrimRight(s, " \t\n"), truncationMarker) {
		return s
	}

	max := r.opts.MaxResultLength
	if len(s) <= max {
		return s
	}

	cut := max
	if idx := strings.LastIndexByte(s[:max], '\n'); idx >= max-100 && idx > 0 {
		cut = idx
	}
	return strings.TrimRight(s[:cut], " \t\n") + "\n" + truncationMarker
}

// repairStructure fixes structural imbalance left by truncation. An odd
// number of fence delimiters means an unterminated fence: close it before
// the truncation marker. With balanced fences and no marker, a best-effort
// heuristic marks output that appears cut off mid-statement.
func repairStructure(s string) string {
	trimmed := strings.TrimRight(s, " \t\n")

	if strings.HasSuffix(trimmed, truncationMarker) {
		body := strings.TrimRight(strings.TrimSuffix(trimmed, truncationMarker), " \t\n")
		if strings.Count(body, "```")%2 == 1 {
			return body + "\n```\n" + truncationMarker
		}
		return s
	}

	if strings.Count(trimmed, "```")%2 == 1 {
		return trimmed + "\n```\n" + truncationMarker
	}

	if looksCutOff(trimmed) {
		return trimmed + "\n" + truncationMarker
	}
	return s
}

// looksCutOff reports whether text appears to end mid-statement: a trailing
// comma, open bracket, operator, or a bare word with no closing punctuation.
// Known approximation: legitimate content ending this way will misfire.
func looksCutOff(s string) bool {
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	switch last {
	case ',', '(', '[', '{', '+', '-', '*', '/', '=', '<', '>', '&', '|', '%', ':':
		return true
	}
	return last == '_' ||
		(last >= 'a' && last <= 'z') ||
		(last >= 'A' && last <= 'Z') ||
		(last >= '0' && last <= '9')
}
