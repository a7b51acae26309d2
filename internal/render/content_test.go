package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/lazypower/recount/internal/transcript"
)

func TestFormatPartsEmpty(t *testing.T) {
	r := New(Options{})
	if out := r.FormatParts(nil); out != "" {
		t.Errorf("FormatParts(nil) = %q, want empty", out)
	}
	if out := r.FormatParts([]transcript.ContentPart{}); out != "" {
		t.Errorf("FormatParts(empty) = %q, want empty", out)
	}
}

func TestFormatPartsPreservesOrder(t *testing.T) {
	r := New(Options{})
	parts := []transcript.ContentPart{
		{Kind: transcript.KindText, Text: "first."},
		{Kind: transcript.KindText, Text: "second."},
	}
	out := r.FormatParts(parts)
	if strings.Index(out, "first.") > strings.Index(out, "second.") {
		t.Errorf("order not preserved: %q", out)
	}
}

func TestFormatPartUnknownKind(t *testing.T) {
	r := New(Options{})
	if out := r.FormatPart(transcript.ContentPart{Kind: transcript.KindUnknown}); out != "" {
		t.Errorf("unknown part rendered %q, want empty", out)
	}
}

func TestFormatToolUse(t *testing.T) {
	r := New(Options{})
	out := r.FormatPart(transcript.ContentPart{
		Kind:      transcript.KindToolUse,
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": "ls"},
	})

	if !strings.Contains(out, "**Tool Use:** `Bash`") {
		t.Errorf("missing tool name: %q", out)
	}
	if !strings.Contains(out, "```json") {
		t.Errorf("missing json fence: %q", out)
	}
	if !strings.Contains(out, `"command": "ls"`) {
		t.Errorf("missing input: %q", out)
	}
}

func TestFormatToolUseEmptyInput(t *testing.T) {
	r := New(Options{})
	out := r.FormatPart(transcript.ContentPart{
		Kind:     transcript.KindToolUse,
		ToolName: "Read",
	})

	if !strings.Contains(out, "(empty)") {
		t.Errorf("missing placeholder: %q", out)
	}
	if strings.Contains(out, "{}") {
		t.Errorf("empty input serialized as JSON: %q", out)
	}
}

func TestFormatToolResultString(t *testing.T) {
	r := New(Options{})
	out := r.FormatPart(transcript.ContentPart{
		Kind:   transcript.KindToolResult,
		Result: json.RawMessage(`"all done."`),
	})

	if !strings.Contains(out, "**Tool Result:**") {
		t.Errorf("missing label: %q", out)
	}
	if !strings.Contains(out, "```\nall done.\n```") {
		t.Errorf("missing fenced body: %q", out)
	}
}

func TestFormatToolResultEmpty(t *testing.T) {
	r := New(Options{})
	for _, raw := range []string{`""`, `"  \n "`, `null`} {
		out := r.FormatPart(transcript.ContentPart{
			Kind:   transcript.KindToolResult,
			Result: json.RawMessage(raw),
		})
		if !strings.Contains(out, "(empty result)") {
			t.Errorf("Result %s: missing placeholder: %q", raw, out)
		}
		if strings.Contains(out, "```") {
			t.Errorf("Result %s: empty result should not be fenced: %q", raw, out)
		}
	}
}

func TestFormatToolResultStructured(t *testing.T) {
	r := New(Options{})
	out := r.FormatPart(transcript.ContentPart{
		Kind:   transcript.KindToolResult,
		Result: json.RawMessage(`{"ok":true,"count":3}`),
	})

	if !strings.Contains(out, `"ok": true`) {
		t.Errorf("structured result not pretty-printed: %q", out)
	}
}

func TestStripLineNumbers(t *testing.T) {
	in := "  1→package main\n  2→\n 10\tfunc main() {}"
	out := stripLineNumbers(in)
	want := "package main\n\nfunc main() {}"
	if out != want {
		t.Errorf("stripLineNumbers = %q, want %q", out, want)
	}
}

func TestNormalizeIndentCommonPrefix(t *testing.T) {
	in := "    alpha.\n    beta.\n      gamma."
	out := normalizeIndent(in)
	want := "alpha.\nbeta.\n  gamma."
	if out != want {
		t.Errorf("normalizeIndent = %q, want %q", out, want)
	}
}

func TestNormalizeIndentStatusTable(t *testing.T) {
	in := " M internal/render/scrub.go\n?? notes.txt"
	out := normalizeIndent(in)
	want := " M internal/render/scrub.go\n ?? notes.txt"
	if out != want {
		t.Errorf("normalizeIndent = %q, want %q", out, want)
	}
}

func TestNormalizeIndentDiffStat(t *testing.T) {
	in := " parser.go | 12 ++--\n2 files changed, 8 insertions(+), 4 deletions(-)"
	out := normalizeIndent(in)
	if !strings.HasPrefix(out, " parser.go") {
		t.Errorf("indented row changed: %q", out)
	}
	if !strings.Contains(out, "\n 2 files changed") {
		t.Errorf("summary row not padded: %q", out)
	}
}

func TestTruncateLongResult(t *testing.T) {
	r := New(Options{MaxResultLength: 3000})
	body := strings.Repeat("x", 4000)
	out := r.FormatPart(transcript.ContentPart{
		Kind:   transcript.KindToolResult,
		Result: json.RawMessage(`"` + body + `"`),
	})

	if got := strings.Count(out, truncationMarker); got != 1 {
		t.Fatalf("marker count = %d, want 1: %q", got, out[len(out)-80:])
	}

	run := 0
	for _, c := range out {
		if c == 'x' {
			run++
		}
	}
	if run > 3000 {
		t.Errorf("visible run = %d, want <= 3000", run)
	}
}

func TestTruncatePrefersNewline(t *testing.T) {
	r := New(Options{MaxResultLength: 200})
	s := strings.Repeat("a", 150) + "\n" + strings.Repeat("b", 150)
	out := r.truncate(s)

	if !strings.HasSuffix(out, truncationMarker) {
		t.Fatalf("missing marker: %q", out)
	}
	body := strings.TrimSuffix(out, "\n"+truncationMarker)
	if strings.ContainsRune(body, 'b') {
		t.Errorf("cut did not back off to newline: %q", body)
	}
	if len(body) > 200+99 {
		t.Errorf("body length = %d, exceeds limit+99", len(body))
	}
}

func TestTruncateExactCutWithoutNewline(t *testing.T) {
	r := New(Options{MaxResultLength: 200})
	s := strings.Repeat("y", 500)
	out := r.truncate(s)

	body := strings.TrimSuffix(out, "\n"+truncationMarker)
	if len(body) != 200 {
		t.Errorf("body length = %d, want exact cut at 200", len(body))
	}
}

func TestTruncateIdempotent(t *testing.T) {
	r := New(Options{MaxResultLength: 10})
	s := "short\n" + truncationMarker
	if out := r.truncate(s); out != s {
		t.Errorf("truncate changed marked text: %q", out)
	}
}

func TestTruncateUnderLimit(t *testing.T) {
	r := New(Options{MaxResultLength: 100})
	if out := r.truncate("fits fine."); out != "fits fine." {
		t.Errorf("truncate = %q", out)
	}
}

func TestRepairStructureClosesOddFence(t *testing.T) {
	in := "```go\nfunc main() {\n" + truncationMarker
	out := repairStructure(in)

	closeIdx := strings.LastIndex(out, "```")
	markerIdx := strings.LastIndex(out, truncationMarker)
	if closeIdx == -1 || markerIdx < closeIdx {
		t.Errorf("fence not closed before marker: %q", out)
	}
	if strings.Count(out, "```")%2 != 0 {
		t.Errorf("fences still unbalanced: %q", out)
	}
}

func TestRepairStructureUnterminatedFenceNoMarker(t *testing.T) {
	out := repairStructure("```\npartial output")
	if strings.Count(out, "```")%2 != 0 {
		t.Errorf("fence not closed: %q", out)
	}
	if !strings.HasSuffix(out, truncationMarker) {
		t.Errorf("missing marker after close: %q", out)
	}
}

func TestRepairStructureBalancedComplete(t *testing.T) {
	in := "everything finished normally."
	if out := repairStructure(in); out != in {
		t.Errorf("complete text changed: %q", out)
	}
}

func TestLooksCutOff(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"items: one, two,", true},
		{"call(", true},
		{"open {", true},
		{"a + b +", true},
		{"trailing word", true},
		{"finished.", false},
		{"done!", false},
		{"closed)", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := looksCutOff(tc.in); got != tc.want {
			t.Errorf("looksCutOff(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatTextPipelineOrder(t *testing.T) {
	r := New(Options{})
	in := "# Report\n\n<system-reminder>drop</system-reminder>\n\n```\n\n```"
	out := r.FormatText(in)

	if !strings.Contains(out, "#### Report") {
		t.Errorf("heading not shifted: %q", out)
	}
	if strings.Contains(out, "drop") {
		t.Errorf("reminder survived: %q", out)
	}
	if !strings.Contains(out, "(empty code block)") {
		t.Errorf("empty fence not repaired: %q", out)
	}
}
