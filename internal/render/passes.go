package render

import (
	"regexp"
	"strings"
)

// continuationSentinel marks a session resumed from an earlier one. Claude
// Code front-loads a long recap behind this phrase; folding keeps the recap
// available without burying the actual conversation.
const continuationSentinel = "This session is being continued from a previous conversation"

var (
	emptyFenceRe = regexp.MustCompile("(?m)^```([^`\n]*)\n[ \t\n]*```[ \t]*$")
	headingRe    = regexp.MustCompile(`(?m)^(#{1,3}) `)
)

// FoldContinuation collapses a continuation-summary preamble into a
// disclosure block: the first line stays visible as the summary, the
// remainder becomes the hidden body. Text without the sentinel prefix is
// returned untouched.
func FoldContinuation(s string) string {
	if !strings.HasPrefix(s, continuationSentinel) {
		return s
	}

	summary, body, _ := strings.Cut(s, "\n")
	body = strings.TrimSpace(body)

	var b strings.Builder
	b.WriteString("<details>\n<summary>")
	b.WriteString(strings.TrimSpace(summary))
	b.WriteString("</summary>\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	b.WriteString("</details>")
	return b.String()
}

// RepairEmptyFences rewrites fenced blocks whose body is empty or
// all-whitespace to carry an explicit placeholder, so a bare pair of fence
// lines never renders as nothing.
func RepairEmptyFences(s string) string {
	return emptyFenceRe.ReplaceAllString(s, "```$1\n(empty code block)\n```")
}

// ShiftHeadings pushes embedded headings (1-3 markers) down by exactly three
// levels so document structure inside a message never collides with the
// export's own top-level headings.
func ShiftHeadings(s string) string {
	return headingRe.ReplaceAllString(s, "###$1 ")
}
