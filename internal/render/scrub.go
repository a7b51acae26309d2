package render

import (
	"fmt"
	"regexp"
	"strings"
)

// Out-of-band tags that Claude Code embeds in transcript text. Hook and
// reminder tags are removed wholesale; command tags are rewritten into
// readable callouts.
var (
	submitHookRe     = regexp.MustCompile(`<user-prompt-submit-hook(?:\s[^>]*)?/>|<user-prompt-submit-hook(?:\s[^>]*)?>[\s\S]*?</user-prompt-submit-hook>`)
	systemReminderRe = regexp.MustCompile(`<system-reminder(?:\s[^>]*)?/>|<system-reminder(?:\s[^>]*)?>[\s\S]*?</system-reminder>`)

	commandNameRe    = regexp.MustCompile(`<command-name>([\s\S]*?)</command-name>`)
	commandMessageRe = regexp.MustCompile(`<command-message>([\s\S]*?)</command-message>`)
	commandArgsRe    = regexp.MustCompile(`<command-args>([\s\S]*?)</command-args>`)
	commandStdoutRe  = regexp.MustCompile(`<local-command-stdout>([\s\S]*?)</local-command-stdout>`)
	commandStderrRe  = regexp.MustCompile(`<local-command-stderr>([\s\S]*?)</local-command-stderr>`)

	// Runs of 3+ newlines collapse to a single blank line so tag removal
	// never leaves more than one blank-line gap behind.
	blankRunRe = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// Scrub strips embedded annotation tags from raw transcript text, rewrites
// command tags into labeled callouts, and normalizes the whitespace left
// behind. Text already free of these tags passes through unchanged modulo
// trimming and blank-line collapsing, so the pass is safe to re-run.
func Scrub(raw string) string {
	s := submitHookRe.ReplaceAllString(raw, "")
	s = systemReminderRe.ReplaceAllString(s, "")

	s = replaceTag(s, commandNameRe, func(inner string) string {
		return "**Command:** `" + strings.TrimSpace(inner) + "`"
	})
	s = replaceTag(s, commandMessageRe, func(inner string) string {
		return "**Status:** " + strings.TrimSpace(inner)
	})
	s = replaceTag(s, commandArgsRe, func(inner string) string {
		args := strings.TrimSpace(inner)
		if args == "" {
			return ""
		}
		return "**Arguments:** `" + args + "`"
	})
	s = replaceTag(s, commandStdoutRe, func(inner string) string {
		return outputCallout("Output", inner)
	})
	s = replaceTag(s, commandStderrRe, func(inner string) string {
		return outputCallout("Error Output", inner)
	})

	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// replaceTag rewrites every match of a single-capture tag pattern using fn.
func replaceTag(s string, re *regexp.Regexp, fn func(inner string) string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return fn(re.FindStringSubmatch(m)[1])
	})
}

// outputCallout wraps a command's captured output in a labeled fence. Long
// bodies show a 5-line head with an elision count; blank bodies get an
// explicit marker instead of an empty fence.
func outputCallout(label, body string) string {
	if strings.TrimSpace(body) == "" {
		return "**" + label + ":** (empty)"
	}

	lines := strings.Split(strings.Trim(body, "\n"), "\n")
	if len(lines) > 10 {
		omitted := len(lines) - 5
		lines = append(lines[:5], fmt.Sprintf("... (%d more lines)", omitted))
	}

	return "**" + label + ":**\n```\n" + strings.Join(lines, "\n") + "\n```"
}
