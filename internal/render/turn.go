package render

import (
	"strings"
	"time"

	"github.com/lazypower/recount/internal/transcript"
)

// FormatTurn renders one conversation turn as a titled section. An empty
// return means the turn has nothing to show and the caller omits it
// entirely. System and unrecognized roles are never rendered.
func (r *Renderer) FormatTurn(t *transcript.Turn) string {
	switch t.RoleName() {
	case "user":
		return r.formatUserTurn(t)
	case "assistant":
		return r.formatAssistantTurn(t)
	default:
		return ""
	}
}

func (r *Renderer) formatUserTurn(t *transcript.Turn) string {
	body := r.FormatBody(t.Body())
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return r.title("User", t.Timestamp) + "\n\n" + body
}

func (r *Renderer) formatAssistantTurn(t *transcript.Turn) string {
	thinking := formatThinking(t.Thinking)
	body := r.FormatBody(t.Body())

	// Thinking alone still counts as content for an assistant turn.
	if thinking == "" && strings.TrimSpace(body) == "" {
		return ""
	}

	sections := []string{r.title("Assistant", t.Timestamp)}
	if thinking != "" {
		sections = append(sections, thinking)
	}
	if strings.TrimSpace(body) != "" {
		sections = append(sections, body)
	}
	return strings.Join(sections, "\n\n")
}

// formatThinking renders the assistant's aside as a block quote, one quote
// marker per line.
func formatThinking(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("> **Thinking:**\n>")
	for _, ln := range strings.Split(s, "\n") {
		b.WriteString("\n>")
		if ln != "" {
			b.WriteString(" ")
			b.WriteString(ln)
		}
	}
	return b.String()
}

func (r *Renderer) title(role, timestamp string) string {
	if ts := r.formatTimestamp(timestamp); ts != "" {
		return "### " + role + " (" + ts + ")"
	}
	return "### " + role
}

// formatTimestamp renders an ISO-8601 timestamp with the configured layout.
// Unparseable values pass through untouched rather than being dropped.
func (r *Renderer) formatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format(r.opts.DateFormat)
}
