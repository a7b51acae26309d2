package transcript

import "encoding/json"

// Turn represents a single line in a Claude Code JSONL conversation log.
// Records are read-only input: constructed once per line, consumed once by
// the renderer, never mutated.
type Turn struct {
	// Role is the canonical role field. Older transcripts carry the role in
	// a top-level "type" field instead; RoleName resolves the two.
	Role string `json:"role"`
	Type string `json:"type"`

	Timestamp        string `json:"timestamp"`
	SessionID        string `json:"sessionId"`
	WorkingDirectory string `json:"workingDirectory"`
	ToolVersion      string `json:"toolVersion"`

	// Thinking is an assistant-only aside, rendered as a quoted block.
	Thinking string `json:"thinking"`

	// Content is the newer top-level shape; Message the nested legacy shape.
	// At most one of the two is populated per record.
	Content json.RawMessage `json:"content"`
	Message *Message        `json:"message"`
}

// Message is the nested message payload found on legacy-shaped records.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// RoleName returns the turn's role, preferring the top-level role field,
// then the legacy type field, then the nested message role.
func (t *Turn) RoleName() string {
	if t.Role != "" {
		return t.Role
	}
	if t.Type != "" {
		return t.Type
	}
	if t.Message != nil {
		return t.Message.Role
	}
	return ""
}

// Body returns the turn's raw content with a single, fixed fallback order:
// the top-level content field first, then the nested message content.
// Returns nil when neither location is populated.
func (t *Turn) Body() json.RawMessage {
	if len(t.Content) > 0 && !isJSONNull(t.Content) {
		return t.Content
	}
	if t.Message != nil && len(t.Message.Content) > 0 && !isJSONNull(t.Message.Content) {
		return t.Message.Content
	}
	return nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// PartKind discriminates the content part variants.
type PartKind int

const (
	KindUnknown PartKind = iota
	KindText
	KindToolUse
	KindToolResult
)

// ContentPart is one typed fragment of a turn's body. Unrecognized or
// malformed fragments decode to KindUnknown rather than failing, so future
// tag kinds degrade to empty output instead of aborting an export.
type ContentPart struct {
	Kind PartKind

	// KindText
	Text string

	// KindToolUse
	ToolName  string
	ToolInput map[string]any

	// KindToolResult: string or arbitrary structured value.
	Result json.RawMessage
}

// UnmarshalJSON never returns an error for unexpected shapes; tolerance for
// unknown part kinds is a contract, not a best effort.
func (p *ContentPart) UnmarshalJSON(b []byte) error {
	var probe struct {
		Type    string          `json:"type"`
		Text    string          `json:"text"`
		Name    string          `json:"name"`
		Input   map[string]any  `json:"input"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		*p = ContentPart{Kind: KindUnknown}
		return nil
	}

	switch probe.Type {
	case "text":
		*p = ContentPart{Kind: KindText, Text: probe.Text}
	case "tool_use":
		*p = ContentPart{Kind: KindToolUse, ToolName: probe.Name, ToolInput: probe.Input}
	case "tool_result":
		*p = ContentPart{Kind: KindToolResult, Result: probe.Content}
	default:
		*p = ContentPart{Kind: KindUnknown}
	}
	return nil
}

// DecodeBody interprets a raw content value as either a plain string or an
// ordered sequence of content parts. Exactly one return is populated; both
// are zero for nil, null, or undecodable input.
func DecodeBody(raw json.RawMessage) (string, []ContentPart) {
	if len(raw) == 0 || isJSONNull(raw) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		return "", parts
	}

	return "", nil
}
