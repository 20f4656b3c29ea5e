package ai

// Message roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Audio is a binary audio attachment carried by reference to its base64 form.
type Audio struct {
	Base64   string
	MimeType string
}

// Part is one content part of a message. Exactly one of Text or Audio is set.
type Part struct {
	Text  string
	Audio *Audio
}

// Message is an ordered sequence of role-tagged content parts. Immutable once
// constructed; the fallback attempt reuses the same messages verbatim with one
// extra instruction appended.
type Message struct {
	Role  string
	Parts []Part
}

func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{{Text: text}}}
}

func UserMessage(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func AudioPart(base64Data, mimeType string) Part {
	return Part{Audio: &Audio{Base64: base64Data, MimeType: mimeType}}
}

// AuditContent exposes the message for audit logging as plain content parts.
// The base64 payload stays in: the audit serializer truncates it.
func (m Message) AuditContent() any {
	parts := make([]any, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch {
		case p.Audio != nil:
			parts = append(parts, map[string]any{
				"type":      "file",
				"mime_type": p.Audio.MimeType,
				"data":      p.Audio.Base64,
			})
		default:
			parts = append(parts, map[string]any{
				"type": "text",
				"text": p.Text,
			})
		}
	}
	return map[string]any{"role": m.Role, "parts": parts}
}
