package analysis

import (
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/session-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/session-analyzer/internal/domain/session"
)

// Report field names expected from the model.
const (
	fieldTitle  = "title"
	fieldReport = "session_report"
)

// Report is the only value the pipeline ever hands back to a caller — never a
// raw model response.
type Report struct {
	Title  string         `json:"title"`
	Body   string         `json:"session_report"`
	Status session.Status `json:"status"`
}

// FromStructured validates a structured model response. A false return is a
// signal to try the fallback call, not an error.
func FromStructured(resp ai.Response) (Report, bool) {
	if resp.Kind != ai.KindStructured {
		return Report{}, false
	}
	return reportFromFields(resp.Fields)
}

// FromFreeText extracts a report from a free-text response. The model is asked
// for JSON but may wrap it in markdown fencing or explanatory prose, so the
// text is tried as-is, then with its code fence stripped, then via a brace
// scan for a single embedded JSON object.
func FromFreeText(resp ai.Response) (Report, bool) {
	switch resp.Kind {
	case ai.KindStructured:
		return reportFromFields(resp.Fields)
	case ai.KindText:
	default:
		return Report{}, false
	}

	text := stripCodeFence(strings.TrimSpace(resp.Text))
	if text == "" {
		return Report{}, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return Report{}, false
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
			return Report{}, false
		}
	}
	return reportFromFields(fields)
}

func reportFromFields(fields map[string]any) (Report, bool) {
	title, _ := fields[fieldTitle].(string)
	body, _ := fields[fieldReport].(string)
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return Report{}, false
	}
	return Report{Title: title, Body: body, Status: session.StatusOK}, true
}

// stripCodeFence removes a surrounding ``` block and a leading "json"
// language tag, leaving non-fenced text untouched.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimLeft(text[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
