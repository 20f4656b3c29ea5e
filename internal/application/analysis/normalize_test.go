package analysis

import (
	"testing"

	"github.com/bryanwahyu/session-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/session-analyzer/internal/domain/session"
)

func TestFromStructuredValid(t *testing.T) {
	resp := ai.Structured(map[string]any{
		"title":          "Weekly sync",
		"session_report": "## Session summary\nAll good.",
	})
	report, ok := FromStructured(resp)
	if !ok {
		t.Fatal("expected valid report")
	}
	if report.Title != "Weekly sync" || report.Status != session.StatusOK {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestFromStructuredRejectsMissingFields(t *testing.T) {
	cases := map[string]map[string]any{
		"no title":         {"session_report": "body"},
		"no report":        {"title": "t"},
		"blank title":      {"title": "   ", "session_report": "body"},
		"blank report":     {"title": "t", "session_report": "\n\t"},
		"wrong field type": {"title": 5, "session_report": "body"},
		"empty":            {},
	}
	for name, fields := range cases {
		if _, ok := FromStructured(ai.Structured(fields)); ok {
			t.Errorf("%s: should be rejected", name)
		}
	}
}

func TestFromStructuredRejectsOtherKinds(t *testing.T) {
	if _, ok := FromStructured(ai.Text(`{"title":"t","session_report":"b"}`)); ok {
		t.Fatal("text response must not pass the structured path")
	}
	if _, ok := FromStructured(ai.Absent()); ok {
		t.Fatal("absent response must not pass")
	}
}

func TestFromFreeTextPlainJSON(t *testing.T) {
	report, ok := FromFreeText(ai.Text(`{"title": "Standup", "session_report": "notes"}`))
	if !ok || report.Title != "Standup" {
		t.Fatalf("plain JSON not extracted: %+v ok=%v", report, ok)
	}
}

func TestFromFreeTextFencedJSON(t *testing.T) {
	text := "```json\n{\"title\": \"Retro\", \"session_report\": \"## Session summary\\nok\"}\n```"
	report, ok := FromFreeText(ai.Text(text))
	if !ok || report.Title != "Retro" {
		t.Fatalf("fenced JSON not extracted: %+v ok=%v", report, ok)
	}
}

func TestFromFreeTextFenceWithoutLanguageTag(t *testing.T) {
	text := "```\n{\"title\": \"Retro\", \"session_report\": \"b\"}\n```"
	if _, ok := FromFreeText(ai.Text(text)); !ok {
		t.Fatal("bare fence not handled")
	}
}

func TestFromFreeTextBraceScan(t *testing.T) {
	text := `Sure! Here is your report: {"title": "Planning", "session_report": "minutes"} Hope this helps.`
	report, ok := FromFreeText(ai.Text(text))
	if !ok || report.Title != "Planning" {
		t.Fatalf("embedded object not extracted: %+v ok=%v", report, ok)
	}
}

func TestFromFreeTextAcceptsStructuredKind(t *testing.T) {
	resp := ai.Structured(map[string]any{"title": "t", "session_report": "b"})
	if _, ok := FromFreeText(resp); !ok {
		t.Fatal("structured kind should be accepted directly")
	}
}

func TestFromFreeTextRejectsGarbage(t *testing.T) {
	cases := map[string]ai.Response{
		"absent":          ai.Absent(),
		"empty text":      ai.Text(""),
		"whitespace":      ai.Text("   \n\t"),
		"no json at all":  ai.Text("I could not process the audio, sorry."),
		"broken json":     ai.Text(`{"title": "t", "session_report": `),
		"missing fields":  ai.Text(`{"summary": "something else"}`),
		"non-object json": ai.Text(`["title", "session_report"]`),
	}
	for name, resp := range cases {
		if _, ok := FromFreeText(resp); ok {
			t.Errorf("%s: should be rejected", name)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := stripCodeFence("no fence here"); got != "no fence here" {
		t.Fatalf("unfenced text modified: %q", got)
	}
	if got := stripCodeFence("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Fatalf("fence not stripped: %q", got)
	}
	if got := stripCodeFence("```JSON\n{}\n```"); got != "{}" {
		t.Fatalf("language tag should be case-insensitive: %q", got)
	}
}
