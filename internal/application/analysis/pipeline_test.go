package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bryanwahyu/session-analyzer/internal/audit"
	"github.com/bryanwahyu/session-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/session-analyzer/internal/domain/session"
	"github.com/bryanwahyu/session-analyzer/internal/logging"
)

type fakeClient struct {
	structured      func(context.Context, []ai.Message) (ai.Response, error)
	text            func(context.Context, []ai.Message) (ai.Response, error)
	structuredCalls int32
	textCalls       int32
}

func (f *fakeClient) CompleteStructured(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
	atomic.AddInt32(&f.structuredCalls, 1)
	return f.structured(ctx, msgs)
}

func (f *fakeClient) CompleteText(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
	atomic.AddInt32(&f.textCalls, 1)
	return f.text(ctx, msgs)
}

func testPipeline(client ai.Client) *Pipeline {
	return &Pipeline{
		Client:         client,
		Gate:           NewGate(2),
		Timeout:        5 * time.Second,
		SystemPrompt:   "system prompt",
		FallbackPrompt: "json only please",
	}
}

func testSession() *audit.Session {
	return audit.Begin(logging.NewNop(), "test-session")
}

func testRequest() Request {
	return Request{
		AudioBase64:     strings.Repeat("a", 2000),
		MimeType:        "audio/webm",
		DurationMinutes: 12.5,
	}
}

func TestRunPrimaryStructuredSuccess(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Structured(map[string]any{"title": "Sync", "session_report": "notes"}), nil
		},
	}
	report := testPipeline(client).Run(context.Background(), testSession(), testRequest())

	if report.Status != session.StatusOK || report.Title != "Sync" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if client.textCalls != 0 {
		t.Fatal("fallback must not run when the primary call succeeds")
	}
}

func TestRunPrimaryMessagesIncludeAudio(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			if len(msgs) != 2 || msgs[0].Role != ai.RoleSystem {
				t.Fatalf("unexpected message layout: %+v", msgs)
			}
			user := msgs[1]
			if len(user.Parts) != 2 || user.Parts[1].Audio == nil {
				t.Fatalf("user message must carry duration text plus audio: %+v", user)
			}
			if !strings.Contains(user.Parts[0].Text, "12.50 minutes") {
				t.Fatalf("duration line missing: %q", user.Parts[0].Text)
			}
			return ai.Structured(map[string]any{"title": "t", "session_report": "b"}), nil
		},
	}
	testPipeline(client).Run(context.Background(), testSession(), testRequest())
}

func TestRunFallbackRecoversInvalidPrimary(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Absent(), nil
		},
		text: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			// fallback reuses the primary messages plus one instruction
			if len(msgs) != 3 {
				t.Fatalf("expected 3 fallback messages, got %d", len(msgs))
			}
			if msgs[2].Parts[0].Text != "json only please" {
				t.Fatalf("fallback instruction missing: %+v", msgs[2])
			}
			return ai.Text("```json\n{\"title\": \"Recovered\", \"session_report\": \"ok\"}\n```"), nil
		},
	}
	report := testPipeline(client).Run(context.Background(), testSession(), testRequest())

	if report.Status != session.StatusOK || report.Title != "Recovered" {
		t.Fatalf("fallback did not recover: %+v", report)
	}
}

func TestRunFallbackUnparseable(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Structured(map[string]any{"something": "else"}), nil
		},
		text: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Text("sorry, no report"), nil
		},
	}
	report := testPipeline(client).Run(context.Background(), testSession(), testRequest())

	if report.Status != session.StatusError {
		t.Fatalf("expected error status, got %+v", report)
	}
	if report.Title != "Analysis failed" {
		t.Fatalf("unexpected title: %q", report.Title)
	}
}

func TestRunPrimaryTimeoutIsTerminal(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Absent(), context.DeadlineExceeded
		},
		text: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Text("should never run"), nil
		},
	}
	report := testPipeline(client).Run(context.Background(), testSession(), testRequest())

	if report.Title != "Analysis failed (timeout)" || report.Status != session.StatusError {
		t.Fatalf("unexpected report: %+v", report)
	}
	if client.textCalls != 0 {
		t.Fatal("no fallback after a timed-out primary call")
	}
}

func TestRunTransportError(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Absent(), errors.New("connection refused")
		},
	}
	report := testPipeline(client).Run(context.Background(), testSession(), testRequest())

	if report.Status != session.StatusError {
		t.Fatalf("expected error status: %+v", report)
	}
	if !strings.Contains(report.Body, "connection refused") {
		t.Fatalf("error detail missing from body: %q", report.Body)
	}
}

func TestRunShortAudioSkipsModel(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			t.Fatal("model must not be called for degenerate audio")
			return ai.Absent(), nil
		},
	}
	req := testRequest()
	req.AudioBase64 = "dG9vc2hvcnQ="

	report := testPipeline(client).Run(context.Background(), testSession(), req)
	if report.Title != "Session too short" || report.Status != session.StatusError {
		t.Fatalf("unexpected report: %+v", report)
	}
	if client.structuredCalls != 0 {
		t.Fatal("model was called")
	}
}

func TestRunReleasesSlotsAcrossCalls(t *testing.T) {
	client := &fakeClient{
		structured: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Absent(), nil
		},
		text: func(ctx context.Context, msgs []ai.Message) (ai.Response, error) {
			return ai.Text(`{"title": "t", "session_report": "b"}`), nil
		},
	}
	p := testPipeline(client)
	p.Run(context.Background(), testSession(), testRequest())

	if p.Gate.Available() != p.Gate.Limit() {
		t.Fatalf("slots leaked: available=%d limit=%d", p.Gate.Available(), p.Gate.Limit())
	}
}
