package openai

import (
	"testing"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/session-analyzer/internal/domain/ai"
)

func TestBuildRequestTokenParameter(t *testing.T) {
	msgs := []domai.Message{domai.SystemMessage("s")}

	c := &Client{Model: "gpt-4o-audio-preview"}
	req := c.buildRequest(msgs)
	if req.MaxTokens != maxTokens || req.MaxCompletionTokens != 0 {
		t.Fatalf("standard model should use MaxTokens: %+v", req)
	}

	for _, model := range []string{"o1-mini", "o3", "o4-mini", "gpt-5"} {
		c := &Client{Model: model}
		req := c.buildRequest(msgs)
		if req.MaxCompletionTokens != maxTokens || req.MaxTokens != 0 {
			t.Fatalf("%s should use MaxCompletionTokens: %+v", model, req)
		}
	}
}

func TestBuildRequestDefaultsModel(t *testing.T) {
	c := &Client{}
	req := c.buildRequest([]domai.Message{domai.SystemMessage("s")})
	if req.Model != "gpt-4o-audio-preview" {
		t.Fatalf("unexpected default model: %q", req.Model)
	}
}

func TestToChatMessagesPlainText(t *testing.T) {
	out := toChatMessages([]domai.Message{domai.SystemMessage("instructions")})
	if len(out) != 1 {
		t.Fatalf("expected 1 message, got %d", len(out))
	}
	if out[0].Content != "instructions" || out[0].MultiContent != nil {
		t.Fatalf("single text part should use Content: %+v", out[0])
	}
}

func TestToChatMessagesAudioUsesMultiContent(t *testing.T) {
	msg := domai.UserMessage(
		domai.TextPart("duration: 3 minutes"),
		domai.AudioPart("QUJD", "audio/webm"),
	)
	out := toChatMessages([]domai.Message{msg})
	if len(out) != 1 || out[0].Content != "" {
		t.Fatalf("audio message must use MultiContent: %+v", out)
	}
	parts := out[0].MultiContent
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != openai.ChatMessagePartTypeText || parts[0].Text != "duration: 3 minutes" {
		t.Fatalf("text part wrong: %+v", parts[0])
	}
	if parts[1].Type != openai.ChatMessagePartTypeInputAudio {
		t.Fatalf("audio part wrong type: %+v", parts[1])
	}
	if parts[1].InputAudio.Data != "QUJD" || parts[1].InputAudio.Format != "webm" {
		t.Fatalf("audio payload wrong: %+v", parts[1].InputAudio)
	}
}

func TestAudioFormat(t *testing.T) {
	cases := map[string]string{
		"audio/mpeg":  "mp3",
		"audio/mp3":   "mp3",
		"audio/wav":   "wav",
		"audio/x-wav": "wav",
		"audio/webm":  "webm",
		"audio/ogg":   "ogg",
		"AUDIO/MPEG":  "mp3",
		"nonsense":    "wav",
	}
	for mime, want := range cases {
		if got := audioFormat(mime); got != want {
			t.Errorf("audioFormat(%q) = %q, want %q", mime, got, want)
		}
	}
}
