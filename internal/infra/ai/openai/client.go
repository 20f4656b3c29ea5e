package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/session-analyzer/internal/domain/ai"
)

const maxTokens = 8192

type Client struct {
	*openai.Client
	Model       string
	Temperature float32
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model, Temperature: 0.2}
}

// CompleteStructured asks for a JSON-constrained completion and decodes it.
// A completion that cannot be decoded is returned as Absent, not as an error:
// the pipeline decides whether to fall back.
func (c *Client) CompleteStructured(ctx context.Context, messages []domai.Message) (domai.Response, error) {
	req := c.buildRequest(messages)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	content, err := c.complete(ctx, req)
	if err != nil {
		return domai.Absent(), err
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return domai.Absent(), nil
	}
	return domai.Structured(fields), nil
}

// CompleteText asks for an unconstrained completion and returns the raw text.
func (c *Client) CompleteText(ctx context.Context, messages []domai.Message) (domai.Response, error) {
	content, err := c.complete(ctx, c.buildRequest(messages))
	if err != nil {
		return domai.Absent(), err
	}
	return domai.Text(content), nil
}

func (c *Client) buildRequest(messages []domai.Message) openai.ChatCompletionRequest {
	model := c.Model
	if model == "" {
		model = "gpt-4o-audio-preview"
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.Temperature,
		Messages:    toChatMessages(messages),
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", domai.ErrQuotaExceeded, apiErr.Message)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", domai.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func toChatMessages(messages []domai.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		// Plain single-text messages use Content; anything carrying an audio
		// attachment needs MultiContent parts.
		if len(m.Parts) == 1 && m.Parts[0].Audio == nil {
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Parts[0].Text})
			continue
		}
		parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.Audio != nil {
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeInputAudio,
					InputAudio: &openai.ChatMessageInputAudio{
						Data:   p.Audio.Base64,
						Format: audioFormat(p.Audio.MimeType),
					},
				})
				continue
			}
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, MultiContent: parts})
	}
	return out
}

func audioFormat(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	default:
		if _, sub, found := strings.Cut(strings.ToLower(mimeType), "/"); found {
			return sub
		}
		return "wav"
	}
}
