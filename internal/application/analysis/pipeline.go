package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/session-analyzer/internal/audit"
	"github.com/bryanwahyu/session-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/session-analyzer/internal/domain/session"
)

// minAudioChars is the minimum encoded payload size worth sending to the
// model; anything below it is a degenerate recording.
const minAudioChars = 1000

const defaultTimeout = 180 * time.Second

// Request is the immutable input of one pipeline run.
type Request struct {
	AudioBase64     string
	MimeType        string
	DurationMinutes float64
}

// Pipeline orchestrates one analysis: admission gate, structured primary call,
// free-text fallback, normalization. Run never returns an error — every
// terminal condition becomes a Report with StatusError.
type Pipeline struct {
	Client         ai.Client
	Gate           *Gate
	Timeout        time.Duration
	SystemPrompt   string
	FallbackPrompt string
}

// Run drives the full invocation state machine, logging every transition
// through the bound audit session.
func (p *Pipeline) Run(ctx context.Context, log *audit.Session, req Request) Report {
	start := time.Now()
	log.Info("analysis_started", map[string]any{
		"audio_chars":      len(req.AudioBase64),
		"mime_type":        req.MimeType,
		"duration_minutes": req.DurationMinutes,
	})

	if len(req.AudioBase64) < minAudioChars {
		log.Warn("audio_too_small", map[string]any{"size": len(req.AudioBase64)})
		return tooShortReport()
	}

	messages := []ai.Message{
		ai.SystemMessage(p.SystemPrompt),
		ai.UserMessage(
			ai.TextPart(fmt.Sprintf("Total duration of this session: %.2f minutes.", req.DurationMinutes)),
			ai.AudioPart(req.AudioBase64, req.MimeType),
		),
	}

	primary, err := p.callWithSlot(ctx, log, "llm_structured", messages, p.Client.CompleteStructured)
	if err != nil {
		return p.terminal(log, err)
	}
	if report, ok := FromStructured(primary); ok {
		return p.finish(log, report, start)
	}
	log.Warn("llm_structured_invalid", nil)

	// One fallback only: same messages plus an explicit JSON-only instruction,
	// gated by the same limiter as the primary call.
	fallbackMessages := append(append([]ai.Message{}, messages...), ai.UserMessage(ai.TextPart(p.FallbackPrompt)))
	fallback, err := p.callWithSlot(ctx, log, "llm_fallback", fallbackMessages, p.Client.CompleteText)
	if err != nil {
		return p.terminal(log, err)
	}
	if report, ok := FromFreeText(fallback); ok {
		return p.finish(log, report, start)
	}

	log.Error("llm_output_missing_fields", nil)
	return noOutputReport()
}

// callWithSlot acquires one gate slot, runs the call under the hard timeout,
// and releases the slot on every exit path before the result is evaluated.
func (p *Pipeline) callWithSlot(
	ctx context.Context,
	log *audit.Session,
	event string,
	messages []ai.Message,
	call func(context.Context, []ai.Message) (ai.Response, error),
) (ai.Response, error) {
	log.Debug("llm_waiting_slot", map[string]any{"concurrent_limit": p.Gate.Limit()})
	if err := p.Gate.Acquire(ctx); err != nil {
		return ai.Absent(), err
	}
	defer p.Gate.Release()

	log.Debug(event+"_slot_acquired", map[string]any{"available_slots": p.Gate.Available()})
	log.Info("llm_full_prompt", map[string]any{"messages": toAnySlice(messages)})

	callCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	invokeStart := time.Now()
	resp, err := call(callCtx, messages)
	if err != nil {
		return ai.Absent(), err
	}
	log.Debug(event+"_raw_output", map[string]any{"raw_output": resp})
	log.Debug(event+"_duration", map[string]any{"seconds": time.Since(invokeStart).Seconds()})
	return resp, nil
}

func (p *Pipeline) finish(log *audit.Session, report Report, start time.Time) Report {
	log.Info("llm_normalized_output", map[string]any{"report": map[string]any{
		fieldTitle:  report.Title,
		fieldReport: report.Body,
		"status":    string(report.Status),
	}})
	log.Info("analysis_completed", map[string]any{"duration": time.Since(start).Seconds()})
	return report
}

// terminal maps a call failure to its fixed error report. A timed-out primary
// call is fully terminal: no fallback is attempted after it.
func (p *Pipeline) terminal(log *audit.Session, err error) Report {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Error("llm_timeout", map[string]any{"timeout": p.timeout().String()})
		return timeoutReport()
	}
	log.Error("llm_exception", map[string]any{"error": err.Error()})
	return failureReport(err)
}

func (p *Pipeline) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultTimeout
}

func toAnySlice(messages []ai.Message) []any {
	out := make([]any, len(messages))
	for i, m := range messages {
		out[i] = m
	}
	return out
}

func tooShortReport() Report {
	return Report{
		Title:  "Session too short",
		Body:   "Error: the audio recording is too short to analyze.",
		Status: session.StatusError,
	}
}

func noOutputReport() Report {
	return Report{
		Title:  "Analysis failed",
		Body:   "The model did not return a valid report.",
		Status: session.StatusError,
	}
}

func timeoutReport() Report {
	return Report{
		Title:  "Analysis failed (timeout)",
		Body:   "Audio analysis took too long and did not complete.",
		Status: session.StatusError,
	}
}

func failureReport(err error) Report {
	return Report{
		Title:  "Analysis failed",
		Body:   fmt.Sprintf("Audio analysis error: %v", err),
		Status: session.StatusError,
	}
}
