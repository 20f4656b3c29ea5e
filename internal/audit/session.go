package audit

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"
)

// Session binds a session identifier to the log sink. Begin emits a
// session_start event; End always emits session_end, so the pair brackets
// every exit path when End is deferred.
type Session struct {
	logger *slog.Logger
	id     string
}

// Begin opens a session-scoped audit context.
func Begin(logger *slog.Logger, sessionID string) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{logger: logger, id: sessionID}
	s.log(slog.LevelInfo, "session_start", nil)
	return s
}

// End closes the context. Safe to defer immediately after Begin.
func (s *Session) End() {
	s.log(slog.LevelInfo, "session_end", nil)
}

// ID returns the bound session identifier.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Event emits a named audit event with sanitized fields.
func (s *Session) Event(name string, level slog.Level, fields map[string]any) {
	s.log(level, name, fields)
}

func (s *Session) Debug(name string, fields map[string]any) { s.log(slog.LevelDebug, name, fields) }
func (s *Session) Info(name string, fields map[string]any)  { s.log(slog.LevelInfo, name, fields) }
func (s *Session) Warn(name string, fields map[string]any)  { s.log(slog.LevelWarn, name, fields) }
func (s *Session) Error(name string, fields map[string]any) { s.log(slog.LevelError, name, fields) }

// log builds the record with the caller's program counter so source
// attribution points at the call site rather than this helper.
func (s *Session) log(level slog.Level, event string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	h := s.logger.Handler()
	ctx := context.Background()
	if !h.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	// skip runtime.Callers, log, and the exported wrapper
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, event, pcs[0])
	r.AddAttrs(slog.String("session_id", s.id))

	safe := Fields(fields)
	keys := make([]string, 0, len(safe))
	for k := range safe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.AddAttrs(slog.Any(k, safe[k]))
	}
	_ = h.Handle(ctx, r)
}
