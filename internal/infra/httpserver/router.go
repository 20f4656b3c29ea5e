package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/bryanwahyu/session-analyzer/internal/application/sessions"
	"github.com/bryanwahyu/session-analyzer/internal/audit"
	domai "github.com/bryanwahyu/session-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/session-analyzer/internal/domain/session"
	"github.com/bryanwahyu/session-analyzer/internal/middleware"
)

type Router struct {
	svc    *sessions.Service
	logger *slog.Logger
	model  string
}

// Options carries the optional middleware wiring.
type Options struct {
	APIKeys        map[string]string
	RateCapacity   int
	RateRefill     int
	HealthCheckers map[string]middleware.HealthChecker
}

func NewRouter(svc *sessions.Service, logger *slog.Logger, model string, opts Options) http.Handler {
	r := &Router{svc: svc, logger: logger, model: model}
	mux := chi.NewRouter()

	// CORS allow-all: callers are browser recorders on arbitrary origins.
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	mux.Use(middleware.RequestLogging(logger))
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.RateCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateCapacity, opts.RateRefill))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/analyze_base64", r.wrap(r.handleAnalyze))
	mux.Get("/session_audio/{user_id}/{session_id}", r.wrap(r.handleAudio))
	mux.Get("/sessions/latest", r.wrap(r.handleLatest))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type analyzeRequest struct {
	SessionID       string   `json:"session_id"`
	UserID          string   `json:"user_id"`
	UserName        string   `json:"user_name"`
	MimeType        string   `json:"mime_type"`
	AudioBase64     string   `json:"audio_base64"`
	DurationMinutes *float64 `json:"duration_minutes"`
}

type analyzeResponse struct {
	SessionID      string  `json:"session_id"`
	Model          string  `json:"model"`
	Title          string  `json:"title"`
	Report         string  `json:"session_report"`
	Status         string  `json:"status"`
	ProcessingTime float64 `json:"processing_time"`
	Error          string  `json:"error,omitempty"`
}

// POST /analyze_base64
//
// Analysis failures come back as status="error" in a 200 response: the
// caller already lost the audio if we drop the request, so the report body
// carries the failure instead.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return nil
	}
	if body.AudioBase64 == "" {
		http.Error(w, "audio_base64 is required", http.StatusBadRequest)
		return nil
	}
	if body.MimeType == "" {
		body.MimeType = "audio/webm"
	}
	if err := middleware.ValidateMimeType(body.MimeType); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	if body.SessionID == "" {
		body.SessionID = uuid.New().String()
	} else if err := middleware.ValidateSessionID(body.SessionID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	log := audit.Begin(r.logger, body.SessionID)
	defer log.End()
	log.Info("request_received", map[string]any{
		"user_id":     body.UserID,
		"user_name":   body.UserName,
		"mime_type":   body.MimeType,
		"audio_chars": len(body.AudioBase64),
	})

	sess, err := r.svc.Analyze(req.Context(), log, sessions.AnalyzeCommand{
		SessionID:       body.SessionID,
		UserID:          body.UserID,
		UserName:        body.UserName,
		MimeType:        body.MimeType,
		AudioBase64:     body.AudioBase64,
		DurationMinutes: body.DurationMinutes,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		log.Error("request_failed", map[string]any{"error": err.Error()})
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(analyzeResponse{
			SessionID: body.SessionID,
			Model:     r.model,
			Status:    string(domain.StatusError),
			Error:     err.Error(),
		})
	}

	resp := analyzeResponse{
		SessionID:      string(sess.ID),
		Model:          r.model,
		Title:          sess.Title,
		Report:         sess.Report,
		Status:         string(sess.Status),
		ProcessingTime: float64(sess.ProcessingMS) / 1000.0,
	}
	log.Info("request_completed", map[string]any{
		"status":          resp.Status,
		"processing_time": resp.ProcessingTime,
	})

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}

// GET /session_audio/{user_id}/{session_id}
func (r *Router) handleAudio(w http.ResponseWriter, req *http.Request) error {
	userID := chi.URLParam(req, "user_id")
	sessionID := chi.URLParam(req, "session_id")
	if err := middleware.ValidateUserID(userID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	sess, audio, err := r.svc.GetAudio(req.Context(), userID, domain.ID(sessionID))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"session_id":   sess.ID,
		"user_id":      sess.UserID,
		"user_name":    sess.UserName,
		"mime_type":    sess.AudioMimeType,
		"audio_base64": base64.StdEncoding.EncodeToString(audio),
		"size_bytes":   len(audio),
	})
}

// GET /sessions/latest?user_id=&limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	userID := req.URL.Query().Get("user_id")
	if err := middleware.ValidateUserID(userID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), userID, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
