package session

import (
	"time"
)

// ID tipe untuk Session
type ID string

// Status enum
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Aggregate Root: Session
type Session struct {
	ID              ID        `json:"session_id"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	CreatedAt       time.Time `json:"created_at"`
	MimeType        string    `json:"mime_type"`
	DurationMinutes float64   `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Title           string    `json:"title,omitempty"`
	Report          string    `json:"session_report,omitempty"`
	AudioFile       string    `json:"audio_file,omitempty"`
	AudioMimeType   string    `json:"audio_mime_type,omitempty"`
	AudioSizeBytes  int64     `json:"audio_size_bytes"`
	ArtifactURL     string    `json:"artifact_url,omitempty"`
	ProcessingMS    int64     `json:"processing_ms"`
}
