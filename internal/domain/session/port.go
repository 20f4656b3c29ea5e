package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores and repositories when a session, its
// metadata, or its audio is missing.
var ErrNotFound = errors.New("session not found")

// AudioMeta describes a saved audio file.
type AudioMeta struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Path      string
	Directory string
}

// Store port (interface untuk persistence on disk)
type Store interface {
	SaveAudio(ctx context.Context, s *Session, audio []byte) (AudioMeta, error)
	SaveReport(ctx context.Context, s *Session) (string, error)
	LoadReport(ctx context.Context, userID string, id ID) (*Session, error)
	LoadAudio(ctx context.Context, userID string, id ID) (*Session, []byte, error)
}

// Repository port (interface untuk the SQL session index)
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, userID string, id ID) (*Session, error)
	Latest(ctx context.Context, userID string, limit int) ([]*Session, error)
}

// ArchiveStore port (interface untuk object-storage archiving)
type ArchiveStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Prober estimates the duration of an audio payload.
type Prober interface {
	DurationMinutes(ctx context.Context, audio []byte, mimeType string) (float64, error)
}
