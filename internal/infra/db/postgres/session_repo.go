package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/bryanwahyu/session-analyzer/internal/domain/session"
)

type SessionRepository struct{ db *sql.DB }

func NewSessionRepository(db *sql.DB) *SessionRepository { return &SessionRepository{db: db} }

// Save insert/update Session record
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO sessions
(id, user_id, user_name, created_at, mime_type, duration_minutes, status,
 title, session_report, audio_file, audio_mime_type, audio_size_bytes,
 artifact_url, processing_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 title = EXCLUDED.title,
 session_report = EXCLUDED.session_report,
 audio_file = EXCLUDED.audio_file,
 audio_mime_type = EXCLUDED.audio_mime_type,
 audio_size_bytes = EXCLUDED.audio_size_bytes,
 artifact_url = EXCLUDED.artifact_url,
 processing_ms = EXCLUDED.processing_ms;`

	userID := stringOrDash(s.UserID)
	userName := stringOrDash(s.UserName)
	status := stringOrDash(string(s.Status))
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, userID, userName, created, s.MimeType, s.DurationMinutes, status,
		s.Title, s.Report, s.AudioFile, s.AudioMimeType, s.AudioSizeBytes,
		s.ArtifactURL, s.ProcessingMS,
	)
	return err
}

// Get by ID + User
func (r *SessionRepository) Get(ctx context.Context, userID string, id domain.ID) (*domain.Session, error) {
	const q = `
SELECT id, user_id, user_name, created_at, mime_type, duration_minutes, status,
       title, session_report, audio_file, audio_mime_type, audio_size_bytes,
       artifact_url, processing_ms
FROM sessions
WHERE user_id=$1 AND id=$2
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, userID, id)
	s, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// Latest sessions per user
func (r *SessionRepository) Latest(ctx context.Context, userID string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, user_name, created_at, mime_type, duration_minutes, status,
       title, session_report, audio_file, audio_mime_type, audio_size_bytes,
       artifact_url, processing_ms
FROM sessions
WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(scan func(dest ...any) error) (*domain.Session, error) {
	var s domain.Session
	if err := scan(
		&s.ID, &s.UserID, &s.UserName, &s.CreatedAt, &s.MimeType, &s.DurationMinutes, &s.Status,
		&s.Title, &s.Report, &s.AudioFile, &s.AudioMimeType, &s.AudioSizeBytes,
		&s.ArtifactURL, &s.ProcessingMS,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
