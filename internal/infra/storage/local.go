package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domain "github.com/bryanwahyu/session-analyzer/internal/domain/session"
)

// Local persists session audio and report JSON under a base directory, one
// subdirectory per user named <user_id>__<user_name>.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "database"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure base directory: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

var mimeExtensions = map[string]string{
	"audio/webm":  ".webm",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/ogg":   ".ogg",
	"audio/m4a":   ".m4a",
	"audio/aac":   ".aac",
}

func extensionFromMime(mimeType string) string {
	if ext, ok := mimeExtensions[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".webm"
}

// sanitizeForFS keeps only characters safe in directory and file names.
func sanitizeForFS(raw, fallback string) string {
	var b strings.Builder
	for _, ch := range raw {
		if ch == '-' || ch == '_' ||
			(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

func (l *Local) userDir(s *domain.Session) (string, error) {
	userID := sanitizeForFS(s.UserID, "anonymous")
	if s.UserID == "" {
		userID = sanitizeForFS(string(s.ID), "anonymous")
	}
	userName := sanitizeForFS(s.UserName, "user")
	dir := filepath.Join(l.baseDir, userID+"__"+userName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure user directory: %w", err)
	}
	return dir, nil
}

// SaveAudio writes the decoded audio bytes next to the session's report.
func (l *Local) SaveAudio(ctx context.Context, s *domain.Session, audio []byte) (domain.AudioMeta, error) {
	dir, err := l.userDir(s)
	if err != nil {
		return domain.AudioMeta{}, err
	}

	mimeType := s.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	slug := sanitizeForFS(string(s.ID), "session")
	filename := slug + extensionFromMime(mimeType)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return domain.AudioMeta{}, fmt.Errorf("write audio: %w", err)
	}

	return domain.AudioMeta{
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(audio)),
		Path:      path,
		Directory: dir,
	}, nil
}

// SaveReport writes the session metadata/report JSON and returns its path.
func (l *Local) SaveReport(ctx context.Context, s *domain.Session) (string, error) {
	dir, err := l.userDir(s)
	if err != nil {
		return "", err
	}
	slug := sanitizeForFS(string(s.ID), "session")
	path := filepath.Join(dir, slug+".json")

	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// LoadReport reads back a stored session by user and session id.
func (l *Local) LoadReport(ctx context.Context, userID string, id domain.ID) (*domain.Session, error) {
	dir, err := l.findUserDir(userID)
	if err != nil {
		return nil, err
	}
	slug := sanitizeForFS(string(id), string(id))
	data, err := os.ReadFile(filepath.Join(dir, slug+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &s, nil
}

// LoadAudio reads a stored session plus its raw audio bytes.
func (l *Local) LoadAudio(ctx context.Context, userID string, id domain.ID) (*domain.Session, []byte, error) {
	s, err := l.LoadReport(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if s.AudioFile == "" {
		return nil, nil, domain.ErrNotFound
	}
	dir, err := l.findUserDir(userID)
	if err != nil {
		return nil, nil, err
	}
	audio, err := os.ReadFile(filepath.Join(dir, s.AudioFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("read audio: %w", err)
	}
	return s, audio, nil
}

func (l *Local) findUserDir(userID string) (string, error) {
	safe := sanitizeForFS(userID, "anonymous")
	matches, err := filepath.Glob(filepath.Join(l.baseDir, safe+"__*"))
	if err != nil {
		return "", fmt.Errorf("lookup user directory: %w", err)
	}
	if len(matches) == 0 {
		return "", domain.ErrNotFound
	}
	sort.Strings(matches)
	return matches[0], nil
}
