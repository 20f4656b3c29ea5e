package sessions

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/session-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/session-analyzer/internal/audit"
	domain "github.com/bryanwahyu/session-analyzer/internal/domain/session"
)

// Service implements use-cases untuk Session analysis.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Pipeline *analysis.Pipeline
	Store    domain.Store
	Repo     domain.Repository   // optional SQL index
	Archive  domain.ArchiveStore // optional object-storage archive
	Prober   domain.Prober       // optional duration probe
	Clock    Clock
}

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

//
// ==== USE CASES ====
//

// Command untuk analyze satu session
type AnalyzeCommand struct {
	SessionID       string
	UserID          string
	UserName        string
	MimeType        string
	AudioBase64     string
	DurationMinutes *float64
}

// Analyze decodes and stores the audio, runs the invocation pipeline, and
// persists the resulting report. The pipeline itself never fails; an error
// here means a storage or input problem.
func (s *Service) Analyze(ctx context.Context, log *audit.Session, cmd AnalyzeCommand) (*domain.Session, error) {
	now := s.Clock.Now()
	if cmd.SessionID == "" {
		cmd.SessionID = uuid.New().String()
	}

	audio, err := base64.StdEncoding.DecodeString(cmd.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio payload: %w", err)
	}

	duration := s.resolveDuration(ctx, log, cmd, audio)

	sess := &domain.Session{
		ID:              domain.ID(cmd.SessionID),
		UserID:          cmd.UserID,
		UserName:        cmd.UserName,
		CreatedAt:       now,
		MimeType:        cmd.MimeType,
		DurationMinutes: duration,
	}

	meta, err := s.Store.SaveAudio(ctx, sess, audio)
	if err != nil {
		return nil, fmt.Errorf("save audio: %w", err)
	}
	sess.AudioFile = meta.Filename
	sess.AudioMimeType = meta.MimeType
	sess.AudioSizeBytes = meta.SizeBytes
	log.Info("audio_saved", map[string]any{"audio_meta": map[string]any{
		"filename":   meta.Filename,
		"mime_type":  meta.MimeType,
		"size_bytes": meta.SizeBytes,
		"path":       meta.Path,
	}})

	report := s.Pipeline.Run(ctx, log, analysis.Request{
		AudioBase64:     cmd.AudioBase64,
		MimeType:        cmd.MimeType,
		DurationMinutes: duration,
	})
	sess.Title = report.Title
	sess.Report = report.Body
	sess.Status = report.Status
	sess.ProcessingMS = s.Clock.Now().Sub(now).Milliseconds()

	path, err := s.Store.SaveReport(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	log.Info("report_persisted", map[string]any{"path": path, "report": report})

	// The SQL index and the object-storage archive are best-effort: the
	// report on disk is already the source of truth for retrieval.
	if s.Repo != nil {
		if err := s.Repo.Save(ctx, sess); err != nil {
			log.Warn("repo_save_failed", map[string]any{"error": err.Error()})
		}
	}
	if s.Archive != nil {
		s.archive(ctx, log, sess, meta, path)
	}

	return sess, nil
}

// GetAudio loads a stored session plus its audio bytes.
func (s *Service) GetAudio(ctx context.Context, userID string, id domain.ID) (*domain.Session, []byte, error) {
	return s.Store.LoadAudio(ctx, userID, id)
}

// Latest lists the most recent sessions for one user from the SQL index.
func (s *Service) Latest(ctx context.Context, userID string, limit int) ([]*domain.Session, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Latest(ctx, userID, limit)
}

func (s *Service) resolveDuration(ctx context.Context, log *audit.Session, cmd AnalyzeCommand, audio []byte) float64 {
	if cmd.DurationMinutes != nil {
		return *cmd.DurationMinutes
	}
	if s.Prober == nil {
		return 0
	}
	minutes, err := s.Prober.DurationMinutes(ctx, audio, cmd.MimeType)
	if err != nil {
		log.Warn("duration_probe_failed", map[string]any{"error": err.Error()})
		return 0
	}
	log.Info("duration_extracted", map[string]any{"minutes": minutes})
	return minutes
}

func (s *Service) archive(ctx context.Context, log *audit.Session, sess *domain.Session, meta domain.AudioMeta, reportPath string) {
	audioKey := fmt.Sprintf("%s/%s", sess.UserID, meta.Filename)
	if url, err := s.Archive.Upload(ctx, meta.Path, audioKey); err != nil {
		log.Warn("archive_upload_failed", map[string]any{"key": audioKey, "error": err.Error()})
	} else {
		sess.ArtifactURL = url
	}

	reportKey := fmt.Sprintf("%s/%s.json", sess.UserID, sess.ID)
	if _, err := s.Archive.Upload(ctx, reportPath, reportKey); err != nil {
		log.Warn("archive_upload_failed", map[string]any{"key": reportKey, "error": err.Error()})
	}
}
