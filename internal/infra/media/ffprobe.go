package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober estimates audio duration by piping the payload through ffprobe.
// Formats that keep their index at the end of the file (some m4a) may not be
// probeable from a pipe; callers treat probe failure as "duration unknown".
type Prober struct {
	Binary string
}

func NewProber(binary string) *Prober {
	return &Prober{Binary: binary}
}

type probeFormat struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// DurationMinutes implements the session.Prober port.
func (p *Prober) DurationMinutes(ctx context.Context, audio []byte, mimeType string) (float64, error) {
	if len(audio) == 0 {
		return 0, errors.New("ffprobe: empty audio payload")
	}
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "-i", "pipe:0")
	cmd.Stdin = bytes.NewReader(audio)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var result probeFormat
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: no duration in output (format=%s)", result.Format.FormatName)
	}
	return seconds / 60.0, nil
}
