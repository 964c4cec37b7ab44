// Package engrave renders a MusicXML score to a paginated PDF through an
// external notation engine. Like rasterization and recognition, the
// conversion is a black box behind a file interface.
package engrave

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/observability"
)

// DefaultTimeout bounds one engraving run.
const DefaultTimeout = 2 * time.Minute

// Engraver renders a score file into a paginated document.
type Engraver interface {
	// Render converts the score at scorePath into outPath. The output
	// format follows outPath's extension.
	Render(ctx context.Context, scorePath, outPath string) error
}

// MuseScore engraves through the MuseScore binary's converter mode.
type MuseScore struct {
	Binary  string        // defaults to "musescore3"
	Timeout time.Duration // defaults to DefaultTimeout
	Logger  *log.Logger
}

// NewMuseScore creates a MuseScore engraver with defaults applied.
func NewMuseScore(logger *log.Logger) *MuseScore {
	if logger == nil {
		logger = log.Default()
	}
	return &MuseScore{Binary: "musescore3", Timeout: DefaultTimeout, Logger: logger}
}

// Render implements Engraver.
func (m *MuseScore) Render(ctx context.Context, scorePath, outPath string) error {
	if _, err := os.Stat(scorePath); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "score %s", scorePath)
	}

	binary := m.Binary
	if binary == "" {
		binary = "musescore3"
	}
	timeout := m.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{scorePath, "-o", outPath}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	m.Logger.Debug("engraving", "binary", binary, "score", scorePath, "out", outPath)
	observability.Process().OnExec(ctx, binary, args)
	start := time.Now()
	err := cmd.Run()
	observability.Process().OnExit(ctx, binary, time.Since(start), err)

	if err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return errors.Wrap(errors.ErrCodeEngineNotFound, err, "%s not installed", binary)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "engrave %s after %s", scorePath, timeout)
		}
		return errors.Wrap(errors.ErrCodeEngineFailed, err, "engrave %s", scorePath)
	}

	if _, err := os.Stat(outPath); err != nil {
		return errors.New(errors.ErrCodeEngineFailed, "engraver exited cleanly but wrote no %s", outPath)
	}
	return nil
}
