// Package capture grabs still photos with a one-shot ffmpeg run.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/logging"
)

// DefaultTimeout bounds one capture run.
const DefaultTimeout = 10 * time.Second

// Request describes one photo.
type Request struct {
	// Source is a device path when FromDevice is set, otherwise a URL or file
	// such as the running preview surface.
	Source      string
	FromDevice  bool
	InputFormat string
	Width       int
	Height      int
	RotationDeg int
	OutputPath  string
}

// Capturer runs ffmpeg to grab single frames.
type Capturer struct {
	logger  *slog.Logger
	timeout time.Duration
	run     func(ctx context.Context, args []string) ([]byte, error)
}

// New returns a Capturer using the system ffmpeg.
func New() *Capturer {
	return &Capturer{
		logger:  logging.GetLogger("capture"),
		timeout: DefaultTimeout,
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Capture writes one JPEG frame from req.Source to req.OutputPath.
func (c *Capturer) Capture(ctx context.Context, req Request) error {
	if req.FromDevice {
		if _, err := os.Stat(req.Source); err != nil {
			return fmt.Errorf("device %s: %w", req.Source, err)
		}
	}
	if dir := filepath.Dir(req.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	args, err := ffmpeg.BuildCaptureArgs(ffmpeg.CaptureParams{
		Source:      req.Source,
		FromDevice:  req.FromDevice,
		InputFormat: req.InputFormat,
		Width:       req.Width,
		Height:      req.Height,
		RotationDeg: req.RotationDeg,
		OutputPath:  req.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("error building capture command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("Capturing photo", "source", req.Source, "output", req.OutputPath)
	out, err := c.run(ctx, args)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("capture command timed out after %s", c.timeout)
		}
		return fmt.Errorf("error capturing photo: %w: %s", err, lastLine(out))
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return fmt.Errorf("capture produced no file: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("capture produced an empty file")
	}
	c.logger.Info("Photo saved", "path", req.OutputPath, "bytes", info.Size())
	return nil
}

// PhotoPath returns a unique photo file name in dir.
func PhotoPath(dir string, at time.Time) string {
	name := fmt.Sprintf("IMG_%s_%s.jpg", at.Format("20060102_150405"), uuid.NewString()[:8])
	return filepath.Join(dir, name)
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
