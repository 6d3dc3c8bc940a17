// Package video assembles a day's photographs into a single video.
package video

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"git.home.luguber.info/inful/rptl/internal/camera"
	"git.home.luguber.info/inful/rptl/internal/config"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/ledger"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/process"
)

// Compiler turns the photographs of one calendar day into a video.
type Compiler interface {
	Compile(ctx context.Context, day time.Time) error
}

// CompilationStore remembers which days already have a video.
type CompilationStore interface {
	Compiled(ctx context.Context, day time.Time) (*ledger.Compilation, error)
	MarkCompiled(ctx context.Context, c ledger.Compilation) error
}

// FrameLister is implemented by stores that also track captured frames.
type FrameLister interface {
	FramesForDay(ctx context.Context, day time.Time) ([]ledger.Frame, error)
}

// FFmpegCompiler compiles with ffmpeg's glob image demuxer.
type FFmpegCompiler struct {
	FFmpeg    string
	Framerate int
	PhotoDir  string
	OutputDir string
	Timeout   time.Duration
	Runner    process.Runner
	Store     CompilationStore // optional
}

// NewFFmpegCompiler builds a compiler from the video section and the camera's photo directory.
func NewFFmpegCompiler(cfg config.VideoConfig, photoDir string, store CompilationStore) *FFmpegCompiler {
	return &FFmpegCompiler{
		FFmpeg:    cfg.FFmpeg,
		Framerate: cfg.Framerate,
		PhotoDir:  photoDir,
		OutputDir: cfg.OutputDir,
		Timeout:   cfg.Timeout,
		Runner:    process.ExecRunner{},
		Store:     store,
	}
}

// OutputPath returns the video path for day.
func (c *FFmpegCompiler) OutputPath(day time.Time) string {
	return filepath.Join(c.OutputDir, day.Format(time.DateOnly)+".mp4")
}

// Compile is idempotent: a day already in the store or already on disk is skipped.
func (c *FFmpegCompiler) Compile(ctx context.Context, day time.Time) error {
	out := c.OutputPath(day)

	if c.Store != nil {
		done, err := c.Store.Compiled(ctx, day)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryLedger, "look up compilation").
				Transient().
				WithContext("day", ledger.DayKey(day)).
				Build()
		}
		if done != nil {
			slog.InfoContext(ctx, "Day already compiled", logfields.Day(day), logfields.Path(done.VideoPath))
			return nil
		}
	}

	frames, err := filepath.Glob(filepath.Join(camera.DayDir(c.PhotoDir, day), "*.jpg"))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryVideo, "list frames").Transient().Build()
	}

	if _, err := os.Stat(out); err == nil {
		slog.InfoContext(ctx, "Video already exists", logfields.Day(day), logfields.Path(out))
		return c.record(ctx, day, out, len(frames))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat video").
			Transient().
			WithContext("path", out).
			Build()
	}

	if len(frames) == 0 {
		slog.InfoContext(ctx, "No frames to compile", logfields.Day(day))
		return nil
	}

	if n := c.missingFrames(ctx, day, frames); n > 0 {
		slog.WarnContext(ctx, "Recorded frames missing from photo directory", logfields.Day(day), logfields.Count(n))
	}

	if err := os.MkdirAll(c.OutputDir, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create video directory").
			Transient().
			WithContext("path", c.OutputDir).
			Build()
	}

	tmp := out + ".partial.mp4"
	args := []string{
		"-y", "-loglevel", "error",
		"-framerate", strconv.Itoa(c.Framerate),
		"-pattern_type", "glob",
		"-i", filepath.Join(camera.DayDir(c.PhotoDir, day), "*.jpg"),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		tmp,
	}
	start := time.Now()
	if _, err := process.RunWithTimeout(ctx, c.Runner, c.Timeout, c.FFmpeg, args...); err != nil {
		_ = os.Remove(tmp)
		return ferrors.WrapError(err, ferrors.CategoryVideo, "compile video").
			Transient().
			WithContext("day", ledger.DayKey(day)).
			Build()
	}
	if err := os.Rename(tmp, out); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "finalise video").
			Transient().
			WithContext("path", out).
			Build()
	}

	slog.InfoContext(ctx, "Compiled daily video",
		logfields.Day(day),
		logfields.Path(out),
		logfields.Count(len(frames)),
		logfields.DurationMS(time.Since(start)))
	return c.record(ctx, day, out, len(frames))
}

func (c *FFmpegCompiler) record(ctx context.Context, day time.Time, out string, frames int) error {
	if c.Store == nil {
		return nil
	}
	err := c.Store.MarkCompiled(ctx, ledger.Compilation{
		Day:       ledger.DayKey(day),
		VideoPath: out,
		Frames:    frames,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryLedger, fmt.Sprintf("record compilation of %s", ledger.DayKey(day))).
			Transient().
			Build()
	}
	return nil
}

// missingFrames counts frames the store recorded for day that are not among onDisk.
func (c *FFmpegCompiler) missingFrames(ctx context.Context, day time.Time, onDisk []string) int {
	lister, ok := c.Store.(FrameLister)
	if !ok {
		return 0
	}
	recorded, err := lister.FramesForDay(ctx, day)
	if err != nil {
		slog.WarnContext(ctx, "Failed to list recorded frames", logfields.Day(day), logfields.Error(err))
		return 0
	}

	present := make(map[string]struct{}, len(onDisk))
	for _, p := range onDisk {
		present[filepath.Clean(p)] = struct{}{}
	}
	missing := 0
	for _, f := range recorded {
		if _, ok := present[filepath.Clean(f.Path)]; !ok {
			missing++
		}
	}
	return missing
}
