package colorsort

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/rptl/internal/camera"
	"git.home.luguber.info/inful/rptl/internal/config"
	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
	"git.home.luguber.info/inful/rptl/internal/metrics"
)

// Pruner removes unwanted photographs.
type Pruner interface {
	Prune(ctx context.Context) error
}

// FrameForgetter drops deleted photographs from the frame ledger.
type FrameForgetter interface {
	ForgetFrame(ctx context.Context, path string) error
}

// Result summarises one pruning pass.
type Result struct {
	Major   Profile
	Kept    []string
	Removed []string
	Skipped []string
}

// ColourPruner keeps the photographs of the day's major colour profile.
type ColourPruner struct {
	PhotoDir string
	Levels   int
	DryRun   bool
	Now      func() time.Time
	Frames   FrameForgetter
	Metrics  metrics.Recorder
}

// NewColourPruner builds a pruner from the prune section.
func NewColourPruner(cfg config.PruneConfig, photoDir string, frames FrameForgetter, rec metrics.Recorder) *ColourPruner {
	return &ColourPruner{
		PhotoDir: photoDir,
		Levels:   cfg.Levels,
		DryRun:   cfg.DryRun,
		Now:      time.Now,
		Frames:   frames,
		Metrics:  metrics.OrNoop(rec),
	}
}

// Prune prunes today's photographs.
func (p *ColourPruner) Prune(ctx context.Context) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	_, err := p.PruneDay(ctx, now())
	return err
}

// PruneDay prunes the photographs captured on day.
func (p *ColourPruner) PruneDay(ctx context.Context, day time.Time) (Result, error) {
	var res Result
	paths, err := filepath.Glob(filepath.Join(camera.DayDir(p.PhotoDir, day), "*.jpg"))
	if err != nil {
		return res, ferrors.WrapError(err, ferrors.CategoryPrune, "list photographs").Transient().Build()
	}
	sort.Strings(paths)

	groups := make(map[Profile][]string)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		prof, perr := FileProfile(path, p.Levels)
		if perr != nil {
			slog.DebugContext(ctx, "Skipping unreadable photograph", logfields.Path(path), logfields.Error(perr))
			res.Skipped = append(res.Skipped, path)
			continue
		}
		groups[prof] = append(groups[prof], path)
	}
	if len(groups) == 0 {
		return res, nil
	}

	sizes := make(map[Profile]int, len(groups))
	for prof, members := range groups {
		sizes[prof] = len(members)
	}
	res.Major = argmax(sizes)
	res.Kept = groups[res.Major]

	for prof, members := range groups {
		if prof == res.Major {
			continue
		}
		for _, path := range members {
			if !p.DryRun {
				if err := p.remove(ctx, path); err != nil {
					return res, err
				}
			}
			res.Removed = append(res.Removed, path)
		}
	}
	sort.Strings(res.Removed)

	if !p.DryRun {
		p.recorder().IncFramesPruned(len(res.Removed))
	}
	slog.InfoContext(ctx, "Pruned photographs by colour profile",
		logfields.Day(day),
		logfields.Count(len(res.Removed)),
		slog.Int("kept", len(res.Kept)),
		slog.Bool("dry_run", p.DryRun))
	return res, nil
}

func (p *ColourPruner) remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return ferrors.WrapError(err, ferrors.CategoryPrune, "remove photograph").
			Transient().
			WithContext("path", path).
			Build()
	}
	if p.Frames != nil {
		if err := p.Frames.ForgetFrame(ctx, path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryLedger, "forget pruned frame").
				Transient().
				WithContext("path", path).
				Build()
		}
	}
	return nil
}

func (p *ColourPruner) recorder() metrics.Recorder {
	return metrics.OrNoop(p.Metrics)
}
