package colorsort

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rptl/internal/camera"
	"git.home.luguber.info/inful/rptl/internal/config"
)

var (
	red  = color.RGBA{R: 224, G: 32, B: 32, A: 255}
	blue = color.RGBA{R: 32, G: 32, B: 224, A: 255}
	day  = time.Date(2026, 10, 14, 0, 0, 0, 0, time.Local)
)

func solid(c color.Color, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeFrame(t *testing.T, dir string, at time.Time, c color.Color) string {
	t.Helper()
	path := camera.PhotoPath(dir, at)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, jpeg.Encode(f, solid(c, 32, 24), &jpeg.Options{Quality: 90}))
	return path
}

func TestDominantProfile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := range 10 {
		for x := range 10 {
			c := red
			if x < 3 {
				c = blue
			}
			img.Set(x, y, c)
		}
	}
	assert.Equal(t, DominantProfile(solid(red, 4, 4), 4), DominantProfile(img, 4))
	assert.NotEqual(t, DominantProfile(solid(blue, 4, 4), 4), DominantProfile(img, 4))
}

func TestQuantise(t *testing.T) {
	assert.Equal(t, 0, quantise(0, 4))
	assert.Equal(t, 3, quantise(0xffff, 4))
	assert.Equal(t, 1, quantise(0x4000, 4))
}

type forgetter struct{ paths []string }

func (f *forgetter) ForgetFrame(_ context.Context, path string) error {
	f.paths = append(f.paths, path)
	return nil
}

func TestPruneDayKeepsMajorProfile(t *testing.T) {
	dir := t.TempDir()
	var reds []string
	for i := range 3 {
		reds = append(reds, writeFrame(t, dir, day.Add(time.Duration(8+i)*time.Hour), red))
	}
	outlier := writeFrame(t, dir, day.Add(12*time.Hour), blue)
	broken := camera.PhotoPath(dir, day.Add(13*time.Hour))
	require.NoError(t, os.WriteFile(broken, []byte("half a jpeg"), 0o600))

	frames := &forgetter{}
	p := NewColourPruner(config.PruneConfig{Enabled: true, Levels: 4}, dir, frames, nil)
	res, err := p.PruneDay(t.Context(), day)
	require.NoError(t, err)

	assert.Equal(t, reds, res.Kept)
	assert.Equal(t, []string{outlier}, res.Removed)
	assert.Equal(t, []string{broken}, res.Skipped)
	assert.NoFileExists(t, outlier)
	assert.FileExists(t, broken)
	for _, path := range reds {
		assert.FileExists(t, path)
	}
	assert.Equal(t, []string{outlier}, frames.paths)
}

func TestPruneDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, day.Add(8*time.Hour), red)
	writeFrame(t, dir, day.Add(9*time.Hour), red)
	outlier := writeFrame(t, dir, day.Add(10*time.Hour), blue)

	p := NewColourPruner(config.PruneConfig{Levels: 4, DryRun: true}, dir, nil, nil)
	res, err := p.PruneDay(t.Context(), day)
	require.NoError(t, err)
	assert.Equal(t, []string{outlier}, res.Removed)
	assert.FileExists(t, outlier)
}

func TestPruneUsesToday(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, day.Add(8*time.Hour), red)
	writeFrame(t, dir, day.Add(9*time.Hour), red)
	outlier := writeFrame(t, dir, day.Add(10*time.Hour), blue)

	p := NewColourPruner(config.PruneConfig{Levels: 4}, dir, nil, nil)
	p.Now = func() time.Time { return day.Add(23 * time.Hour) }
	require.NoError(t, p.Prune(t.Context()))
	assert.NoFileExists(t, outlier)
}

func TestPruneEmptyDay(t *testing.T) {
	p := NewColourPruner(config.PruneConfig{Levels: 4}, t.TempDir(), nil, nil)
	res, err := p.PruneDay(t.Context(), day)
	require.NoError(t, err)
	assert.Empty(t, res.Kept)
	assert.Empty(t, res.Removed)
}
