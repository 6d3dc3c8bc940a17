package camera

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
)

// SimulatedCamera writes a synthetic frame whose colour follows the time of
// day. Used with --no-camera.
type SimulatedCamera struct {
	PhotoDir string
	Width    int
	Height   int
}

// NewSimulatedCamera returns a SimulatedCamera writing 64x48 frames.
func NewSimulatedCamera(photoDir string) *SimulatedCamera {
	return &SimulatedCamera{PhotoDir: photoDir, Width: 64, Height: 48}
}

func (c *SimulatedCamera) Capture(ctx context.Context, ev CaptureEvent) error {
	path := PhotoPath(c.PhotoDir, ev.Time)
	if err := os.MkdirAll(DayDir(c.PhotoDir, ev.Time), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create photo directory").
			Transient().
			WithContext("path", path).
			Build()
	}

	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	fill := skyColour(ev.Time.Hour())
	for y := range c.Height {
		for x := range c.Width {
			img.Set(x, y, fill)
		}
	}

	f, err := os.Create(path) //nolint:gosec // path is derived from configured photo dir
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create photograph").
			Transient().
			WithContext("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 80}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryCapture, "encode simulated photograph").
			Transient().
			WithContext("path", path).
			Build()
	}

	slog.DebugContext(ctx, "Simulated capture",
		logfields.FrameID(ev.ID.String()),
		logfields.Path(path))
	return nil
}

// skyColour approximates daylight: dark at night, blue during the day.
func skyColour(hour int) color.RGBA {
	switch {
	case hour < 6 || hour >= 21:
		return color.RGBA{R: 10, G: 10, B: 30, A: 255}
	case hour < 9 || hour >= 18:
		return color.RGBA{R: 230, G: 140, B: 60, A: 255}
	default:
		return color.RGBA{R: 90, G: 160, B: 235, A: 255}
	}
}
