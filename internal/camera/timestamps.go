package camera

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/logfields"
)

// AlignTimestamps sets the modification time of every photograph under
// photoDir to the capture time encoded in its path. Files that already match
// are left alone. Returns the number of files touched.
func AlignTimestamps(ctx context.Context, photoDir string) (int, error) {
	touched := 0
	err := filepath.WalkDir(photoDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsPhoto(path) {
			return nil
		}
		taken, perr := ParsePhotoTime(path, time.Local)
		if perr != nil {
			slog.DebugContext(ctx, "Skipping unrecognised photograph name", logfields.Path(path))
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}
		if info.ModTime().Equal(taken) {
			return nil
		}
		if cerr := os.Chtimes(path, taken, taken); cerr != nil {
			return cerr
		}
		touched++
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return touched, ferrors.WrapError(err, ferrors.CategoryFileSystem, "align photograph timestamps").
			Transient().
			WithContext("path", photoDir).
			Build()
	}
	return touched, nil
}
