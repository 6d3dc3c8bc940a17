package camera

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	photoExt        = ".jpg"
	photoTimeLayout = "150405"
)

// DayDir returns the directory holding the photographs of day.
func DayDir(photoDir string, day time.Time) string {
	return filepath.Join(photoDir, day.Format(time.DateOnly))
}

// PhotoPath returns <photoDir>/<YYYY-MM-DD>/<HHMMSS>.jpg for t.
func PhotoPath(photoDir string, t time.Time) string {
	return filepath.Join(DayDir(photoDir, t), t.Format(photoTimeLayout)+photoExt)
}

// IsPhoto reports whether path has the photograph extension.
func IsPhoto(path string) bool {
	return strings.EqualFold(filepath.Ext(path), photoExt)
}

// ParsePhotoTime recovers the capture time encoded in a photo path, in loc.
func ParsePhotoTime(path string, loc *time.Location) (time.Time, error) {
	if !IsPhoto(path) {
		return time.Time{}, fmt.Errorf("not a photograph: %s", path)
	}
	day := filepath.Base(filepath.Dir(path))
	clock := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := time.ParseInLocation(time.DateOnly+" "+photoTimeLayout, day+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse photo time %s: %w", path, err)
	}
	return t, nil
}
