package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by every package.
const (
	KeyDuty       = "duty"
	KeyFrameID    = "frame_id"
	KeyDay        = "day"
	KeyCommand    = "command"
	KeyRequestID  = "request_id"
	KeyPath       = "path"
	KeyInterval   = "interval"
	KeyWindow     = "window"
	KeyDurationMS = "duration_ms"
	KeyCategory   = "category"
	KeyCount      = "count"
	KeyError      = "error"
)

func Duty(name string) slog.Attr         { return slog.String(KeyDuty, name) }
func FrameID(id string) slog.Attr        { return slog.String(KeyFrameID, id) }
func Command(c string) slog.Attr         { return slog.String(KeyCommand, c) }
func RequestID(id string) slog.Attr      { return slog.String(KeyRequestID, id) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Window(w string) slog.Attr          { return slog.String(KeyWindow, w) }
func Category(c string) slog.Attr        { return slog.String(KeyCategory, c) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Interval(d time.Duration) slog.Attr { return slog.Duration(KeyInterval, d) }

// Day formats a calendar day as YYYY-MM-DD.
func Day(t time.Time) slog.Attr { return slog.String(KeyDay, t.Format(time.DateOnly)) }

func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
