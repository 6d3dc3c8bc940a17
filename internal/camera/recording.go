package camera

import (
	"context"

	ferrors "git.home.luguber.info/inful/rptl/internal/foundation/errors"
	"git.home.luguber.info/inful/rptl/internal/ledger"
)

// FrameRecorder stores captured frames.
type FrameRecorder interface {
	RecordFrame(ctx context.Context, f ledger.Frame) error
}

// Recording wraps a Capturer and records each successful frame.
type Recording struct {
	Next     Capturer
	Frames   FrameRecorder
	PhotoDir string
}

func (r *Recording) Capture(ctx context.Context, ev CaptureEvent) error {
	if err := r.Next.Capture(ctx, ev); err != nil {
		return err
	}
	if r.Frames == nil {
		return nil
	}
	frame := ledger.Frame{
		ID:         ev.ID,
		Day:        ledger.DayKey(ev.Time),
		Path:       PhotoPath(r.PhotoDir, ev.Time),
		CapturedAt: ev.Time,
	}
	if err := r.Frames.RecordFrame(ctx, frame); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryLedger, "record frame").
			Transient().
			WithContext("frame_id", ev.ID.String()).
			Build()
	}
	return nil
}
