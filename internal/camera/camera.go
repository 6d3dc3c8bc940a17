// Package camera produces photographs for the capture duty.
//
// StillCamera shells out to libcamera-still (or any compatible tool),
// SimulatedCamera writes synthetic frames for development without a camera,
// and Recording decorates either with a ledger entry per frame.
package camera

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CaptureEvent is produced each time the capture duty decides to act.
type CaptureEvent struct {
	ID   uuid.UUID
	Time time.Time
}

// NewEvent builds a CaptureEvent for now.
func NewEvent(now time.Time) CaptureEvent {
	return CaptureEvent{ID: uuid.New(), Time: now}
}

// Capturer takes one photograph for an event.
type Capturer interface {
	Capture(ctx context.Context, ev CaptureEvent) error
}

// CapturerFunc adapts a function to Capturer.
type CapturerFunc func(ctx context.Context, ev CaptureEvent) error

func (f CapturerFunc) Capture(ctx context.Context, ev CaptureEvent) error { return f(ctx, ev) }
