package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/thebtf/emocheck/pkg/models"
)

// ErrCaptureUnavailable is returned when the host has no capture device.
var ErrCaptureUnavailable = errors.New("capture device unavailable")

// Image is a captured still stored by the host.
type Image struct {
	CapturedAt time.Time
	Ref        string
	MIMEType   string
}

// AudioClip is a recorded voice note stored by the host.
type AudioClip struct {
	RecordedAt time.Time
	Ref        string
	MIMEType   string
	Duration   time.Duration
}

// Capture is the device capability a host injects for photo and voice expression.
// Implementations may block; the aggregator only sees the resulting references.
type Capture interface {
	CaptureStill(ctx context.Context) (Image, error)
	RecordAudio(ctx context.Context, d time.Duration) (AudioClip, error)
}

// NoCapture is a Capture for hosts without devices.
type NoCapture struct{}

func (NoCapture) CaptureStill(ctx context.Context) (Image, error) {
	return Image{}, ErrCaptureUnavailable
}

func (NoCapture) RecordAudio(ctx context.Context, d time.Duration) (AudioClip, error) {
	return AudioClip{}, ErrCaptureUnavailable
}

// PhotoPayload turns a captured still into an expression payload.
func PhotoPayload(img Image) ExpressionPayload {
	return ExpressionPayload{Mode: models.ExpressionPhoto, Ref: img.Ref}
}

// VoicePayload turns a recorded clip into an expression payload.
// The duration is rounded up to whole seconds.
func VoicePayload(clip AudioClip) ExpressionPayload {
	secs := int((clip.Duration + time.Second - 1) / time.Second)
	return ExpressionPayload{Mode: models.ExpressionVoice, Ref: clip.Ref, DurationSeconds: secs}
}
