// Package cast describes the contract between the player and a platform
// cast capability, plus a websocket relay implementation of it.
package cast

import (
	"context"
	"errors"
	"fmt"
)

// MimeType is the content type announced for every stream handed to a receiver.
const MimeType = "audio/mp3"

// ErrUnavailable means the platform has no cast capability at all.
var ErrUnavailable = errors.New("cast: capability unavailable")

// MediaDescriptor is what the receiver needs to start remote playback.
type MediaDescriptor struct {
	URL      string  `json:"url"`
	MimeType string  `json:"mimeType"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	ImageURL string  `json:"imageUrl"`
	Duration float64 `json:"duration"`
}

// Bridge is the cast capability. Implementations must be safe for
// concurrent use.
type Bridge interface {
	// PresentDevicePicker asks the platform to show its route picker.
	PresentDevicePicker(ctx context.Context) error
	// LoadMedia hands media to the active cast session.
	LoadMedia(ctx context.Context, media MediaDescriptor) error
}

// ReadyWaiter is implemented by bridges that can report when a session is
// connected, so callers do not have to guess with a fixed delay.
type ReadyWaiter interface {
	WaitConnected(ctx context.Context) error
}

// RejectedError is returned when the platform refused a cast step.
type RejectedError struct {
	Op     string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("cast: %s rejected: %s", e.Op, e.Reason)
}

// Unavailable is the Bridge used when casting is not configured.
type Unavailable struct{}

func (Unavailable) PresentDevicePicker(context.Context) error { return ErrUnavailable }

func (Unavailable) LoadMedia(context.Context, MediaDescriptor) error { return ErrUnavailable }
