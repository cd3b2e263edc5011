package audio

import (
	"context"
	"errors"
)

// ErrNoSource is returned by Resume and Seek before anything was loaded.
var ErrNoSource = errors.New("audio: no source loaded")

// EventType classifies what an Output reports back to the controller.
type EventType string

const (
	EventTick    EventType = "tick"    // periodic position update
	EventStarted EventType = "started" // media began producing sound
	EventEnded   EventType = "ended"   // media reached its end
	EventError   EventType = "error"   // playback failed, no retry
)

// Event is emitted on the Output's event channel. Source identifies the URL
// the event belongs to so late events from a replaced source can be ignored.
type Event struct {
	Type     EventType
	Source   string
	Position float64
	Err      error
}

// Output is the single local audio sink owned by the player controller.
type Output interface {
	// Source returns the URL currently bound to the output, "" when none.
	Source() string
	// Load binds url and starts playback from the beginning.
	Load(ctx context.Context, url string) error
	// Resume continues the bound source from the current position.
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
	// Seek moves to position seconds, keeping the play/pause state.
	Seek(ctx context.Context, position float64) error
	// Stop halts playback and unbinds the source.
	Stop() error
	Events() <-chan Event
}
