package player

import (
	"errors"
	"fmt"
)

var (
	// ErrCastUnavailable carries the message shown to the user when the
	// platform cannot cast.
	ErrCastUnavailable = errors.New("Casting is only available in the native app.")
	ErrEmptyQueue      = errors.New("queue is empty")
	ErrNoSong          = errors.New("no song loaded")
)

// SourceResolutionError means a stream URL could not be built for a song.
// State is left untouched when it is returned.
type SourceResolutionError struct {
	SongID string
	Err    error
}

func (e *SourceResolutionError) Error() string {
	return fmt.Sprintf("resolve stream for song %q: %v", e.SongID, e.Err)
}

func (e *SourceResolutionError) Unwrap() error { return e.Err }

// CastSessionRejectedError means the platform refused a cast step.
// Local playback is unaffected.
type CastSessionRejectedError struct {
	Step string
	Err  error
}

func (e *CastSessionRejectedError) Error() string {
	return fmt.Sprintf("cast %s failed: %v", e.Step, e.Err)
}

func (e *CastSessionRejectedError) Unwrap() error { return e.Err }
