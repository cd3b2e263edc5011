package player

import (
	"context"
	"errors"
	"time"

	"GeminiStream/core/cast"
	"GeminiStream/core/subsonic"
	"GeminiStream/logger"
)

// RequestCast shows the platform device picker, waits for the session and
// hands the current song to it. Local playback state is never changed by
// the outcome.
func (c *Controller) RequestCast(ctx context.Context) error {
	if err := c.bridge.PresentDevicePicker(ctx); err != nil {
		return c.castError("present_picker", err)
	}

	c.mu.Lock()
	creds := c.creds
	var song = c.current
	if song != nil {
		s := *song
		song = &s
	}
	c.mu.Unlock()

	if song == nil {
		logger.Info("[Player/cast] Picker shown, nothing to cast yet")
		return nil
	}

	if err := c.waitForSession(ctx); err != nil {
		return err
	}

	url, err := subsonic.StreamURL(creds, song.ID)
	if err != nil {
		return &SourceResolutionError{SongID: song.ID, Err: err}
	}

	media := cast.MediaDescriptor{
		URL:      url,
		MimeType: cast.MimeType,
		Title:    song.Title,
		Subtitle: song.Artist,
		ImageURL: subsonic.CoverArtURL(creds, song.CoverArt, subsonic.DefaultCoverSize),
		Duration: song.Duration,
	}
	if err := c.bridge.LoadMedia(ctx, media); err != nil {
		return c.castError("load_media", err)
	}

	logger.Info("[Player/cast] Media handed to cast session", logger.String("song_id", song.ID))
	return nil
}

// waitForSession uses the bridge's readiness signal when it has one, bounded
// by the settle delay, and otherwise just sleeps the settle delay.
func (c *Controller) waitForSession(ctx context.Context) error {
	if rw, ok := c.bridge.(cast.ReadyWaiter); ok {
		wctx, cancel := context.WithTimeout(ctx, c.settleDelay)
		defer cancel()
		if err := rw.WaitConnected(wctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("[Player/cast] Session not reported ready, loading anyway", logger.Duration("waited", c.settleDelay))
		}
		return nil
	}

	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) castError(step string, err error) error {
	if errors.Is(err, cast.ErrUnavailable) {
		logger.Warn("[Player/cast] Cast capability unavailable", logger.ErrorField(err))
		return ErrCastUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Error("[Player/cast] Cast step failed", logger.String("step", step), logger.ErrorField(err))
	return &CastSessionRejectedError{Step: step, Err: err}
}
