package subsonic

import (
	"context"

	"GeminiStream/logger"
	"GeminiStream/model"
)

// GetLyrics looks up lyrics on the Subsonic server first and falls back to
// LrcLib when the credentials enable it. It never fails: no lyrics is nil.
func (c *Client) GetLyrics(ctx context.Context, creds model.Credentials, song model.Song) *model.Lyrics {
	env, err := c.fetch(ctx, "getLyrics", RestURL(creds, "getLyrics",
		Param{"id", song.ID},
		Param{"artist", song.Artist},
		Param{"title", song.Title},
	))
	if err == nil && env.Response.Lyrics != nil && env.Response.Lyrics.Value != "" {
		l := env.Response.Lyrics
		return &model.Lyrics{Artist: l.Artist, Title: l.Title, Content: l.Value}
	}
	logger.Debug("[Subsonic/getLyrics] no lyrics on server", logger.String("song_id", song.ID))

	if !creds.EnableLyricsFallback {
		return nil
	}

	lyrics, err := c.fetchLrcLib(ctx, song)
	if err != nil {
		logger.Warn("[LrcLib] fallback failed", logger.String("song_id", song.ID), logger.ErrorField(err))
		return nil
	}
	return lyrics
}
