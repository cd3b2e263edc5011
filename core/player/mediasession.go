package player

import (
	"context"
	"fmt"

	"GeminiStream/model"
)

// MediaSession receives now-playing metadata for OS level controls
// (lock screen, headset buttons, remote dashboards).
type MediaSession interface {
	Publish(ctx context.Context, np model.NowPlaying) error
}

// NopSession discards everything.
type NopSession struct{}

func (NopSession) Publish(context.Context, model.NowPlaying) error { return nil }

// MediaCommand is an action requested through the media session.
type MediaCommand string

const (
	CommandPlay     MediaCommand = "play"
	CommandPause    MediaCommand = "pause"
	CommandNext     MediaCommand = "nexttrack"
	CommandPrevious MediaCommand = "previoustrack"
)

// HandleMediaCommand maps a media session action onto the controller.
// play and pause are idempotent: they only toggle when the state differs.
func (c *Controller) HandleMediaCommand(ctx context.Context, cmd MediaCommand) error {
	switch cmd {
	case CommandPlay, CommandPause:
		want := cmd == CommandPlay
		return c.setPlaying(ctx, &want)
	case CommandNext:
		return c.Next(ctx)
	case CommandPrevious:
		return c.Previous(ctx)
	default:
		return fmt.Errorf("unknown media command %q", cmd)
	}
}
