// Package player owns the playback state: current song, queue, transport
// status and the lyric cursor. All transitions go through Controller.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GeminiStream/core/audio"
	"GeminiStream/core/cast"
	"GeminiStream/core/lyrics"
	"GeminiStream/core/subsonic"
	"GeminiStream/logger"
	"GeminiStream/model"
)

const (
	// DefaultCastSettleDelay is how long RequestCast waits between the
	// device picker and loading media when the bridge cannot report readiness.
	DefaultCastSettleDelay = 2 * time.Second

	lyricsFetchTimeout = 15 * time.Second
	sessionTimeout     = 2 * time.Second
	observerBuffer     = 16
)

// LyricsSource fetches raw lyrics for a song. A nil result means none.
type LyricsSource interface {
	GetLyrics(ctx context.Context, creds model.Credentials, song model.Song) *model.Lyrics
}

// Options wires the controller's collaborators. Output is required.
type Options struct {
	Output          audio.Output
	Bridge          cast.Bridge
	Lyrics          LyricsSource
	Session         MediaSession
	CastSettleDelay time.Duration
}

// Controller serializes every playback transition behind one mutex. State
// is committed before output I/O and observers are notified after commit.
type Controller struct {
	mu        sync.Mutex
	creds     model.Credentials
	queue     []model.Song
	current   *model.Song
	isPlaying bool
	position  float64
	expanded  bool
	status    model.PlaybackStatus

	output      audio.Output
	bridge      cast.Bridge
	lyricsSrc   LyricsSource
	session     MediaSession
	tracker     *lyrics.Tracker
	settleDelay time.Duration

	obsMu     sync.Mutex
	observers map[<-chan model.PlaybackState]chan model.PlaybackState

	bg sync.WaitGroup
}

// NewController creates a controller with an empty queue.
func NewController(creds model.Credentials, opts Options) *Controller {
	c := &Controller{
		creds:       creds,
		status:      model.StatusIdle,
		output:      opts.Output,
		bridge:      opts.Bridge,
		lyricsSrc:   opts.Lyrics,
		session:     opts.Session,
		tracker:     lyrics.NewTracker(),
		settleDelay: opts.CastSettleDelay,
		observers:   make(map[<-chan model.PlaybackState]chan model.PlaybackState),
	}
	if c.bridge == nil {
		c.bridge = cast.Unavailable{}
	}
	if c.session == nil {
		c.session = NopSession{}
	}
	if c.settleDelay <= 0 {
		c.settleDelay = DefaultCastSettleDelay
	}
	return c
}

// Play makes song current and starts it. A non-empty queueContext replaces
// the queue; an empty one keeps it.
func (c *Controller) Play(ctx context.Context, song model.Song, queueContext []model.Song) error {
	c.mu.Lock()
	url, err := subsonic.StreamURL(c.creds, song.ID)
	if err != nil {
		c.mu.Unlock()
		logger.Warn("[Player/Play] Cannot resolve stream", logger.String("song_id", song.ID), logger.ErrorField(err))
		return &SourceResolutionError{SongID: song.ID, Err: err}
	}

	if len(queueContext) > 0 {
		c.queue = append([]model.Song(nil), queueContext...)
	}
	c.expanded = true
	changed := c.selectLocked(song, true)
	outErr := c.syncOutputLocked(ctx, url)
	c.commitAndUnlock(changed, true)

	logger.Info("[Player/Play] Playing song",
		logger.String("song_id", song.ID),
		logger.String("title", song.Title),
		logger.Int("queue", len(queueContext)))
	return outErr
}

// PlayQueue starts the first song of the current queue.
func (c *Controller) PlayQueue(ctx context.Context) error {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return ErrEmptyQueue
	}
	first := c.queue[0]
	c.mu.Unlock()
	return c.Play(ctx, first, nil)
}

// TogglePlayPause flips isPlaying. Only the local output follows; an active
// cast session is not told.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	return c.setPlaying(ctx, nil)
}

func (c *Controller) setPlaying(ctx context.Context, want *bool) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoSong
	}
	target := !c.isPlaying
	if want != nil {
		if *want == c.isPlaying {
			c.mu.Unlock()
			return nil
		}
		target = *want
	}

	c.isPlaying = target
	var outErr error
	if target {
		url, err := subsonic.StreamURL(c.creds, c.current.ID)
		if err != nil {
			c.isPlaying = false
			c.mu.Unlock()
			return &SourceResolutionError{SongID: c.current.ID, Err: err}
		}
		outErr = c.syncOutputLocked(ctx, url)
	} else if c.output.Source() != "" {
		if err := c.output.Pause(ctx); err != nil {
			outErr = c.failLocked(err)
		} else {
			c.status = model.StatusPaused
		}
	}
	c.commitAndUnlock(false, true)
	return outErr
}

// Next advances to the following queue entry, wrapping at the end.
func (c *Controller) Next(ctx context.Context) error {
	return c.step(ctx, 1)
}

// Previous moves to the preceding queue entry, wrapping at the start.
func (c *Controller) Previous(ctx context.Context) error {
	return c.step(ctx, -1)
}

func (c *Controller) step(ctx context.Context, delta int) error {
	c.mu.Lock()
	target, found, ok := c.neighbourLocked(delta)
	if !ok {
		c.mu.Unlock()
		return nil
	}

	url, err := subsonic.StreamURL(c.creds, target.ID)
	if err != nil {
		c.mu.Unlock()
		logger.Warn("[Player/step] Cannot resolve stream", logger.String("song_id", target.ID), logger.ErrorField(err))
		return &SourceResolutionError{SongID: target.ID, Err: err}
	}

	// a current song missing from the queue jumps to the first entry and
	// leaves isPlaying as it was
	changed := c.selectLocked(target, found)
	outErr := c.syncOutputLocked(ctx, url)
	c.commitAndUnlock(changed, true)
	return outErr
}

// neighbourLocked picks the queue entry delta steps away from the current
// song. found is false when the current song is not in the queue.
func (c *Controller) neighbourLocked(delta int) (target model.Song, found bool, ok bool) {
	if c.current == nil || len(c.queue) == 0 {
		return model.Song{}, false, false
	}
	idx := model.FindSong(c.queue, c.current.ID)
	if idx < 0 {
		return c.queue[0], false, true
	}
	n := len(c.queue)
	return c.queue[((idx+delta)%n+n)%n], true, true
}

// Seek moves the playhead of the current song.
func (c *Controller) Seek(ctx context.Context, position float64) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoSong
	}
	if position < 0 {
		position = 0
	}
	if d := c.current.Duration; d > 0 && position > d {
		position = d
	}

	c.position = position
	var outErr error
	if c.output.Source() != "" {
		if err := c.output.Seek(ctx, position); err != nil {
			logger.Warn("[Player/Seek] Output seek failed", logger.Float64("position", position), logger.ErrorField(err))
			outErr = fmt.Errorf("seek: %w", err)
		}
	}
	c.tracker.Update(position)
	c.commitAndUnlock(false, false)
	return outErr
}

// SetExpanded records whether the full player surface is shown.
func (c *Controller) SetExpanded(expanded bool) {
	c.mu.Lock()
	c.expanded = expanded
	c.commitAndUnlock(false, false)
}

// SetCredentials swaps the credentials. The playing source is kept; the
// next play resolves a new URL and reloads.
func (c *Controller) SetCredentials(creds model.Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
	logger.Info("[Player/SetCredentials] Credentials updated", logger.String("server", creds.BaseURL()))
}

// Credentials returns the credentials in use.
func (c *Controller) Credentials() model.Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// AppendQueue adds songs to the end of the queue, keeping the cursor.
func (c *Controller) AppendQueue(songs []model.Song) {
	if len(songs) == 0 {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, songs...)
	c.commitAndUnlock(false, false)
}

// Restore installs a saved queue and selects currentID without starting
// playback. It does nothing once a song has been chosen.
func (c *Controller) Restore(songs []model.Song, currentID string) bool {
	c.mu.Lock()
	if c.current != nil || len(songs) == 0 {
		c.mu.Unlock()
		return false
	}
	c.queue = append([]model.Song(nil), songs...)
	changed := false
	if i := model.FindSong(c.queue, currentID); i >= 0 {
		changed = c.selectLocked(c.queue[i], false)
		c.status = model.StatusIdle
	}
	c.commitAndUnlock(changed, changed)
	return true
}

// Queue returns a copy of the queue.
func (c *Controller) Queue() []model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Song(nil), c.queue...)
}

// State returns a snapshot of the playback state.
func (c *Controller) State() model.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LyricsView is the lyric state of the current song.
type LyricsView struct {
	SongID string            `json:"songId"`
	Loaded bool              `json:"loaded"`
	Timed  bool              `json:"timed"`
	Lines  []model.LyricLine `json:"lines"`
	Active int               `json:"active"`
}

// Lyrics returns the lyric document of the current song and its active line.
func (c *Controller) Lyrics() LyricsView {
	snap := c.tracker.Snapshot()
	return LyricsView{
		SongID: snap.SongID,
		Loaded: snap.Loaded,
		Timed:  snap.Doc.IsTimed(),
		Lines:  snap.Doc.Lines,
		Active: snap.Active,
	}
}

// Wait blocks until background lyric fetches have finished.
func (c *Controller) Wait() {
	c.bg.Wait()
}

// Run feeds output events into the controller until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	events := c.output.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies one output event. Events for a source that is no
// longer bound are ignored.
func (c *Controller) HandleEvent(ctx context.Context, ev audio.Event) {
	c.mu.Lock()
	if ev.Source != c.output.Source() {
		c.mu.Unlock()
		logger.Debug("[Player/HandleEvent] Ignoring event for stale source", logger.String("type", string(ev.Type)))
		return
	}

	switch ev.Type {
	case audio.EventTick:
		c.position = ev.Position
		c.tracker.Update(ev.Position)
		c.commitAndUnlock(false, false)

	case audio.EventStarted:
		if c.isPlaying && c.status != model.StatusPlaying {
			c.status = model.StatusPlaying
		}
		c.commitAndUnlock(false, false)

	case audio.EventEnded:
		c.handleEndedLocked(ctx)

	case audio.EventError:
		_ = c.failLocked(ev.Err)
		c.commitAndUnlock(false, true)

	default:
		c.mu.Unlock()
	}
}

// handleEndedLocked advances like Next. When the queue would land on the
// same song again playback stops instead of looping it.
func (c *Controller) handleEndedLocked(ctx context.Context) {
	target, _, ok := c.neighbourLocked(1)
	if !ok || target.ID == c.current.ID {
		c.isPlaying = false
		c.status = model.StatusIdle
		c.position = 0
		// rewind the output too, otherwise the next resume starts at the end
		if err := c.output.Seek(ctx, 0); err != nil {
			_ = c.failLocked(err)
		}
		c.commitAndUnlock(false, true)
		return
	}
	c.mu.Unlock()

	if err := c.Next(ctx); err != nil {
		logger.Error("[Player/ended] Auto-advance failed", logger.ErrorField(err))
	}
}

// selectLocked makes song current. It reports whether the song changed.
func (c *Controller) selectLocked(song model.Song, play bool) bool {
	changed := c.current == nil || c.current.ID != song.ID
	s := song
	c.current = &s
	if play {
		c.isPlaying = true
	}
	if changed {
		c.position = 0
		c.tracker.Begin(song.ID)
	}
	return changed
}

// syncOutputLocked binds url to the output. The same URL resumes without
// reloading; a different one stops the old source and loads from zero.
func (c *Controller) syncOutputLocked(ctx context.Context, url string) error {
	if c.output.Source() != url {
		c.position = 0
		c.status = model.StatusLoading
		if err := c.output.Load(ctx, url); err != nil {
			return c.failLocked(err)
		}
		if !c.isPlaying {
			if err := c.output.Pause(ctx); err != nil {
				return c.failLocked(err)
			}
			c.status = model.StatusPaused
		}
		return nil
	}

	if !c.isPlaying {
		return nil
	}
	if err := c.output.Resume(ctx); err != nil {
		return c.failLocked(err)
	}
	if c.status != model.StatusLoading {
		c.status = model.StatusPlaying
	}
	return nil
}

// failLocked moves to idle after an output failure. There is no retry.
func (c *Controller) failLocked(err error) error {
	c.status = model.StatusIdle
	c.isPlaying = false
	songID := ""
	if c.current != nil {
		songID = c.current.ID
	}
	logger.Error("[Player/output] Audio output failed", logger.String("song_id", songID), logger.ErrorField(err))
	return fmt.Errorf("audio output: %w", err)
}

func (c *Controller) snapshotLocked() model.PlaybackState {
	st := model.PlaybackState{
		IsPlaying:   c.isPlaying,
		Position:    c.position,
		IsExpanded:  c.expanded,
		Status:      c.status,
		ActiveLyric: c.tracker.Active(),
		QueueLength: len(c.queue),
	}
	if c.current != nil {
		s := *c.current
		st.CurrentSong = &s
	}
	return st
}

func (c *Controller) nowPlayingLocked() model.NowPlaying {
	if c.current == nil {
		return model.NowPlaying{}
	}
	return model.NowPlaying{
		SongID:    c.current.ID,
		Title:     c.current.Title,
		Artist:    c.current.Artist,
		Album:     c.current.Album,
		Artwork:   subsonic.CoverArtURL(c.creds, c.current.CoverArt, subsonic.DefaultCoverSize),
		IsPlaying: c.isPlaying,
		Position:  c.position,
	}
}

// commitAndUnlock snapshots the state, releases the lock and then runs the
// post-commit work: lyric fetch for a new song, observers, media session.
func (c *Controller) commitAndUnlock(songChanged, publish bool) {
	snap := c.snapshotLocked()
	np := c.nowPlayingLocked()
	creds := c.creds
	c.mu.Unlock()

	if songChanged && snap.CurrentSong != nil {
		c.startLyrics(*snap.CurrentSong, creds)
	}
	c.notify(snap)
	if publish {
		c.publishSession(np)
	}
}

func (c *Controller) startLyrics(song model.Song, creds model.Credentials) {
	if c.lyricsSrc == nil {
		c.tracker.Resolve(song.ID, lyrics.Document{})
		return
	}

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), lyricsFetchTimeout)
		defer cancel()

		var doc lyrics.Document
		if l := c.lyricsSrc.GetLyrics(ctx, creds, song); l != nil {
			doc = lyrics.Parse(l.Content)
		}
		if !c.tracker.Resolve(song.ID, doc) {
			logger.Debug("[Player/lyrics] Discarding lyrics for a song no longer current", logger.String("song_id", song.ID))
			return
		}

		c.mu.Lock()
		c.tracker.Update(c.position)
		c.commitAndUnlock(false, false)

		logger.Debug("[Player/lyrics] Lyrics ready",
			logger.String("song_id", song.ID),
			logger.String("kind", doc.Kind.String()),
			logger.Int("lines", len(doc.Lines)))
	}()
}

func (c *Controller) publishSession(np model.NowPlaying) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()
	if err := c.session.Publish(ctx, np); err != nil {
		logger.Warn("[Player/session] Failed to publish now playing", logger.ErrorField(err))
	}
}

// Subscribe registers an observer. Slow observers miss snapshots rather
// than blocking transitions.
func (c *Controller) Subscribe() <-chan model.PlaybackState {
	ch := make(chan model.PlaybackState, observerBuffer)
	c.obsMu.Lock()
	c.observers[ch] = ch
	c.obsMu.Unlock()
	return ch
}

// Unsubscribe removes an observer and closes its channel.
func (c *Controller) Unsubscribe(ch <-chan model.PlaybackState) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	if w, ok := c.observers[ch]; ok {
		delete(c.observers, ch)
		close(w)
	}
}

func (c *Controller) notify(st model.PlaybackState) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	for _, w := range c.observers {
		select {
		case w <- st:
		default:
		}
	}
}
