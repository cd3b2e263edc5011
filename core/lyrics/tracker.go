package lyrics

import "sync"

// Tracker holds the lyrics of the current song and the active line.
// Fetches are asynchronous: a result is only installed if it belongs to the
// song that is current when it resolves.
type Tracker struct {
	mu     sync.Mutex
	songID string
	doc    Document
	loaded bool
	active int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{active: -1}
}

// Begin switches to a new song and discards the previous document.
func (t *Tracker) Begin(songID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.songID = songID
	t.doc = Document{}
	t.loaded = false
	t.active = -1
}

// Resolve installs doc for songID. Stale results return false.
func (t *Tracker) Resolve(songID string, doc Document) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if songID != t.songID {
		return false
	}
	t.doc = doc
	t.loaded = true
	t.active = -1
	return true
}

// Update recomputes the active line for position and reports a change.
func (t *Tracker) Update(position float64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := ActiveLineIndex(t.doc, position)
	if idx == t.active {
		return idx, false
	}
	t.active = idx
	return idx, true
}

// Active returns the last computed active line.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	SongID string
	Doc    Document
	Loaded bool
	Active int
}

// Snapshot returns every field under one lock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{SongID: t.songID, Doc: t.doc, Loaded: t.loaded, Active: t.active}
}

// Current returns the song id, its document and whether a fetch resolved.
func (t *Tracker) Current() (string, Document, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.songID, t.doc, t.loaded
}
