package audio

import (
	"testing"
	"time"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestClock(t *testing.T) {
	fn := &fakeNow{t: time.Unix(1000, 0)}
	c := NewClock(fn.now)

	if got := c.Position(); got != 0 {
		t.Fatalf("new clock position = %v, want 0", got)
	}

	fn.advance(time.Second)
	if got := c.Position(); got != 0 {
		t.Fatalf("stopped clock advanced to %v", got)
	}

	c.Start()
	fn.advance(1500 * time.Millisecond)
	if got := c.Position(); got != 1.5 {
		t.Fatalf("position = %v, want 1.5", got)
	}

	c.Pause()
	fn.advance(10 * time.Second)
	if got := c.Position(); got != 1.5 {
		t.Fatalf("paused position = %v, want 1.5", got)
	}

	c.Start()
	c.Start() // no-op while running
	fn.advance(500 * time.Millisecond)
	if got := c.Position(); got != 2 {
		t.Fatalf("position = %v, want 2", got)
	}

	c.Reset(42)
	if c.Running() {
		t.Fatal("Reset should stop the clock")
	}
	if got := c.Position(); got != 42 {
		t.Fatalf("position after reset = %v, want 42", got)
	}

	c.Reset(-3)
	if got := c.Position(); got != 0 {
		t.Fatalf("negative reset = %v, want 0", got)
	}
}

func TestFFplayArgs(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		want   []string
	}{
		{"from start", 0, []string{"-nodisp", "-autoexit", "-loglevel", "error", "http://x/s"}},
		{"with offset", 12.5, []string{"-nodisp", "-autoexit", "-loglevel", "error", "-ss", "12.500", "http://x/s"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := FFplayArgs("http://x/s", tc.offset)
			if len(got) != len(tc.want) {
				t.Fatalf("args = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("args = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestRedactArgs(t *testing.T) {
	if got := redactArgs([]string{"-nodisp", "http://x/rest/stream?p=secret"}); got != "-nodisp" {
		t.Fatalf("redactArgs = %q", got)
	}
	if got := redactArgs(nil); got != "" {
		t.Fatalf("redactArgs(nil) = %q", got)
	}
}
