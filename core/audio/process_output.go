package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"GeminiStream/logger"
)

const (
	defaultTickInterval = 250 * time.Millisecond
	eventBufferSize     = 64
)

// ArgsFunc builds the player command line for url starting at offset seconds.
type ArgsFunc func(url string, offset float64) []string

// FFplayArgs plays url headless and exits when the stream ends.
func FFplayArgs(url string, offset float64) []string {
	args := []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset, 'f', 3, 64))
	}
	return append(args, url)
}

// ProcessOutput plays audio through an external player process (ffplay by
// default). Pausing kills the process and resuming restarts it at the clock
// position, so any player that can seek on start works.
type ProcessOutput struct {
	playerPath   string
	buildArgs    ArgsFunc
	tickInterval time.Duration

	mu     sync.Mutex
	source string
	cmd    *exec.Cmd
	gen    int // bumped whenever a process is stopped on purpose
	clock  *Clock
	events chan Event
}

// NewProcessOutput creates an output driving playerPath.
func NewProcessOutput(playerPath string) *ProcessOutput {
	return &ProcessOutput{
		playerPath:   playerPath,
		buildArgs:    FFplayArgs,
		tickInterval: defaultTickInterval,
		clock:        NewClock(nil),
		events:       make(chan Event, eventBufferSize),
	}
}

// SetArgsFunc swaps the command line builder, for players other than ffplay.
func (p *ProcessOutput) SetArgsFunc(fn ArgsFunc) {
	p.mu.Lock()
	p.buildArgs = fn
	p.mu.Unlock()
}

func (p *ProcessOutput) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *ProcessOutput) Events() <-chan Event {
	return p.events
}

func (p *ProcessOutput) Load(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.source = url
	p.clock.Reset(0)
	return p.startLocked(0)
}

func (p *ProcessOutput) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == "" {
		return ErrNoSource
	}
	if p.cmd != nil {
		return nil
	}
	return p.startLocked(p.clock.Position())
}

func (p *ProcessOutput) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	return nil
}

func (p *ProcessOutput) Seek(ctx context.Context, position float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == "" {
		return ErrNoSource
	}
	wasRunning := p.cmd != nil
	p.stopLocked()
	p.clock.Reset(position)
	if wasRunning {
		return p.startLocked(position)
	}
	return nil
}

func (p *ProcessOutput) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.source = ""
	p.clock.Reset(0)
	return nil
}

// Position reports the clock position of the bound source.
func (p *ProcessOutput) Position() float64 {
	return p.clock.Position()
}

// Run emits tick events until ctx is done.
func (p *ProcessOutput) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return
		case <-ticker.C:
			p.mu.Lock()
			running := p.cmd != nil
			src := p.source
			p.mu.Unlock()
			if running {
				p.emit(Event{Type: EventTick, Source: src, Position: p.clock.Position()})
			}
		}
	}
}

func (p *ProcessOutput) startLocked(offset float64) error {
	args := p.buildArgs(p.source, offset)
	cmd := exec.Command(p.playerPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("[Audio/start] Executing player command",
		logger.String("player", p.playerPath),
		logger.String("args", redactArgs(args)),
		logger.Float64("offset", offset))

	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("start %s: %w", p.playerPath, err)
		p.emit(Event{Type: EventError, Source: p.source, Err: err})
		return err
	}

	p.gen++
	gen := p.gen
	src := p.source
	p.cmd = cmd
	p.clock.Start()
	p.emit(Event{Type: EventStarted, Source: src, Position: offset})

	go p.wait(cmd, gen, src, &stderr)
	return nil
}

func (p *ProcessOutput) wait(cmd *exec.Cmd, gen int, src string, stderr *bytes.Buffer) {
	err := cmd.Wait()

	p.mu.Lock()
	if gen != p.gen {
		// stopped on purpose, a newer process or a pause owns the state
		p.mu.Unlock()
		return
	}
	p.cmd = nil
	p.clock.Pause()
	pos := p.clock.Position()
	p.mu.Unlock()

	if err != nil {
		logger.Error("[Audio/wait] Player exited with error",
			logger.ErrorField(err),
			logger.String("stderr", strings.TrimSpace(stderr.String())))
		p.emit(Event{Type: EventError, Source: src, Position: pos, Err: fmt.Errorf("player exited: %w", err)})
		return
	}
	p.emit(Event{Type: EventEnded, Source: src, Position: pos})
}

func (p *ProcessOutput) stopLocked() {
	if p.cmd == nil {
		return
	}
	p.gen++
	if p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			logger.Warn("[Audio/stop] Failed to kill player", logger.ErrorField(err))
		}
	}
	p.cmd = nil
	p.clock.Pause()
}

func (p *ProcessOutput) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
		logger.Warn("[Audio/emit] Event channel full, dropping event", logger.String("type", string(ev.Type)))
	}
}

// redactArgs drops the trailing URL, it carries the auth token.
func redactArgs(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.Join(args[:len(args)-1], " ")
}
