// Package notify plays short audio cues when a timer phase completes.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Player produces a single tone. Implementations may fail (no audio device,
// no terminal) and the emitter tolerates that.
type Player interface {
	PlayTone(frequencyHz float64, d time.Duration) error
}

type Tone struct {
	FrequencyHz float64
	Duration    time.Duration
}

var (
	WorkCompleteCue = []Tone{
		{FrequencyHz: 880, Duration: 200 * time.Millisecond},
		{FrequencyHz: 1320, Duration: 200 * time.Millisecond},
	}
	BreakCompleteCue = []Tone{
		{FrequencyHz: 660, Duration: 200 * time.Millisecond},
		{FrequencyHz: 440, Duration: 200 * time.Millisecond},
	}
)

// Emitter plays cues in the background so callers never wait on audio.
type Emitter struct {
	player Player
	logger *log.Logger

	mu      sync.Mutex
	enabled bool
	closed  bool
	wg      sync.WaitGroup
}

func NewEmitter(player Player, enabled bool, logger *log.Logger) *Emitter {
	if player == nil {
		player = NopPlayer{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Emitter{
		player:  player,
		enabled: enabled,
		logger:  logger.WithPrefix("notify"),
	}
}

func (e *Emitter) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
}

func (e *Emitter) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Emitter) WorkComplete() {
	e.play("work complete", WorkCompleteCue)
}

func (e *Emitter) BreakComplete() {
	e.play("break complete", BreakCompleteCue)
}

// Wait blocks until every cue started so far has finished.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

// Close stops accepting cues and waits for the ones already playing.
func (e *Emitter) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Emitter) play(name string, cue []Tone) {
	e.mu.Lock()
	if !e.enabled || e.closed {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Warn("tone player panicked", "cue", name, "panic", r)
			}
		}()

		for _, tone := range cue {
			if err := e.player.PlayTone(tone.FrequencyHz, tone.Duration); err != nil {
				e.logger.Debug("tone unavailable", "cue", name, "hz", tone.FrequencyHz, "err", err)
				return
			}
		}
	}()
}

type NopPlayer struct{}

func (NopPlayer) PlayTone(float64, time.Duration) error { return nil }

// BellPlayer rings the terminal bell once per tone and holds for the tone
// duration. Terminals have no pitch control, so frequency only shows up in
// logs.
type BellPlayer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBellPlayer(w io.Writer) *BellPlayer {
	return &BellPlayer{w: w}
}

func (p *BellPlayer) PlayTone(frequencyHz float64, d time.Duration) error {
	if frequencyHz <= 0 || d <= 0 {
		return fmt.Errorf("invalid tone %.0fHz/%s", frequencyHz, d)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := io.WriteString(p.w, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	time.Sleep(d)
	return nil
}
