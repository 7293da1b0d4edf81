// Package timer implements the Pomodoro session state machine.
//
// The Engine owns a single model.TimerState. All transitions are serialised
// by one mutex and a single ticker goroutine drives the countdown while the
// timer is active. Leaving the active state cancels the ticker and bumps a
// generation counter, so a tick that already fired but lost the race for the
// lock is discarded instead of decrementing a stopped timer.
package timer

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"studytracker/internal/model"
)

var (
	ErrNoSelection       = errors.New("a subject and topic must be selected")
	ErrInvalidTransition = errors.New("transition not allowed in the current timer state")
	ErrInvalidDuration   = errors.New("duration out of range")
	ErrInvalidPhase      = errors.New("unknown phase")
	ErrClosed            = errors.New("timer engine closed")
)

// Persister stores snapshots for reload recovery. Implementations must not
// fail loudly; the engine ignores persistence outcomes.
type Persister interface {
	SaveSnapshot(state model.TimerState)
	ClearSnapshot()
}

// Accruer credits study minutes to the catalog and reports whether the
// credit landed.
type Accruer interface {
	Apply(credit model.Credit) bool
}

// Notifier announces phase completion. Calls must not block.
type Notifier interface {
	WorkComplete()
	BreakComplete()
}

type Options struct {
	TickInterval time.Duration
	Clock        Clock
	Logger       *log.Logger
}

type Engine struct {
	mu        sync.Mutex
	state     model.TimerState
	options   Options
	persister Persister
	accruer   Accruer
	notifier  Notifier
	logger    *log.Logger

	generation uint64
	stopTick   chan struct{}
	events     []chan Event
	closed     bool
}

// New creates an engine starting from initial, typically a restored
// snapshot. Ticking does not begin until Start, Resume or Recover.
func New(initial model.TimerState, persister Persister, accruer Accruer, notifier Notifier, options Options) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Clock == nil {
		options.Clock = SystemClock()
	}
	if options.Logger == nil {
		options.Logger = log.Default()
	}
	if persister == nil {
		persister = nopPersister{}
	}
	if accruer == nil {
		accruer = nopAccruer{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &Engine{
		state:     initial,
		options:   options,
		persister: persister,
		accruer:   accruer,
		notifier:  notifier,
		logger:    options.Logger.WithPrefix("timer"),
	}
}

// State returns a copy of the current timer state.
func (e *Engine) State() model.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers a new observer channel. Slow observers miss events
// rather than stall the engine.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.events = append(e.events, ch)
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (e *Engine) Unsubscribe(ch <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, candidate := range e.events {
		if candidate == ch {
			e.events = append(e.events[:i], e.events[i+1:]...)
			close(candidate)
			return
		}
	}
}

// Start begins the current phase from its full duration.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.state.Running != model.RunStopped {
		return ErrInvalidTransition
	}
	if !e.state.Selection.Complete() {
		return ErrNoSelection
	}

	e.state.RemainingSeconds = e.state.PhaseSeconds()
	e.state.AccumulatedSeconds = 0
	e.state.Running = model.RunActive
	e.startTickingLocked()
	e.persistLocked()
	e.emitLocked(e.eventLocked(EventStateChange))
	e.logger.Debug("started", "phase", e.state.Phase, "seconds", e.state.RemainingSeconds)
	return nil
}

// Pause freezes an active work phase.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Running != model.RunActive || e.state.Phase != model.PhaseWork {
		return ErrInvalidTransition
	}

	e.stopTickingLocked()
	e.state.Running = model.RunPaused
	e.persistLocked()
	e.emitLocked(e.eventLocked(EventStateChange))
	return nil
}

// Resume continues a paused work phase.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.state.Running != model.RunPaused || e.state.Phase != model.PhaseWork {
		return ErrInvalidTransition
	}

	e.state.Running = model.RunActive
	e.startTickingLocked()
	e.persistLocked()
	e.emitLocked(e.eventLocked(EventStateChange))
	return nil
}

// Stop ends an active or paused phase, credits whole minutes accumulated in
// a work phase, and returns the timer to an idle work phase.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state.Running == model.RunStopped {
		e.mu.Unlock()
		return ErrInvalidTransition
	}

	credit, owed := e.takeCreditLocked()
	e.stopTickingLocked()
	e.resetLocked()
	e.persister.ClearSnapshot()
	e.emitLocked(e.eventLocked(EventStateChange))
	e.mu.Unlock()

	if owed {
		e.settle(credit)
	}
	return nil
}

// Reset abandons the current phase without crediting any time.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTickingLocked()
	e.resetLocked()
	e.persister.ClearSnapshot()
	e.emitLocked(e.eventLocked(EventStateChange))
}

// ChangeDuration updates the configured length of a phase. It is refused
// while that phase is running or paused.
func (e *Engine) ChangeDuration(phase model.Phase, minutes int) error {
	if !model.ValidPhase(phase) {
		return ErrInvalidPhase
	}
	if !model.ValidDuration(phase, minutes) {
		return ErrInvalidDuration
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idle := e.state.Running == model.RunStopped
	if !idle && e.state.Phase == phase {
		return ErrInvalidTransition
	}

	if phase == model.PhaseWork {
		e.state.WorkDurationMinutes = minutes
	} else {
		e.state.BreakDurationMinutes = minutes
	}
	if idle && e.state.Phase == phase {
		e.state.RemainingSeconds = minutes * 60
	}
	e.persistLocked()
	e.emitLocked(e.eventLocked(EventStateChange))
	return nil
}

// ChangeSelection replaces the selection while the timer is idle. Module and
// subtopic ids left over from a different subject or module are cleared.
func (e *Engine) ChangeSelection(selection model.Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Running != model.RunStopped {
		return ErrInvalidTransition
	}

	e.state.Selection = e.state.Selection.Change(selection)
	e.persistLocked()
	e.emitLocked(e.eventLocked(EventStateChange))
	return nil
}

// Rebind lets the selection binder repair the selection in any state. The
// resolve function runs under the engine lock and must not call back into
// the engine.
func (e *Engine) Rebind(resolve func(model.Selection) model.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := resolve(e.state.Selection).Normalize()
	if next == e.state.Selection {
		return
	}
	e.logger.Info("selection rebound", "from", e.state.Selection, "to", next)
	e.state.Selection = next
	e.persistLocked()
	e.emitLocked(e.eventLocked(EventStateChange))
}

// Recover resumes ticking for a state restored as active.
func (e *Engine) Recover() {
	e.mu.Lock()
	if e.closed || e.state.Running != model.RunActive || e.stopTick != nil {
		e.mu.Unlock()
		return
	}

	if e.state.RemainingSeconds <= 0 {
		after := e.completePhaseLocked()
		e.mu.Unlock()
		after()
		return
	}

	e.startTickingLocked()
	e.logger.Info("recovered active timer", "phase", e.state.Phase, "remaining", e.state.RemainingSeconds)
	e.mu.Unlock()
}

// Close stops ticking and releases observers. The last snapshot is left in
// place so the session can be recovered later.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.stopTickingLocked()
	for _, ch := range e.events {
		close(ch)
	}
	e.events = nil
}

func (e *Engine) run(generation uint64, ticker Ticker, stop <-chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			e.tick(generation)
		}
	}
}

func (e *Engine) tick(generation uint64) {
	e.mu.Lock()
	if generation != e.generation || e.state.Running != model.RunActive {
		e.mu.Unlock()
		return
	}

	e.state.RemainingSeconds--
	if e.state.Phase == model.PhaseWork {
		e.state.AccumulatedSeconds++
	}

	if e.state.RemainingSeconds > 0 {
		e.persistLocked()
		e.emitLocked(e.eventLocked(EventTick))
		e.mu.Unlock()
		return
	}

	after := e.completePhaseLocked()
	e.mu.Unlock()
	after()
}

// completePhaseLocked flips the phase and halts the timer. The returned
// function performs the side effects that must run without the lock.
func (e *Engine) completePhaseLocked() func() {
	completed := e.state.Phase
	credit, owed := e.takeCreditLocked()

	e.stopTickingLocked()
	if completed == model.PhaseWork {
		e.state.Phase = model.PhaseBreak
	} else {
		e.state.Phase = model.PhaseWork
	}
	e.state.RemainingSeconds = e.state.PhaseSeconds()
	e.state.AccumulatedSeconds = 0
	e.state.Running = model.RunStopped
	e.persistLocked()

	event := e.eventLocked(EventPhaseComplete)
	event.Completed = completed
	e.emitLocked(event)
	e.logger.Info("phase complete", "phase", completed, "creditMinutes", credit.Minutes)

	return func() {
		if completed == model.PhaseWork {
			e.notifier.WorkComplete()
		} else {
			e.notifier.BreakComplete()
		}
		if owed {
			e.settle(credit)
		}
	}
}

// takeCreditLocked converts accumulated work seconds into a credit and zeroes
// the accumulator, so each phase can be credited at most once.
func (e *Engine) takeCreditLocked() (model.Credit, bool) {
	seconds := e.state.AccumulatedSeconds
	e.state.AccumulatedSeconds = 0

	if e.state.Phase != model.PhaseWork || seconds <= 0 || !e.state.Selection.Complete() {
		return model.Credit{}, false
	}
	return model.Credit{Selection: e.state.Selection, Minutes: seconds / 60}, true
}

func (e *Engine) settle(credit model.Credit) {
	applied := e.accruer.Apply(credit)

	e.mu.Lock()
	defer e.mu.Unlock()
	event := e.eventLocked(EventCredit)
	event.Credit = &credit
	event.Applied = applied
	e.emitLocked(event)
}

func (e *Engine) resetLocked() {
	e.state.Phase = model.PhaseWork
	e.state.Running = model.RunStopped
	e.state.RemainingSeconds = e.state.WorkDurationMinutes * 60
	e.state.AccumulatedSeconds = 0
}

func (e *Engine) startTickingLocked() {
	e.stopTickingLocked()

	stop := make(chan struct{})
	e.stopTick = stop
	ticker := e.options.Clock.NewTicker(e.options.TickInterval)
	go e.run(e.generation, ticker, stop)
}

func (e *Engine) stopTickingLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
	e.generation++
}

func (e *Engine) persistLocked() {
	e.persister.SaveSnapshot(e.state)
}

func (e *Engine) eventLocked(eventType EventType) Event {
	return Event{
		Type:  eventType,
		State: e.state,
		At:    e.options.Clock.Now(),
	}
}

func (e *Engine) emitLocked(event Event) {
	for _, ch := range e.events {
		select {
		case ch <- event:
		default:
		}
	}
}

type nopPersister struct{}

func (nopPersister) SaveSnapshot(model.TimerState) {}
func (nopPersister) ClearSnapshot()                {}

type nopAccruer struct{}

func (nopAccruer) Apply(model.Credit) bool { return false }

type nopNotifier struct{}

func (nopNotifier) WorkComplete()  {}
func (nopNotifier) BreakComplete() {}
