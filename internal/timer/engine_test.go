package timer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"studytracker/internal/logging"
	"studytracker/internal/model"
)

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	ticker := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, ticker)
	return ticker
}

func (c *fakeClock) lastTicker() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

type recordingPersister struct {
	mu      sync.Mutex
	saves   int
	clears  int
	last    model.TimerState
	cleared bool
}

func (p *recordingPersister) SaveSnapshot(state model.TimerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.last = state
	p.cleared = false
}

func (p *recordingPersister) ClearSnapshot() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
	p.cleared = true
}

type recordingAccruer struct {
	mu      sync.Mutex
	credits []model.Credit
}

func (a *recordingAccruer) Apply(credit model.Credit) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.credits = append(a.credits, credit)
	return credit.Minutes > 0
}

func (a *recordingAccruer) all() []model.Credit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Credit(nil), a.credits...)
}

type countingNotifier struct {
	mu            sync.Mutex
	workComplete  int
	breakComplete int
}

func (n *countingNotifier) WorkComplete() {
	n.mu.Lock()
	n.workComplete++
	n.mu.Unlock()
}

func (n *countingNotifier) BreakComplete() {
	n.mu.Lock()
	n.breakComplete++
	n.mu.Unlock()
}

type harness struct {
	engine    *Engine
	clock     *fakeClock
	persister *recordingPersister
	accruer   *recordingAccruer
	notifier  *countingNotifier
}

var mathAlgebra = model.Selection{SubjectID: "math", ModuleID: "algebra"}

func newHarness(t *testing.T, initial model.TimerState) *harness {
	t.Helper()
	h := &harness{
		clock:     &fakeClock{now: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)},
		persister: &recordingPersister{},
		accruer:   &recordingAccruer{},
		notifier:  &countingNotifier{},
	}
	h.engine = New(initial, h.persister, h.accruer, h.notifier, Options{
		Clock:  h.clock,
		Logger: logging.Discard(),
	})
	t.Cleanup(h.engine.Close)
	return h
}

// advance delivers n ticks synchronously to the current ticking generation.
func (h *harness) advance(n int) {
	for i := 0; i < n; i++ {
		h.engine.mu.Lock()
		generation := h.engine.generation
		h.engine.mu.Unlock()
		h.engine.tick(generation)
	}
}

func selectedState() model.TimerState {
	state := model.DefaultTimerState()
	state.Selection = mathAlgebra
	return state
}

func TestStartSetsFullWorkPhase(t *testing.T) {
	for _, minutes := range []int{5, 25, 60} {
		state := model.NewTimerState(minutes, 5)
		state.Selection = mathAlgebra
		state.RemainingSeconds = 17
		h := newHarness(t, state)

		if err := h.engine.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		got := h.engine.State()
		if got.RemainingSeconds != minutes*60 {
			t.Fatalf("expected %d remaining, got %d", minutes*60, got.RemainingSeconds)
		}
		if got.Phase != model.PhaseWork || got.Running != model.RunActive {
			t.Fatalf("expected active work, got %s/%s", got.Phase, got.Running)
		}
		if got.AccumulatedSeconds != 0 {
			t.Fatalf("expected accumulated reset, got %d", got.AccumulatedSeconds)
		}
	}
}

func TestTicksCountDownAndAccumulate(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.advance(100)

	got := h.engine.State()
	if got.AccumulatedSeconds != 100 || got.RemainingSeconds != 1400 {
		t.Fatalf("expected 100 accumulated / 1400 remaining, got %d / %d", got.AccumulatedSeconds, got.RemainingSeconds)
	}
	if h.persister.last != got {
		t.Fatalf("expected snapshot after tick to match state")
	}
	if h.persister.saves < 101 {
		t.Fatalf("expected a save per tick, got %d saves", h.persister.saves)
	}
}

// Scenario A.
func TestWorkCompletionCreditsAndSwitchesToBreak(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.advance(1500)

	got := h.engine.State()
	if got.Phase != model.PhaseBreak || got.Running != model.RunStopped {
		t.Fatalf("expected idle break, got %s/%s", got.Phase, got.Running)
	}
	if got.RemainingSeconds != 300 || got.AccumulatedSeconds != 0 {
		t.Fatalf("expected 300 remaining / 0 accumulated, got %d / %d", got.RemainingSeconds, got.AccumulatedSeconds)
	}

	credits := h.accruer.all()
	if len(credits) != 1 {
		t.Fatalf("expected exactly one credit, got %d", len(credits))
	}
	if credits[0].Minutes != 25 || credits[0].Selection != mathAlgebra {
		t.Fatalf("unexpected credit %+v", credits[0])
	}
	if h.notifier.workComplete != 1 || h.notifier.breakComplete != 0 {
		t.Fatalf("expected one work cue, got %d/%d", h.notifier.workComplete, h.notifier.breakComplete)
	}

	// Extra ticks after completion must not double-credit.
	h.advance(10)
	if len(h.accruer.all()) != 1 {
		t.Fatal("completion credited twice")
	}
	if h.engine.State() != got {
		t.Fatal("stopped timer changed after stray ticks")
	}
}

func TestBreakCompletionReturnsToWorkWithoutCredit(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(1500)

	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start break: %v", err)
	}
	if got := h.engine.State(); got.Phase != model.PhaseBreak || got.RemainingSeconds != 300 {
		t.Fatalf("expected active break of 300s, got %+v", got)
	}
	if err := h.engine.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected pause to be refused during break, got %v", err)
	}

	h.advance(300)

	got := h.engine.State()
	if got.Phase != model.PhaseWork || got.Running != model.RunStopped || got.RemainingSeconds != 1500 {
		t.Fatalf("expected idle work of 1500s, got %+v", got)
	}
	if len(h.accruer.all()) != 1 {
		t.Fatalf("break completion must not credit, got %d credits", len(h.accruer.all()))
	}
	if h.notifier.breakComplete != 1 {
		t.Fatalf("expected one break cue, got %d", h.notifier.breakComplete)
	}
}

// Scenario B.
func TestStopCreditsWholeMinutes(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(125)

	if err := h.engine.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	credits := h.accruer.all()
	if len(credits) != 1 || credits[0].Minutes != 2 {
		t.Fatalf("expected a single 2 minute credit, got %+v", credits)
	}
	assertIdleWork(t, h.engine.State())
	if !h.persister.cleared {
		t.Fatal("expected snapshot slot cleared on stop")
	}
}

// Scenario C.
func TestResetDiscardsTime(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(10)

	h.engine.Reset()

	if credits := h.accruer.all(); len(credits) != 0 {
		t.Fatalf("reset must not credit, got %+v", credits)
	}
	assertIdleWork(t, h.engine.State())
	if !h.persister.cleared {
		t.Fatal("expected snapshot slot cleared on reset")
	}
}

// Scenario D.
func TestStartWithoutSelectionIsRejected(t *testing.T) {
	for _, selection := range []model.Selection{{}, {SubjectID: "math"}} {
		state := model.DefaultTimerState()
		state.Selection = selection
		h := newHarness(t, state)

		if err := h.engine.Start(); !errors.Is(err, ErrNoSelection) {
			t.Fatalf("expected ErrNoSelection, got %v", err)
		}
		if got := h.engine.State(); got != state {
			t.Fatalf("state changed on rejected start: %+v", got)
		}
		if h.clock.lastTicker() != nil {
			t.Fatal("rejected start must not schedule ticks")
		}
	}
}

// Scenario E.
func TestStopAfterSelectionClearedDoesNotCredit(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(180)

	h.engine.Rebind(func(model.Selection) model.Selection { return model.Selection{} })
	if got := h.engine.State(); !got.Selection.IsZero() || got.Running != model.RunActive {
		t.Fatalf("expected cleared selection on a still-active timer, got %+v", got)
	}

	if err := h.engine.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if credits := h.accruer.all(); len(credits) != 0 {
		t.Fatalf("expected no credit without a selection, got %+v", credits)
	}
}

func TestTruncationLaw(t *testing.T) {
	cases := map[int]int{1: 0, 59: 0, 60: 1, 119: 1, 120: 2, 1499: 24}
	for seconds, minutes := range cases {
		h := newHarness(t, selectedState())
		if err := h.engine.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		h.advance(seconds)
		if err := h.engine.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}

		credits := h.accruer.all()
		if len(credits) != 1 || credits[0].Minutes != minutes {
			t.Fatalf("%ds: expected credit of %d minutes, got %+v", seconds, minutes, credits)
		}
	}
}

func TestPauseAndResume(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(30)

	if err := h.engine.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	paused := h.engine.State()
	if paused.Running != model.RunPaused || paused.AccumulatedSeconds != 30 {
		t.Fatalf("unexpected paused state %+v", paused)
	}

	h.advance(50)
	if h.engine.State() != paused {
		t.Fatal("paused timer must not tick")
	}
	if err := h.engine.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected double pause to be refused, got %v", err)
	}

	if err := h.engine.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	h.advance(30)
	if got := h.engine.State(); got.AccumulatedSeconds != 60 || got.RemainingSeconds != 1440 {
		t.Fatalf("expected 60 accumulated after resume, got %+v", got)
	}
	if err := h.engine.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected resume of active timer to be refused, got %v", err)
	}
}

func TestResumeRefusesPausedBreak(t *testing.T) {
	state := selectedState()
	state.Phase = model.PhaseBreak
	state.Running = model.RunPaused
	state.RemainingSeconds = 120
	h := newHarness(t, state)

	if err := h.engine.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected resume of a paused break to be refused, got %v", err)
	}
	if got := h.engine.State(); got.Running != model.RunPaused {
		t.Fatalf("state changed on refused resume: %+v", got)
	}
}

func TestStopWhileIdleIsRejected(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Stop(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStopCancelsPendingTick(t *testing.T) {
	h := newHarness(t, selectedState())
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(5)

	h.engine.mu.Lock()
	stale := h.engine.generation
	h.engine.mu.Unlock()

	if err := h.engine.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	after := h.engine.State()

	// A tick that fired before Stop but ran after it must be discarded.
	h.engine.tick(stale)
	if h.engine.State() != after {
		t.Fatal("stale tick mutated a stopped timer")
	}

	// Even after a restart, the stale generation stays dead.
	if err := h.engine.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	h.engine.tick(stale)
	if got := h.engine.State(); got.RemainingSeconds != 1500 {
		t.Fatalf("stale tick leaked into new run, remaining %d", got.RemainingSeconds)
	}
}

func TestTickerGoroutineDrivesCountdown(t *testing.T) {
	h := newHarness(t, selectedState())
	events := h.engine.Subscribe(16)
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, events, EventStateChange)

	ticker := h.clock.lastTicker()
	if ticker == nil {
		t.Fatal("expected a ticker after start")
	}
	ticker.ch <- time.Now()

	event := waitFor(t, events, EventTick)
	if event.State.RemainingSeconds != 1499 {
		t.Fatalf("expected 1499 remaining, got %d", event.State.RemainingSeconds)
	}

	if err := h.engine.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for !ticker.isStopped() {
		if time.Now().After(deadline) {
			t.Fatal("ticker not stopped after pause")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestChangeDuration(t *testing.T) {
	h := newHarness(t, selectedState())

	if err := h.engine.ChangeDuration(model.PhaseWork, 50); err != nil {
		t.Fatalf("ChangeDuration: %v", err)
	}
	if got := h.engine.State(); got.WorkDurationMinutes != 50 || got.RemainingSeconds != 3000 {
		t.Fatalf("expected idle work reset to 3000s, got %+v", got)
	}

	for _, bad := range []int{0, -1, 4, 61} {
		if err := h.engine.ChangeDuration(model.PhaseWork, bad); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("expected ErrInvalidDuration for %d, got %v", bad, err)
		}
	}
	if err := h.engine.ChangeDuration(model.PhaseBreak, 31); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for long break, got %v", err)
	}
	if err := h.engine.ChangeDuration("nap", 10); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	if got := h.engine.State(); got.WorkDurationMinutes != 50 {
		t.Fatalf("rejected change altered duration: %d", got.WorkDurationMinutes)
	}

	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.engine.ChangeDuration(model.PhaseWork, 30); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected work change refused while active, got %v", err)
	}
	if err := h.engine.ChangeDuration(model.PhaseBreak, 10); err != nil {
		t.Fatalf("break change while working should be allowed: %v", err)
	}
	if got := h.engine.State(); got.RemainingSeconds != 3000 || got.BreakDurationMinutes != 10 {
		t.Fatalf("unexpected state after break change %+v", got)
	}
}

func TestChangeSelection(t *testing.T) {
	h := newHarness(t, model.DefaultTimerState())

	if err := h.engine.ChangeSelection(model.Selection{SubjectID: "math", ModuleID: "algebra", SubtopicID: "groups"}); err != nil {
		t.Fatalf("ChangeSelection: %v", err)
	}
	if err := h.engine.ChangeSelection(model.Selection{ModuleID: "orphan"}); err != nil {
		t.Fatalf("ChangeSelection: %v", err)
	}
	if got := h.engine.State().Selection; !got.IsZero() {
		t.Fatalf("expected orphan module to be dropped, got %+v", got)
	}

	if err := h.engine.ChangeSelection(mathAlgebra); err != nil {
		t.Fatalf("ChangeSelection: %v", err)
	}
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.engine.ChangeSelection(model.Selection{SubjectID: "physics", ModuleID: "optics"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected selection change refused while active, got %v", err)
	}
	if got := h.engine.State().Selection; got != mathAlgebra {
		t.Fatalf("selection changed while active: %+v", got)
	}
}

func TestChangeSelectionDropsStaleChildren(t *testing.T) {
	h := newHarness(t, model.DefaultTimerState())
	full := model.Selection{SubjectID: "math", ModuleID: "algebra", SubtopicID: "groups"}

	steps := []struct {
		name string
		next model.Selection
		want model.Selection
	}{
		{"new subject keeps old module", model.Selection{SubjectID: "physics", ModuleID: "algebra", SubtopicID: "groups"}, model.Selection{SubjectID: "physics"}},
		{"new module keeps old subtopic", model.Selection{SubjectID: "math", ModuleID: "geometry", SubtopicID: "groups"}, model.Selection{SubjectID: "math", ModuleID: "geometry"}},
		{"new subject with its own module", model.Selection{SubjectID: "physics", ModuleID: "optics"}, model.Selection{SubjectID: "physics", ModuleID: "optics"}},
		{"same selection", full, full},
	}
	for _, step := range steps {
		if err := h.engine.ChangeSelection(full); err != nil {
			t.Fatalf("%s: seed: %v", step.name, err)
		}
		if err := h.engine.ChangeSelection(step.next); err != nil {
			t.Fatalf("%s: ChangeSelection: %v", step.name, err)
		}
		if got := h.engine.State().Selection; got != step.want {
			t.Fatalf("%s: expected %+v, got %+v", step.name, step.want, got)
		}
	}
}

func TestRecoverRestartsActiveSnapshot(t *testing.T) {
	state := selectedState()
	state.Running = model.RunActive
	state.RemainingSeconds = 61
	state.AccumulatedSeconds = 1439
	h := newHarness(t, state)

	h.engine.Recover()
	if h.clock.lastTicker() == nil {
		t.Fatal("expected ticking after recover")
	}

	h.advance(61)
	credits := h.accruer.all()
	if len(credits) != 1 || credits[0].Minutes != 25 {
		t.Fatalf("expected 25 minute credit after recovery, got %+v", credits)
	}
}

func TestRecoverCompletesExhaustedPhase(t *testing.T) {
	state := selectedState()
	state.Running = model.RunActive
	state.RemainingSeconds = 0
	state.AccumulatedSeconds = 1500
	h := newHarness(t, state)

	h.engine.Recover()

	if got := h.engine.State(); got.Phase != model.PhaseBreak || got.Running != model.RunStopped {
		t.Fatalf("expected completed work phase, got %+v", got)
	}
	if credits := h.accruer.all(); len(credits) != 1 || credits[0].Minutes != 25 {
		t.Fatalf("unexpected credits %+v", credits)
	}
}

func TestRecoverIgnoresIdleState(t *testing.T) {
	h := newHarness(t, selectedState())
	h.engine.Recover()
	if h.clock.lastTicker() != nil {
		t.Fatal("idle state must not start ticking")
	}
}

func TestCreditEventFollowsStop(t *testing.T) {
	h := newHarness(t, selectedState())
	events := h.engine.Subscribe(128)
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.advance(61)
	if err := h.engine.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	event := waitFor(t, events, EventCredit)
	if event.Credit == nil || event.Credit.Minutes != 1 || !event.Applied {
		t.Fatalf("unexpected credit event %+v", event)
	}
}

func TestCloseReleasesSubscribers(t *testing.T) {
	h := newHarness(t, selectedState())
	events := h.engine.Subscribe(1)
	h.engine.Close()

	if _, ok := <-events; ok {
		t.Fatal("expected closed channel")
	}
	if err := h.engine.Start(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	late := h.engine.Subscribe(1)
	if _, ok := <-late; ok {
		t.Fatal("expected subscription after close to be closed")
	}
}

func assertIdleWork(t *testing.T, got model.TimerState) {
	t.Helper()
	if got.Phase != model.PhaseWork || got.Running != model.RunStopped {
		t.Fatalf("expected idle work, got %s/%s", got.Phase, got.Running)
	}
	if got.RemainingSeconds != 1500 || got.AccumulatedSeconds != 0 {
		t.Fatalf("expected 1500 remaining / 0 accumulated, got %d / %d", got.RemainingSeconds, got.AccumulatedSeconds)
	}
}

func waitFor(t *testing.T, events <-chan Event, eventType EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed waiting for %s", eventType)
			}
			if event.Type == eventType {
				return event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}
