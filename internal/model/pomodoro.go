package model

type Phase string

type RunState string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"

	RunStopped RunState = "stopped"
	RunActive  RunState = "active"
	RunPaused  RunState = "paused"
)

const (
	DefaultWorkDurationMinutes  = 25
	DefaultBreakDurationMinutes = 5

	MinWorkDurationMinutes  = 5
	MaxWorkDurationMinutes  = 60
	MinBreakDurationMinutes = 1
	MaxBreakDurationMinutes = 30
)

type Selection struct {
	SubjectID  string `json:"subjectId"`
	ModuleID   string `json:"topicId"`
	SubtopicID string `json:"subtopicId,omitempty"`
}

// Complete reports whether the selection names both a subject and a module,
// which is the precondition for starting the timer.
func (s Selection) Complete() bool {
	return s.SubjectID != "" && s.ModuleID != ""
}

func (s Selection) IsZero() bool {
	return s.SubjectID == "" && s.ModuleID == "" && s.SubtopicID == ""
}

// Normalize drops nested ids whose parent level is empty.
func (s Selection) Normalize() Selection {
	if s.SubjectID == "" {
		return Selection{}
	}
	if s.ModuleID == "" {
		s.SubtopicID = ""
	}
	return s
}

// WithSubject selects a subject; any module or subtopic is dropped.
func (s Selection) WithSubject(id string) Selection {
	return Selection{SubjectID: id}
}

// WithModule selects a module under the current subject and drops the subtopic.
func (s Selection) WithModule(id string) Selection {
	return Selection{SubjectID: s.SubjectID, ModuleID: id}.Normalize()
}

// Change replaces s with next. Ids carried over from s are dropped when
// their parent changed: a new subject drops the old module and subtopic, a
// new module drops the old subtopic.
func (s Selection) Change(next Selection) Selection {
	next = next.Normalize()
	if next.SubjectID != s.SubjectID && next.ModuleID == s.ModuleID {
		next.ModuleID = ""
		next.SubtopicID = ""
	}
	if next.ModuleID != s.ModuleID && next.SubtopicID == s.SubtopicID {
		next.SubtopicID = ""
	}
	return next
}

func (s Selection) WithSubtopic(id string) Selection {
	s.SubtopicID = id
	return s.Normalize()
}

type TimerState struct {
	Phase                Phase     `json:"phase"`
	Running              RunState  `json:"running"`
	RemainingSeconds     int       `json:"remainingSeconds"`
	AccumulatedSeconds   int       `json:"accumulatedSeconds"`
	WorkDurationMinutes  int       `json:"workDurationMinutes"`
	BreakDurationMinutes int       `json:"breakDurationMinutes"`
	Selection            Selection `json:"selection"`
}

func DefaultTimerState() TimerState {
	return NewTimerState(DefaultWorkDurationMinutes, DefaultBreakDurationMinutes)
}

func NewTimerState(workMinutes, breakMinutes int) TimerState {
	if !ValidDuration(PhaseWork, workMinutes) {
		workMinutes = DefaultWorkDurationMinutes
	}
	if !ValidDuration(PhaseBreak, breakMinutes) {
		breakMinutes = DefaultBreakDurationMinutes
	}
	return TimerState{
		Phase:                PhaseWork,
		Running:              RunStopped,
		RemainingSeconds:     workMinutes * 60,
		WorkDurationMinutes:  workMinutes,
		BreakDurationMinutes: breakMinutes,
	}
}

func (s TimerState) DurationMinutes(phase Phase) int {
	if phase == PhaseBreak {
		return s.BreakDurationMinutes
	}
	return s.WorkDurationMinutes
}

func (s TimerState) PhaseSeconds() int {
	return s.DurationMinutes(s.Phase) * 60
}

func ValidPhase(phase Phase) bool {
	return phase == PhaseWork || phase == PhaseBreak
}

func ValidDuration(phase Phase, minutes int) bool {
	switch phase {
	case PhaseWork:
		return minutes >= MinWorkDurationMinutes && minutes <= MaxWorkDurationMinutes
	case PhaseBreak:
		return minutes >= MinBreakDurationMinutes && minutes <= MaxBreakDurationMinutes
	default:
		return false
	}
}

// Snapshot is the persisted form of TimerState used for reload recovery.
type Snapshot struct {
	Running              bool      `json:"running"`
	Paused               bool      `json:"paused"`
	Phase                Phase     `json:"phase"`
	RemainingSeconds     int       `json:"remainingSeconds"`
	Selection            Selection `json:"selection"`
	WorkDurationMinutes  int       `json:"workDurationMinutes"`
	BreakDurationMinutes int       `json:"breakDurationMinutes"`
	AccumulatedSeconds   int       `json:"accumulatedSeconds"`
}

func SnapshotOf(state TimerState) Snapshot {
	return Snapshot{
		Running:              state.Running == RunActive,
		Paused:               state.Running == RunPaused,
		Phase:                state.Phase,
		RemainingSeconds:     state.RemainingSeconds,
		Selection:            state.Selection,
		WorkDurationMinutes:  state.WorkDurationMinutes,
		BreakDurationMinutes: state.BreakDurationMinutes,
		AccumulatedSeconds:   state.AccumulatedSeconds,
	}
}

func (s Snapshot) State() TimerState {
	running := RunStopped
	switch {
	case s.Paused:
		running = RunPaused
	case s.Running:
		running = RunActive
	}
	return TimerState{
		Phase:                s.Phase,
		Running:              running,
		RemainingSeconds:     s.RemainingSeconds,
		AccumulatedSeconds:   s.AccumulatedSeconds,
		WorkDurationMinutes:  s.WorkDurationMinutes,
		BreakDurationMinutes: s.BreakDurationMinutes,
		Selection:            s.Selection,
	}
}

// Credit is a whole-minute amount of study time owed to a selection.
type Credit struct {
	Selection
	Minutes int `json:"minutes"`
}
