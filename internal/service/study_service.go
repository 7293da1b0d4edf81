package service

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"studytracker/internal/binder"
	"studytracker/internal/catalog"
	"studytracker/internal/config"
	apperrors "studytracker/internal/errors"
	"studytracker/internal/model"
	"studytracker/internal/stats"
	"studytracker/internal/timer"
)

type HistoryReader interface {
	History() []model.StudySession
}

type SoundToggle interface {
	SetEnabled(enabled bool)
}

type Dependencies struct {
	Engine          *timer.Engine
	Catalog         *catalog.Catalog
	History         HistoryReader
	Sound           SoundToggle
	Preferences     config.Preferences
	PreferencesPath string
	Logger          *log.Logger
	Now             func() time.Time
	Location        *time.Location
}

// StudyService is the facade the HTTP handlers and the terminal UI drive.
type StudyService struct {
	engine   *timer.Engine
	catalog  *catalog.Catalog
	history  HistoryReader
	sound    SoundToggle
	logger   *log.Logger
	now      func() time.Time
	location *time.Location

	prefsMu   sync.Mutex
	prefs     config.Preferences
	prefsPath string
}

type TimerView struct {
	State       model.TimerState `json:"state"`
	ProgressPct int              `json:"progress"`
	CanStart    bool             `json:"canStart"`
}

type ReviewsView struct {
	Flagged     []catalog.ReviewItem `json:"flagged"`
	Due         []model.Module       `json:"due"`
	MostStudied []model.Module       `json:"mostStudied"`
}

func NewStudyService(deps Dependencies) *StudyService {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &StudyService{
		engine:    deps.Engine,
		catalog:   deps.Catalog,
		history:   deps.History,
		sound:     deps.Sound,
		logger:    deps.Logger.WithPrefix("service"),
		now:       deps.Now,
		location:  deps.Location,
		prefs:     deps.Preferences,
		prefsPath: deps.PreferencesPath,
	}
}

func (s *StudyService) Timer() TimerView {
	return viewOf(s.engine.State())
}

func (s *StudyService) Start() (*TimerView, *apperrors.APIError) {
	return s.transition(s.engine.Start)
}

func (s *StudyService) Pause() (*TimerView, *apperrors.APIError) {
	return s.transition(s.engine.Pause)
}

func (s *StudyService) Resume() (*TimerView, *apperrors.APIError) {
	return s.transition(s.engine.Resume)
}

func (s *StudyService) Stop() (*TimerView, *apperrors.APIError) {
	return s.transition(s.engine.Stop)
}

func (s *StudyService) Reset() (*TimerView, *apperrors.APIError) {
	return s.transition(func() error {
		s.engine.Reset()
		return nil
	})
}

// ChangeDuration updates a phase length and remembers it in the
// preferences file.
func (s *StudyService) ChangeDuration(phase model.Phase, minutes int) (*TimerView, *apperrors.APIError) {
	view, apiErr := s.transition(func() error {
		return s.engine.ChangeDuration(phase, minutes)
	})
	if apiErr != nil {
		return nil, apiErr
	}

	s.updatePreferences(func(prefs *config.Preferences) {
		if phase == model.PhaseWork {
			prefs.WorkDurationMinutes = minutes
		} else {
			prefs.BreakDurationMinutes = minutes
		}
	})
	return view, nil
}

// ChangeSelection selects a subject, module and subtopic by id. Ids that do
// not exist in the catalog are rejected.
func (s *StudyService) ChangeSelection(selection model.Selection) (*TimerView, *apperrors.APIError) {
	selection = selection.Normalize()
	if resolved := binder.Resolve(selection, s.catalog); resolved != selection {
		return nil, apperrors.NotFound("selection_not_found", "selected subject, topic or subtopic does not exist")
	}
	return s.transition(func() error {
		return s.engine.ChangeSelection(selection)
	})
}

func (s *StudyService) SetSoundEnabled(enabled bool) config.Preferences {
	if s.sound != nil {
		s.sound.SetEnabled(enabled)
	}
	return s.updatePreferences(func(prefs *config.Preferences) {
		prefs.SoundEnabled = enabled
	})
}

func (s *StudyService) Preferences() config.Preferences {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	return s.prefs
}

func (s *StudyService) Subscribe(buffer int) <-chan timer.Event {
	return s.engine.Subscribe(buffer)
}

func (s *StudyService) Unsubscribe(events <-chan timer.Event) {
	s.engine.Unsubscribe(events)
}

func (s *StudyService) History() []model.StudySession {
	sessions := s.history.History()
	if sessions == nil {
		return []model.StudySession{}
	}
	return sessions
}

func (s *StudyService) Stats() stats.Summary {
	return stats.Summarize(s.history.History(), s.now(), s.location)
}

func (s *StudyService) Reviews() ReviewsView {
	return ReviewsView{
		Flagged:     nonNil(s.catalog.ReviewList()),
		Due:         nonNil(s.catalog.DueForReview(s.now())),
		MostStudied: nonNil(s.catalog.MostStudied(5)),
	}
}

func (s *StudyService) transition(apply func() error) (*TimerView, *apperrors.APIError) {
	if err := apply(); err != nil {
		return nil, timerError(err, s.engine.State())
	}
	view := viewOf(s.engine.State())
	return &view, nil
}

func (s *StudyService) updatePreferences(update func(prefs *config.Preferences)) config.Preferences {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()

	update(&s.prefs)
	if s.prefsPath == "" {
		return s.prefs
	}
	if err := config.SavePreferences(s.prefsPath, s.prefs); err != nil {
		s.logger.Warn("save preferences failed", "path", s.prefsPath, "err", err)
	}
	return s.prefs
}

func viewOf(state model.TimerState) TimerView {
	total := state.PhaseSeconds()
	progress := 0
	if total > 0 {
		progress = (total - state.RemainingSeconds) * 100 / total
	}
	return TimerView{
		State:       state,
		ProgressPct: progress,
		CanStart:    state.Running == model.RunStopped && state.Selection.Complete(),
	}
}

func timerError(err error, state model.TimerState) *apperrors.APIError {
	switch {
	case errors.Is(err, timer.ErrNoSelection):
		return apperrors.Conflict("selection_required", "select a subject and topic before starting", nil)
	case errors.Is(err, timer.ErrInvalidTransition):
		return apperrors.Conflict("invalid_transition", "action not allowed in the current timer state", map[string]any{"state": state})
	case errors.Is(err, timer.ErrInvalidDuration):
		return apperrors.BadRequest("invalid_duration", "duration out of range (work 5-60, break 1-30 minutes)")
	case errors.Is(err, timer.ErrInvalidPhase):
		return apperrors.BadRequest("invalid_phase", "phase must be work or break")
	case errors.Is(err, timer.ErrClosed):
		return apperrors.Unavailable("timer_closed", "timer is shutting down")
	default:
		return apperrors.Internal("")
	}
}

func catalogError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return apperrors.NotFound("not_found", "catalog entry not found")
	case errors.Is(err, catalog.ErrInvalidName):
		return apperrors.BadRequest("invalid_name", "name is required")
	case errors.Is(err, catalog.ErrInvalidGoal):
		return apperrors.BadRequest("invalid_goal", "goal must not be negative")
	default:
		return apperrors.Internal("")
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
