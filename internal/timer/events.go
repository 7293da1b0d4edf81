package timer

import (
	"time"

	"studytracker/internal/model"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventTick          EventType = "tick"
	EventStateChange   EventType = "state_change"
	EventPhaseComplete EventType = "phase_complete"
	EventCredit        EventType = "credit"
)

// Event is a timer update for observers. State is a copy taken when the
// event was produced.
type Event struct {
	Type  EventType        `json:"type"`
	State model.TimerState `json:"state"`
	// Completed is the phase that just finished, set on EventPhaseComplete.
	Completed model.Phase `json:"completed,omitempty"`
	// Credit and Applied are set on EventCredit.
	Credit  *model.Credit `json:"credit,omitempty"`
	Applied bool          `json:"applied,omitempty"`
	At      time.Time     `json:"at"`
}
