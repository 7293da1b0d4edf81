// Package accrual applies timer credits to the subject catalog and the
// study history log.
package accrual

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"studytracker/internal/model"
)

// Ledger is the catalog write used for crediting. Credit reports false when
// the subject or module no longer exists.
type Ledger interface {
	Credit(subjectID, moduleID, subtopicID string, minutes int, at time.Time) bool
}

type HistoryWriter interface {
	AppendHistory(entry model.StudySession, now time.Time)
}

// UpdateFunc is called once for every credit that lands in the catalog.
type UpdateFunc func(credit model.Credit)

type Synchronizer struct {
	ledger  Ledger
	history HistoryWriter
	now     func() time.Time
	logger  *log.Logger

	mu        sync.Mutex
	callbacks []UpdateFunc
}

func NewSynchronizer(ledger Ledger, history HistoryWriter, now func() time.Time, logger *log.Logger) *Synchronizer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{
		ledger:  ledger,
		history: history,
		now:     now,
		logger:  logger.WithPrefix("accrual"),
	}
}

// OnTimeUpdate registers a callback fired after each applied credit.
func (s *Synchronizer) OnTimeUpdate(fn UpdateFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Apply credits minutes to the selected subject, module and optional
// subtopic. Zero-minute credits and credits for ids that have disappeared
// from the catalog are dropped without error.
func (s *Synchronizer) Apply(credit model.Credit) bool {
	if credit.Minutes <= 0 {
		s.logger.Debug("dropping empty credit", "subject", credit.SubjectID, "module", credit.ModuleID)
		return false
	}

	at := s.now()
	if !s.ledger.Credit(credit.SubjectID, credit.ModuleID, credit.SubtopicID, credit.Minutes, at) {
		s.logger.Warn("credit target no longer exists", "subject", credit.SubjectID, "module", credit.ModuleID, "minutes", credit.Minutes)
		return false
	}

	if s.history != nil {
		s.history.AppendHistory(model.StudySession{
			Timestamp:       at,
			DurationMinutes: credit.Minutes,
			SubjectID:       credit.SubjectID,
			ModuleID:        credit.ModuleID,
			SubtopicID:      credit.SubtopicID,
		}, at)
	}
	s.logger.Info("credited study time", "subject", credit.SubjectID, "module", credit.ModuleID, "minutes", credit.Minutes)

	s.mu.Lock()
	callbacks := append([]UpdateFunc(nil), s.callbacks...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(credit)
	}
	return true
}
