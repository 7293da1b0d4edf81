package accrual

import (
	"testing"
	"time"

	"studytracker/internal/logging"
	"studytracker/internal/model"
)

type ledgerCall struct {
	subjectID, moduleID, subtopicID string
	minutes                         int
}

type fakeLedger struct {
	known map[string]bool
	calls []ledgerCall
}

func (l *fakeLedger) Credit(subjectID, moduleID, subtopicID string, minutes int, _ time.Time) bool {
	l.calls = append(l.calls, ledgerCall{subjectID, moduleID, subtopicID, minutes})
	return l.known[subjectID+"/"+moduleID]
}

type fakeHistory struct {
	entries []model.StudySession
}

func (h *fakeHistory) AppendHistory(entry model.StudySession, _ time.Time) {
	h.entries = append(h.entries, entry)
}

var fixedNow = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

func newTestSynchronizer() (*Synchronizer, *fakeLedger, *fakeHistory) {
	ledger := &fakeLedger{known: map[string]bool{"math/algebra": true}}
	history := &fakeHistory{}
	sync := NewSynchronizer(ledger, history, func() time.Time { return fixedNow }, logging.Discard())
	return sync, ledger, history
}

func TestApplyCreditsLedgerAndHistory(t *testing.T) {
	sync, ledger, history := newTestSynchronizer()

	var updates []model.Credit
	sync.OnTimeUpdate(func(credit model.Credit) { updates = append(updates, credit) })

	credit := model.Credit{
		Selection: model.Selection{SubjectID: "math", ModuleID: "algebra", SubtopicID: "groups"},
		Minutes:   25,
	}
	if !sync.Apply(credit) {
		t.Fatal("expected credit to apply")
	}

	if len(ledger.calls) != 1 || ledger.calls[0] != (ledgerCall{"math", "algebra", "groups", 25}) {
		t.Fatalf("unexpected ledger calls %+v", ledger.calls)
	}
	if len(history.entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history.entries))
	}
	entry := history.entries[0]
	if entry.DurationMinutes != 25 || entry.SubtopicID != "groups" || !entry.Timestamp.Equal(fixedNow) {
		t.Fatalf("unexpected history entry %+v", entry)
	}
	if len(updates) != 1 || updates[0] != credit {
		t.Fatalf("expected one update callback, got %+v", updates)
	}
}

func TestApplyDropsZeroMinutes(t *testing.T) {
	sync, ledger, history := newTestSynchronizer()
	fired := false
	sync.OnTimeUpdate(func(model.Credit) { fired = true })

	if sync.Apply(model.Credit{Selection: model.Selection{SubjectID: "math", ModuleID: "algebra"}}) {
		t.Fatal("zero-minute credit should not apply")
	}
	if len(ledger.calls) != 0 || len(history.entries) != 0 || fired {
		t.Fatal("zero-minute credit must have no side effects")
	}
}

func TestApplyStaleSelectionIsNoOp(t *testing.T) {
	sync, ledger, history := newTestSynchronizer()
	fired := false
	sync.OnTimeUpdate(func(model.Credit) { fired = true })

	if sync.Apply(model.Credit{Selection: model.Selection{SubjectID: "deleted", ModuleID: "algebra"}, Minutes: 3}) {
		t.Fatal("stale credit should not apply")
	}
	if len(ledger.calls) != 1 {
		t.Fatalf("expected ledger to be consulted once, got %d", len(ledger.calls))
	}
	if len(history.entries) != 0 || fired {
		t.Fatal("stale credit must not be logged or announced")
	}
}

func TestEveryCallbackFiresOnce(t *testing.T) {
	sync, _, _ := newTestSynchronizer()
	counts := make([]int, 3)
	for i := range counts {
		i := i
		sync.OnTimeUpdate(func(model.Credit) { counts[i]++ })
	}
	sync.OnTimeUpdate(nil)

	sync.Apply(model.Credit{Selection: model.Selection{SubjectID: "math", ModuleID: "algebra"}, Minutes: 1})

	for i, count := range counts {
		if count != 1 {
			t.Fatalf("callback %d fired %d times", i, count)
		}
	}
}
