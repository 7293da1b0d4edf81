// Package binder keeps the timer's selection pointing at entries that still
// exist in the catalog.
package binder

import (
	"studytracker/internal/model"
)

// Lookup answers catalog membership questions. The returned parent id lets
// the binder detect re-parented entries.
type Lookup interface {
	SubjectExists(id string) bool
	ModuleParent(id string) (subjectID string, ok bool)
	SubtopicParent(id string) (moduleID string, ok bool)
}

// Rebinder is the engine side of the binder.
type Rebinder interface {
	Rebind(resolve func(model.Selection) model.Selection)
}

// Resolve clears every level of sel, and all levels below it, whose id is
// no longer in the catalog under the expected parent.
func Resolve(sel model.Selection, lookup Lookup) model.Selection {
	sel = sel.Normalize()
	if sel.SubjectID == "" {
		return model.Selection{}
	}
	if !lookup.SubjectExists(sel.SubjectID) {
		return model.Selection{}
	}

	if sel.ModuleID == "" {
		return model.Selection{SubjectID: sel.SubjectID}
	}
	if parent, ok := lookup.ModuleParent(sel.ModuleID); !ok || parent != sel.SubjectID {
		return model.Selection{SubjectID: sel.SubjectID}
	}

	if sel.SubtopicID == "" {
		return sel
	}
	if parent, ok := lookup.SubtopicParent(sel.SubtopicID); !ok || parent != sel.ModuleID {
		sel.SubtopicID = ""
	}
	return sel
}

type Binder struct {
	engine Rebinder
	lookup Lookup
}

func New(engine Rebinder, lookup Lookup) *Binder {
	return &Binder{engine: engine, lookup: lookup}
}

// Sync re-resolves the engine's selection against the current catalog. It
// is meant to be registered as a catalog change listener.
func (b *Binder) Sync() {
	b.engine.Rebind(func(sel model.Selection) model.Selection {
		return Resolve(sel, b.lookup)
	})
}
