// Package catalog owns the subjects, modules and subtopics the timer credits
// study time to.
//
// Entities live in flat maps keyed by id with back-references to their
// parent. Subject order is insertion order. Listeners registered with
// OnChange run after the catalog lock is released, so they may read the
// catalog freely.
package catalog

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studytracker/internal/model"
)

var (
	ErrNotFound    = errors.New("catalog entry not found")
	ErrInvalidName = errors.New("name must not be empty")
	ErrInvalidGoal = errors.New("goal must not be negative")
)

type Catalog struct {
	mu        sync.RWMutex
	subjects  map[string]*model.Subject
	modules   map[string]*model.Module
	subtopics map[string]*model.Subtopic
	order     []string

	listenersMu sync.Mutex
	listeners   []func()

	newID func() string
	now   func() time.Time
}

func New() *Catalog {
	return &Catalog{
		subjects:  make(map[string]*model.Subject),
		modules:   make(map[string]*model.Module),
		subtopics: make(map[string]*model.Subtopic),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// OnChange registers fn to run after every successful mutation.
func (c *Catalog) OnChange(fn func()) {
	if fn == nil {
		return
	}
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Catalog) notify() {
	c.listenersMu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (c *Catalog) AddSubject(name string) (model.Subject, error) {
	name, err := cleanName(name)
	if err != nil {
		return model.Subject{}, err
	}

	c.mu.Lock()
	subject := &model.Subject{
		ID:        c.newID(),
		Name:      name,
		CreatedAt: c.now().UTC(),
	}
	c.subjects[subject.ID] = subject
	c.order = append(c.order, subject.ID)
	out := *subject
	c.mu.Unlock()

	c.notify()
	return out, nil
}

func (c *Catalog) RenameSubject(id, name string) (model.Subject, error) {
	name, err := cleanName(name)
	if err != nil {
		return model.Subject{}, err
	}

	c.mu.Lock()
	subject, ok := c.subjects[id]
	if !ok {
		c.mu.Unlock()
		return model.Subject{}, ErrNotFound
	}
	subject.Name = name
	out := copySubject(subject)
	c.mu.Unlock()

	c.notify()
	return out, nil
}

// SetGoal sets the subject's study goal in minutes. Zero clears it.
func (c *Catalog) SetGoal(id string, minutes int) (model.Subject, error) {
	if minutes < 0 {
		return model.Subject{}, ErrInvalidGoal
	}

	c.mu.Lock()
	subject, ok := c.subjects[id]
	if !ok {
		c.mu.Unlock()
		return model.Subject{}, ErrNotFound
	}
	subject.GoalMinutes = minutes
	out := copySubject(subject)
	c.mu.Unlock()

	c.notify()
	return out, nil
}

// DeleteSubject removes a subject with all of its modules and subtopics.
func (c *Catalog) DeleteSubject(id string) error {
	c.mu.Lock()
	subject, ok := c.subjects[id]
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	for _, moduleID := range subject.ModuleIDs {
		c.deleteModuleLocked(moduleID)
	}
	delete(c.subjects, id)
	c.order = removeID(c.order, id)
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *Catalog) AddModule(subjectID, name string) (model.Module, error) {
	name, err := cleanName(name)
	if err != nil {
		return model.Module{}, err
	}

	c.mu.Lock()
	subject, ok := c.subjects[subjectID]
	if !ok {
		c.mu.Unlock()
		return model.Module{}, ErrNotFound
	}
	module := &model.Module{
		ID:        c.newID(),
		SubjectID: subjectID,
		Name:      name,
	}
	c.modules[module.ID] = module
	subject.ModuleIDs = append(subject.ModuleIDs, module.ID)
	out := copyModule(module)
	c.mu.Unlock()

	c.notify()
	return out, nil
}

// ModulePatch holds the optional fields of a module update.
type ModulePatch struct {
	Name      *string
	Completed *bool
	ForReview *bool
}

func (c *Catalog) UpdateModule(id string, patch ModulePatch) (model.Module, error) {
	var name string
	if patch.Name != nil {
		cleaned, err := cleanName(*patch.Name)
		if err != nil {
			return model.Module{}, err
		}
		name = cleaned
	}

	c.mu.Lock()
	module, ok := c.modules[id]
	if !ok {
		c.mu.Unlock()
		return model.Module{}, ErrNotFound
	}
	if patch.Name != nil {
		module.Name = name
	}
	if patch.Completed != nil {
		module.Completed = *patch.Completed
	}
	if patch.ForReview != nil {
		module.ForReview = *patch.ForReview
	}
	out := copyModule(module)
	c.mu.Unlock()

	c.notify()
	return out, nil
}

func (c *Catalog) DeleteModule(id string) error {
	c.mu.Lock()
	module, ok := c.modules[id]
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	if subject, ok := c.subjects[module.SubjectID]; ok {
		subject.ModuleIDs = removeID(subject.ModuleIDs, id)
	}
	c.deleteModuleLocked(id)
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *Catalog) deleteModuleLocked(id string) {
	module, ok := c.modules[id]
	if !ok {
		return
	}
	for _, subtopicID := range module.SubtopicIDs {
		delete(c.subtopics, subtopicID)
	}
	delete(c.modules, id)
}

func (c *Catalog) AddSubtopic(moduleID, name string) (model.Subtopic, error) {
	name, err := cleanName(name)
	if err != nil {
		return model.Subtopic{}, err
	}

	c.mu.Lock()
	module, ok := c.modules[moduleID]
	if !ok {
		c.mu.Unlock()
		return model.Subtopic{}, ErrNotFound
	}
	subtopic := &model.Subtopic{
		ID:       c.newID(),
		ModuleID: moduleID,
		Name:     name,
	}
	c.subtopics[subtopic.ID] = subtopic
	module.SubtopicIDs = append(module.SubtopicIDs, subtopic.ID)
	out := *subtopic
	c.mu.Unlock()

	c.notify()
	return out, nil
}

type SubtopicPatch struct {
	Name      *string
	Completed *bool
	ForReview *bool
}

func (c *Catalog) UpdateSubtopic(id string, patch SubtopicPatch) (model.Subtopic, error) {
	var name string
	if patch.Name != nil {
		cleaned, err := cleanName(*patch.Name)
		if err != nil {
			return model.Subtopic{}, err
		}
		name = cleaned
	}

	c.mu.Lock()
	subtopic, ok := c.subtopics[id]
	if !ok {
		c.mu.Unlock()
		return model.Subtopic{}, ErrNotFound
	}
	if patch.Name != nil {
		subtopic.Name = name
	}
	if patch.Completed != nil {
		subtopic.Completed = *patch.Completed
	}
	if patch.ForReview != nil {
		subtopic.ForReview = *patch.ForReview
	}
	out := *subtopic
	c.mu.Unlock()

	c.notify()
	return out, nil
}

func (c *Catalog) DeleteSubtopic(id string) error {
	c.mu.Lock()
	subtopic, ok := c.subtopics[id]
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	if module, ok := c.modules[subtopic.ModuleID]; ok {
		module.SubtopicIDs = removeID(module.SubtopicIDs, id)
	}
	delete(c.subtopics, id)
	c.mu.Unlock()

	c.notify()
	return nil
}

// Credit adds minutes to the subject total, the module and, when given, the
// subtopic, and stamps the module as studied at the given time. It reports
// false without changing anything when the subject or module is missing or
// the module belongs to another subject. An unknown subtopic is ignored.
func (c *Catalog) Credit(subjectID, moduleID, subtopicID string, minutes int, at time.Time) bool {
	if minutes < 0 {
		return false
	}

	c.mu.Lock()
	subject, ok := c.subjects[subjectID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	module, ok := c.modules[moduleID]
	if !ok || module.SubjectID != subjectID {
		c.mu.Unlock()
		return false
	}

	subject.TotalStudyTime += minutes
	module.StudyTime += minutes
	studied := at.UTC()
	module.LastStudied = &studied
	if subtopic, ok := c.subtopics[subtopicID]; ok && subtopic.ModuleID == moduleID {
		subtopic.StudyTime += minutes
	}
	c.mu.Unlock()

	c.notify()
	return true
}

func (c *Catalog) Subject(id string) (model.Subject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subject, ok := c.subjects[id]
	if !ok {
		return model.Subject{}, false
	}
	return copySubject(subject), true
}

func (c *Catalog) Module(id string) (model.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	module, ok := c.modules[id]
	if !ok {
		return model.Module{}, false
	}
	return copyModule(module), true
}

func (c *Catalog) Subtopic(id string) (model.Subtopic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subtopic, ok := c.subtopics[id]
	if !ok {
		return model.Subtopic{}, false
	}
	return *subtopic, true
}

// SubjectIDs returns subject ids in display order.
func (c *Catalog) SubjectIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func copySubject(subject *model.Subject) model.Subject {
	out := *subject
	out.ModuleIDs = append([]string(nil), subject.ModuleIDs...)
	return out
}

func copyModule(module *model.Module) model.Module {
	out := *module
	out.SubtopicIDs = append([]string(nil), module.SubtopicIDs...)
	if module.LastStudied != nil {
		studied := *module.LastStudied
		out.LastStudied = &studied
	}
	if module.NextReview != nil {
		next := *module.NextReview
		out.NextReview = &next
	}
	return out
}

func (c *Catalog) SubjectExists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subjects[id]
	return ok
}

// ModuleParent returns the subject a module belongs to.
func (c *Catalog) ModuleParent(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	module, ok := c.modules[id]
	if !ok {
		return "", false
	}
	return module.SubjectID, true
}

func (c *Catalog) SubtopicParent(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subtopic, ok := c.subtopics[id]
	if !ok {
		return "", false
	}
	return subtopic.ModuleID, true
}
