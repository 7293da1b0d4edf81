package catalog

import (
	"sort"
	"time"

	"studytracker/internal/model"
)

// ReviewIntervals are the spaced repetition gaps, indexed by how many
// reviews a module has had. The last interval repeats.
var ReviewIntervals = []int{1, 3, 7, 14, 30, 90}

type ModuleView struct {
	model.Module
	Subtopics []model.Subtopic `json:"subtopics"`
	Done      bool             `json:"done"`
}

type SubjectView struct {
	model.Subject
	Modules      []ModuleView `json:"modules"`
	Completion   int          `json:"completion"`
	GoalProgress int          `json:"goalProgress"`
}

// ReviewItem is an entry of the review-later list: a flagged module, or a
// flagged subtopic with its module.
type ReviewItem struct {
	SubjectID    string `json:"subjectId"`
	SubjectName  string `json:"subjectName"`
	ModuleID     string `json:"topicId"`
	ModuleName   string `json:"topicName"`
	SubtopicID   string `json:"subtopicId,omitempty"`
	SubtopicName string `json:"subtopicName,omitempty"`
}

// Subjects returns every subject with its modules and progress, in order.
func (c *Catalog) Subjects() []SubjectView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	views := make([]SubjectView, 0, len(c.order))
	for _, id := range c.order {
		views = append(views, c.subjectViewLocked(c.subjects[id]))
	}
	return views
}

func (c *Catalog) SubjectView(id string) (SubjectView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subject, ok := c.subjects[id]
	if !ok {
		return SubjectView{}, false
	}
	return c.subjectViewLocked(subject), true
}

// OverallProgress averages subject completion over subjects that have
// modules, as a rounded percentage of all subjects.
func (c *Catalog) OverallProgress() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.order) == 0 {
		return 0
	}
	var total float64
	for _, id := range c.order {
		total += c.completionRatioLocked(c.subjects[id])
	}
	return roundPercent(total / float64(len(c.order)))
}

// TotalStudyTime sums study minutes across subjects.
func (c *Catalog) TotalStudyTime() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, subject := range c.subjects {
		total += subject.TotalStudyTime
	}
	return total
}

// ReviewList returns modules and subtopics flagged for review.
func (c *Catalog) ReviewList() []ReviewItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var items []ReviewItem
	for _, subjectID := range c.order {
		subject := c.subjects[subjectID]
		for _, moduleID := range subject.ModuleIDs {
			module := c.modules[moduleID]
			base := ReviewItem{
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				ModuleID:    module.ID,
				ModuleName:  module.Name,
			}
			if module.ForReview {
				items = append(items, base)
			}
			for _, subtopicID := range module.SubtopicIDs {
				subtopic := c.subtopics[subtopicID]
				if !subtopic.ForReview {
					continue
				}
				item := base
				item.SubtopicID = subtopic.ID
				item.SubtopicName = subtopic.Name
				items = append(items, item)
			}
		}
	}
	return items
}

// MostStudied returns up to n modules with the most study time. Modules
// never studied are left out.
func (c *Catalog) MostStudied(n int) []model.Module {
	c.mu.RLock()
	modules := make([]model.Module, 0, len(c.modules))
	for _, module := range c.modules {
		if module.StudyTime > 0 {
			modules = append(modules, copyModule(module))
		}
	}
	c.mu.RUnlock()

	sort.Slice(modules, func(i, j int) bool {
		if modules[i].StudyTime != modules[j].StudyTime {
			return modules[i].StudyTime > modules[j].StudyTime
		}
		return modules[i].Name < modules[j].Name
	})
	if n >= 0 && len(modules) > n {
		modules = modules[:n]
	}
	return modules
}

// MarkReviewed records a review and schedules the next one.
func (c *Catalog) MarkReviewed(moduleID string, now time.Time) (model.Module, error) {
	c.mu.Lock()
	module, ok := c.modules[moduleID]
	if !ok {
		c.mu.Unlock()
		return model.Module{}, ErrNotFound
	}
	next := NextReview(now, module.ReviewCount)
	module.NextReview = &next
	module.ReviewCount++
	out := copyModule(module)
	c.mu.Unlock()

	c.notify()
	return out, nil
}

// NextReview returns the review date following a review at last, given how
// many reviews came before it.
func NextReview(last time.Time, reviewCount int) time.Time {
	if reviewCount < 0 {
		reviewCount = 0
	}
	if reviewCount >= len(ReviewIntervals) {
		reviewCount = len(ReviewIntervals) - 1
	}
	return last.UTC().AddDate(0, 0, ReviewIntervals[reviewCount])
}

// DueForReview lists completed modules whose scheduled review is at or
// before now, earliest first.
func (c *Catalog) DueForReview(now time.Time) []model.Module {
	c.mu.RLock()
	var due []model.Module
	for _, module := range c.modules {
		if module.Completed && module.NextReview != nil && !module.NextReview.After(now) {
			due = append(due, copyModule(module))
		}
	}
	c.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextReview.Before(*due[j].NextReview)
	})
	return due
}

func (c *Catalog) subjectViewLocked(subject *model.Subject) SubjectView {
	view := SubjectView{
		Subject:      copySubject(subject),
		Modules:      make([]ModuleView, 0, len(subject.ModuleIDs)),
		Completion:   roundPercent(c.completionRatioLocked(subject)),
		GoalProgress: goalProgress(subject.TotalStudyTime, subject.GoalMinutes),
	}
	for _, moduleID := range subject.ModuleIDs {
		module := c.modules[moduleID]
		moduleView := ModuleView{
			Module:    copyModule(module),
			Subtopics: make([]model.Subtopic, 0, len(module.SubtopicIDs)),
			Done:      c.moduleDoneLocked(module),
		}
		for _, subtopicID := range module.SubtopicIDs {
			moduleView.Subtopics = append(moduleView.Subtopics, *c.subtopics[subtopicID])
		}
		view.Modules = append(view.Modules, moduleView)
	}
	return view
}

// moduleDoneLocked treats a module with subtopics as done once every
// subtopic is, otherwise it uses the module's own flag.
func (c *Catalog) moduleDoneLocked(module *model.Module) bool {
	if len(module.SubtopicIDs) == 0 {
		return module.Completed
	}
	for _, subtopicID := range module.SubtopicIDs {
		if !c.subtopics[subtopicID].Completed {
			return false
		}
	}
	return true
}

func (c *Catalog) completionRatioLocked(subject *model.Subject) float64 {
	if len(subject.ModuleIDs) == 0 {
		return 0
	}
	done := 0
	for _, moduleID := range subject.ModuleIDs {
		if c.moduleDoneLocked(c.modules[moduleID]) {
			done++
		}
	}
	return float64(done) / float64(len(subject.ModuleIDs))
}

func goalProgress(studied, goal int) int {
	if goal <= 0 {
		return 0
	}
	if studied >= goal {
		return 100
	}
	return studied * 100 / goal
}

func roundPercent(ratio float64) int {
	return int(ratio*100 + 0.5)
}
