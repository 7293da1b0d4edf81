package catalog

import (
	"studytracker/internal/model"
)

// Document is the nested form the catalog is persisted in.
type Document struct {
	Subjects []SubjectDoc `json:"subjects"`
}

type SubjectDoc struct {
	model.Subject
	Modules []ModuleDoc `json:"modules"`
}

type ModuleDoc struct {
	model.Module
	Subtopics []model.Subtopic `json:"subtopics"`
}

func (c *Catalog) Document() Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc := Document{Subjects: make([]SubjectDoc, 0, len(c.order))}
	for _, id := range c.order {
		subject := c.subjects[id]
		subjectDoc := SubjectDoc{Subject: copySubject(subject)}
		for _, moduleID := range subject.ModuleIDs {
			module := c.modules[moduleID]
			moduleDoc := ModuleDoc{Module: copyModule(module)}
			for _, subtopicID := range module.SubtopicIDs {
				moduleDoc.Subtopics = append(moduleDoc.Subtopics, *c.subtopics[subtopicID])
			}
			subjectDoc.Modules = append(subjectDoc.Modules, moduleDoc)
		}
		doc.Subjects = append(doc.Subjects, subjectDoc)
	}
	return doc
}

// Load replaces the catalog content with doc. Entries without an id get a
// fresh one, duplicate ids are skipped and parent references are rebuilt
// from the nesting. Listeners are notified.
func (c *Catalog) Load(doc Document) {
	c.mu.Lock()
	c.subjects = make(map[string]*model.Subject)
	c.modules = make(map[string]*model.Module)
	c.subtopics = make(map[string]*model.Subtopic)
	c.order = nil

	for _, subjectDoc := range doc.Subjects {
		subject := subjectDoc.Subject
		if subject.ID == "" {
			subject.ID = c.newID()
		}
		if _, dup := c.subjects[subject.ID]; dup {
			continue
		}
		subject.ModuleIDs = nil

		for _, moduleDoc := range subjectDoc.Modules {
			module := moduleDoc.Module
			if module.ID == "" {
				module.ID = c.newID()
			}
			if _, dup := c.modules[module.ID]; dup {
				continue
			}
			module.SubjectID = subject.ID
			module.SubtopicIDs = nil

			for _, subtopic := range moduleDoc.Subtopics {
				if subtopic.ID == "" {
					subtopic.ID = c.newID()
				}
				if _, dup := c.subtopics[subtopic.ID]; dup {
					continue
				}
				subtopic.ModuleID = module.ID
				entry := subtopic
				c.subtopics[entry.ID] = &entry
				module.SubtopicIDs = append(module.SubtopicIDs, entry.ID)
			}

			moduleEntry := module
			c.modules[moduleEntry.ID] = &moduleEntry
			subject.ModuleIDs = append(subject.ModuleIDs, moduleEntry.ID)
		}

		subjectEntry := subject
		c.subjects[subjectEntry.ID] = &subjectEntry
		c.order = append(c.order, subjectEntry.ID)
	}
	c.mu.Unlock()

	c.notify()
}
