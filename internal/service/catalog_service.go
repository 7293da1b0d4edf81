package service

import (
	"studytracker/internal/catalog"
	apperrors "studytracker/internal/errors"
	"studytracker/internal/model"
)

type SubjectInput struct {
	Name *string
	Goal *int
}

func (s *StudyService) Subjects() []catalog.SubjectView {
	return s.catalog.Subjects()
}

func (s *StudyService) Overview() (progress int, totalMinutes int) {
	return s.catalog.OverallProgress(), s.catalog.TotalStudyTime()
}

func (s *StudyService) CreateSubject(name string, goal int) (*catalog.SubjectView, *apperrors.APIError) {
	if goal < 0 {
		return nil, catalogError(catalog.ErrInvalidGoal)
	}
	subject, err := s.catalog.AddSubject(name)
	if err != nil {
		return nil, catalogError(err)
	}
	if goal > 0 {
		if _, err := s.catalog.SetGoal(subject.ID, goal); err != nil {
			return nil, catalogError(err)
		}
	}
	return s.subjectView(subject.ID)
}

func (s *StudyService) UpdateSubject(id string, input SubjectInput) (*catalog.SubjectView, *apperrors.APIError) {
	if input.Goal != nil && *input.Goal < 0 {
		return nil, catalogError(catalog.ErrInvalidGoal)
	}
	if input.Name != nil {
		if _, err := s.catalog.RenameSubject(id, *input.Name); err != nil {
			return nil, catalogError(err)
		}
	}
	if input.Goal != nil {
		if _, err := s.catalog.SetGoal(id, *input.Goal); err != nil {
			return nil, catalogError(err)
		}
	}
	return s.subjectView(id)
}

func (s *StudyService) DeleteSubject(id string) *apperrors.APIError {
	if err := s.catalog.DeleteSubject(id); err != nil {
		return catalogError(err)
	}
	return nil
}

func (s *StudyService) CreateModule(subjectID, name string) (*model.Module, *apperrors.APIError) {
	module, err := s.catalog.AddModule(subjectID, name)
	if err != nil {
		return nil, catalogError(err)
	}
	return &module, nil
}

func (s *StudyService) UpdateModule(id string, patch catalog.ModulePatch) (*model.Module, *apperrors.APIError) {
	module, err := s.catalog.UpdateModule(id, patch)
	if err != nil {
		return nil, catalogError(err)
	}
	return &module, nil
}

func (s *StudyService) DeleteModule(id string) *apperrors.APIError {
	if err := s.catalog.DeleteModule(id); err != nil {
		return catalogError(err)
	}
	return nil
}

// MarkReviewed records a spaced repetition review of a module.
func (s *StudyService) MarkReviewed(id string) (*model.Module, *apperrors.APIError) {
	module, err := s.catalog.MarkReviewed(id, s.now())
	if err != nil {
		return nil, catalogError(err)
	}
	return &module, nil
}

func (s *StudyService) CreateSubtopic(moduleID, name string) (*model.Subtopic, *apperrors.APIError) {
	subtopic, err := s.catalog.AddSubtopic(moduleID, name)
	if err != nil {
		return nil, catalogError(err)
	}
	return &subtopic, nil
}

func (s *StudyService) UpdateSubtopic(id string, patch catalog.SubtopicPatch) (*model.Subtopic, *apperrors.APIError) {
	subtopic, err := s.catalog.UpdateSubtopic(id, patch)
	if err != nil {
		return nil, catalogError(err)
	}
	return &subtopic, nil
}

func (s *StudyService) DeleteSubtopic(id string) *apperrors.APIError {
	if err := s.catalog.DeleteSubtopic(id); err != nil {
		return catalogError(err)
	}
	return nil
}

func (s *StudyService) subjectView(id string) (*catalog.SubjectView, *apperrors.APIError) {
	view, ok := s.catalog.SubjectView(id)
	if !ok {
		return nil, catalogError(catalog.ErrNotFound)
	}
	return &view, nil
}
