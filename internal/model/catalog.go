package model

import "time"

type Subject struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ModuleIDs      []string  `json:"-"`
	TotalStudyTime int       `json:"totalStudyTime"`
	GoalMinutes    int       `json:"goal,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Module struct {
	ID          string     `json:"id"`
	SubjectID   string     `json:"subjectId"`
	Name        string     `json:"name"`
	StudyTime   int        `json:"studyTime"`
	Completed   bool       `json:"completed"`
	ForReview   bool       `json:"forReview"`
	SubtopicIDs []string   `json:"-"`
	LastStudied *time.Time `json:"lastStudied,omitempty"`
	ReviewCount int        `json:"reviewCount"`
	NextReview  *time.Time `json:"nextReview,omitempty"`
}

type Subtopic struct {
	ID        string `json:"id"`
	ModuleID  string `json:"moduleId"`
	Name      string `json:"name"`
	StudyTime int    `json:"studyTime"`
	Completed bool   `json:"completed"`
	ForReview bool   `json:"forReview"`
}

// StudySession is one entry of the study history log.
type StudySession struct {
	Timestamp       time.Time `json:"timestamp"`
	DurationMinutes int       `json:"durationMinutes"`
	SubjectID       string    `json:"subjectId"`
	ModuleID        string    `json:"topicId"`
	SubtopicID      string    `json:"subtopicId,omitempty"`
}
