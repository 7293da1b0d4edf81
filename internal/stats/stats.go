// Package stats summarises the study history log.
package stats

import (
	"sort"
	"time"

	"studytracker/internal/model"
)

const (
	DailyWindow   = 7
	BestHourCount = 3
)

type DayTotal struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

type HourTotal struct {
	Hour    int `json:"hour"`
	Minutes int `json:"minutes"`
}

type Summary struct {
	Daily        []DayTotal     `json:"daily"`
	StreakDays   int            `json:"streakDays"`
	BestHours    []HourTotal    `json:"bestHours"`
	BySubject    map[string]int `json:"bySubject"`
	TotalMinutes int            `json:"totalMinutes"`
	SessionCount int            `json:"sessionCount"`
}

// Summarize computes every statistic for now, bucketing days and hours in
// loc.
func Summarize(sessions []model.StudySession, now time.Time, loc *time.Location) Summary {
	summary := Summary{
		Daily:        DailyTotals(sessions, now, loc),
		StreakDays:   Streak(sessions, now, loc),
		BestHours:    BestHours(sessions, loc),
		BySubject:    MinutesBySubject(sessions),
		SessionCount: len(sessions),
	}
	for _, session := range sessions {
		summary.TotalMinutes += session.DurationMinutes
	}
	return summary
}

// DailyTotals returns minutes per day for the last seven days, oldest
// first, today included.
func DailyTotals(sessions []model.StudySession, now time.Time, loc *time.Location) []DayTotal {
	if loc == nil {
		loc = time.Local
	}
	today := dayOf(now, loc)

	days := make([]DayTotal, DailyWindow)
	index := make(map[time.Time]int, DailyWindow)
	for i := 0; i < DailyWindow; i++ {
		day := today.AddDate(0, 0, i-(DailyWindow-1))
		days[i] = DayTotal{Date: day.Format("2006-01-02")}
		index[day] = i
	}

	for _, session := range sessions {
		if i, ok := index[dayOf(session.Timestamp, loc)]; ok {
			days[i].Minutes += session.DurationMinutes
		}
	}
	return days
}

// Streak counts consecutive days with at least one session, ending today,
// or yesterday when nothing has been studied yet today.
func Streak(sessions []model.StudySession, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	studied := make(map[time.Time]bool, len(sessions))
	for _, session := range sessions {
		studied[dayOf(session.Timestamp, loc)] = true
	}

	day := dayOf(now, loc)
	if !studied[day] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for studied[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// BestHours returns the hours of day with the most study minutes, best
// first. Hours without study time are left out.
func BestHours(sessions []model.StudySession, loc *time.Location) []HourTotal {
	if loc == nil {
		loc = time.Local
	}
	var minutes [24]int
	for _, session := range sessions {
		minutes[session.Timestamp.In(loc).Hour()] += session.DurationMinutes
	}

	hours := make([]HourTotal, 0, 24)
	for hour, total := range minutes {
		if total > 0 {
			hours = append(hours, HourTotal{Hour: hour, Minutes: total})
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return hours[i].Minutes > hours[j].Minutes
	})
	if len(hours) > BestHourCount {
		hours = hours[:BestHourCount]
	}
	return hours
}

func MinutesBySubject(sessions []model.StudySession) map[string]int {
	totals := make(map[string]int)
	for _, session := range sessions {
		totals[session.SubjectID] += session.DurationMinutes
	}
	return totals
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
