// Package tui is a terminal front end for the study timer.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"studytracker/internal/catalog"
	apperrors "studytracker/internal/errors"
	"studytracker/internal/model"
	"studytracker/internal/service"
	"studytracker/internal/timer"
)

const durationStep = 5

// Controller is the part of the study service the UI drives.
type Controller interface {
	Timer() service.TimerView
	Start() (*service.TimerView, *apperrors.APIError)
	Pause() (*service.TimerView, *apperrors.APIError)
	Resume() (*service.TimerView, *apperrors.APIError)
	Stop() (*service.TimerView, *apperrors.APIError)
	Reset() (*service.TimerView, *apperrors.APIError)
	ChangeDuration(phase model.Phase, minutes int) (*service.TimerView, *apperrors.APIError)
	ChangeSelection(selection model.Selection) (*service.TimerView, *apperrors.APIError)
	Subjects() []catalog.SubjectView
	Subscribe(buffer int) <-chan timer.Event
}

type eventMsg timer.Event

type eventsClosedMsg struct{}

type Model struct {
	ctrl     Controller
	events   <-chan timer.Event
	view     service.TimerView
	subjects []catalog.SubjectView
	bar      progress.Model
	status   string
}

func New(ctrl Controller) Model {
	return Model{
		ctrl:     ctrl,
		events:   ctrl.Subscribe(64),
		view:     ctrl.Timer(),
		subjects: ctrl.Subjects(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)
		return m, nil

	case eventMsg:
		m.view = m.ctrl.Timer()
		switch msg.Type {
		case timer.EventPhaseComplete:
			m.status = fmt.Sprintf("%s phase complete", msg.Completed)
		case timer.EventCredit:
			m.subjects = m.ctrl.Subjects()
			if msg.Applied && msg.Credit != nil {
				m.status = fmt.Sprintf("logged %d min", msg.Credit.Minutes)
			}
		case timer.EventStateChange:
			m.subjects = m.ctrl.Subjects()
		}
		return m, m.listen()

	case eventsClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	state := m.view.State
	var apiErr *apperrors.APIError

	switch {
	case key.Matches(msg, keys.Start):
		_, apiErr = m.ctrl.Start()
	case key.Matches(msg, keys.Pause):
		if state.Running == model.RunPaused {
			_, apiErr = m.ctrl.Resume()
		} else {
			_, apiErr = m.ctrl.Pause()
		}
	case key.Matches(msg, keys.Stop):
		_, apiErr = m.ctrl.Stop()
	case key.Matches(msg, keys.Reset):
		_, apiErr = m.ctrl.Reset()
	case key.Matches(msg, keys.NextSubject):
		apiErr = m.cycleSubject(1)
	case key.Matches(msg, keys.PrevSubject):
		apiErr = m.cycleSubject(-1)
	case key.Matches(msg, keys.NextModule):
		apiErr = m.cycleModule(1)
	case key.Matches(msg, keys.PrevModule):
		apiErr = m.cycleModule(-1)
	case key.Matches(msg, keys.LongerWork):
		_, apiErr = m.ctrl.ChangeDuration(model.PhaseWork, state.WorkDurationMinutes+durationStep)
	case key.Matches(msg, keys.ShorterWork):
		_, apiErr = m.ctrl.ChangeDuration(model.PhaseWork, state.WorkDurationMinutes-durationStep)
	default:
		return
	}

	m.view = m.ctrl.Timer()
	m.subjects = m.ctrl.Subjects()
	if apiErr != nil {
		m.status = apiErr.Message
	} else {
		m.status = ""
	}
}

func (m *Model) cycleSubject(step int) *apperrors.APIError {
	if len(m.subjects) == 0 {
		return apperrors.NotFound("no_subjects", "add a subject first")
	}
	current := m.view.State.Selection
	index := -1
	for i, subject := range m.subjects {
		if subject.ID == current.SubjectID {
			index = i
		}
	}
	next := wrap(index+step, len(m.subjects))
	if index < 0 && step < 0 {
		next = len(m.subjects) - 1
	}
	_, apiErr := m.ctrl.ChangeSelection(current.WithSubject(m.subjects[next].ID))
	return apiErr
}

func (m *Model) cycleModule(step int) *apperrors.APIError {
	current := m.view.State.Selection
	var modules []catalog.ModuleView
	for _, subject := range m.subjects {
		if subject.ID == current.SubjectID {
			modules = subject.Modules
		}
	}
	if len(modules) == 0 {
		return apperrors.NotFound("no_topics", "select a subject with topics first")
	}
	index := -1
	for i, module := range modules {
		if module.ID == current.ModuleID {
			index = i
		}
	}
	next := wrap(index+step, len(modules))
	if index < 0 && step < 0 {
		next = len(modules) - 1
	}
	_, apiErr := m.ctrl.ChangeSelection(current.WithModule(modules[next].ID))
	return apiErr
}

func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(event)
	}
}

func (m Model) View() string {
	state := m.view.State
	var b strings.Builder

	b.WriteString(titleStyle.Render("study timer"))
	b.WriteString("\n\n")

	phase := phaseStyle(state.Phase).Render(strings.ToUpper(string(state.Phase)))
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", phase, clockStyle.Render(formatClock(state.RemainingSeconds)), runStyle.Render(string(state.Running))))
	b.WriteString(m.bar.ViewAs(float64(m.view.ProgressPct) / 100))
	b.WriteString("\n\n")

	subjectName, moduleName := m.selectionNames()
	b.WriteString(labelStyle.Render("subject "))
	b.WriteString(subjectName)
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("topic   "))
	b.WriteString(moduleName)
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("work %dm  break %dm", state.WorkDurationMinutes, state.BreakDurationMinutes)))
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpView())
	return b.String()
}

func (m Model) selectionNames() (string, string) {
	selection := m.view.State.Selection
	subjectName, moduleName := "none", "none"
	for _, subject := range m.subjects {
		if subject.ID != selection.SubjectID {
			continue
		}
		subjectName = fmt.Sprintf("%s (%dm)", subject.Name, subject.TotalStudyTime)
		for _, module := range subject.Modules {
			if module.ID == selection.ModuleID {
				moduleName = fmt.Sprintf("%s (%dm)", module.Name, module.StudyTime)
			}
		}
	}
	return subjectName, moduleName
}

func helpView() string {
	parts := make([]string, 0, len(keys.help()))
	for _, binding := range keys.help() {
		help := binding.Help()
		parts = append(parts, fmt.Sprintf("%s %s", help.Key, help.Desc))
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
