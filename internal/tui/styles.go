package tui

import (
	"github.com/charmbracelet/lipgloss"

	"studytracker/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	clockStyle  = lipgloss.NewStyle().Bold(true)
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	workStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	breakStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
)

func phaseStyle(phase model.Phase) lipgloss.Style {
	if phase == model.PhaseBreak {
		return breakStyle
	}
	return workStyle
}
