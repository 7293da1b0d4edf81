package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start       key.Binding
	Pause       key.Binding
	Stop        key.Binding
	Reset       key.Binding
	NextSubject key.Binding
	PrevSubject key.Binding
	NextModule  key.Binding
	PrevModule  key.Binding
	LongerWork  key.Binding
	ShorterWork key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Start:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Pause:       key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
	Stop:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
	Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	NextSubject: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "subject")),
	PrevSubject: key.NewBinding(key.WithKeys("shift+tab")),
	NextModule:  key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "topic")),
	PrevModule:  key.NewBinding(key.WithKeys("[")),
	LongerWork:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "work length")),
	ShorterWork: key.NewBinding(key.WithKeys("-")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Stop, k.Reset, k.NextSubject, k.NextModule, k.LongerWork, k.Quit}
}
