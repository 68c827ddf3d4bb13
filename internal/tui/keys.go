package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play     key.Binding
	Check    key.Binding
	Reveal   key.Binding
	Next     key.Binding
	Settings key.Binding
	Quit     key.Binding

	// Settings modal.
	Choose key.Binding
	Done   key.Binding
}

var keys = keyMap{
	Play:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "Play")),
	Check:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Check")),
	Reveal:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "Show Answer")),
	Next:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "Next Question")),
	Settings: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "Settings")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "Quit")),
	Choose:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Done:     key.NewBinding(key.WithKeys("esc", "ctrl+s"), key.WithHelp("esc", "Done")),
}
