package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Back     key.Binding
	Next     key.Binding
	Prev     key.Binding
	Complete key.Binding
	Open     key.Binding
	Copy     key.Binding
	Retry    key.Binding
	Home     key.Binding
	Progress key.Binding
	Request  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Next:     key.NewBinding(key.WithKeys("n", "right", "l", " "), key.WithHelp("n/→", "next page")),
		Prev:     key.NewBinding(key.WithKeys("p", "left", "h"), key.WithHelp("p/←", "prev page")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "mark complete")),
		Open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open link")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Home:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "museums")),
		Progress: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "progress")),
		Request:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "request")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// contextKeys adapts the footer help to what is on screen.
type contextKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (c contextKeys) ShortHelp() []key.Binding  { return c.short }
func (c contextKeys) FullHelp() [][]key.Binding { return c.full }
