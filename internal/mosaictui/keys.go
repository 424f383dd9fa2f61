package mosaictui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Newest    key.Binding
	Oldest    key.Binding
	JumpTime  key.Binding
	Random    key.Binding
	YearBack  key.Binding
	YearAhead key.Binding

	Detail key.Binding
	Theme  key.Binding
	Help   key.Binding
	Close  key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "newer row")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "older row")),
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "newer item")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "older item")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("PgUp/Ctrl+U", "page newer")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("PgDn/Ctrl+D", "page older")),

		Newest:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/Home", "newest")),
		Oldest:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G/End", "oldest")),
		JumpTime:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "jump to date")),
		Random:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random item")),
		YearBack:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "one year older")),
		YearAhead: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "one year newer")),

		Detail: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "item details")),
		Theme:  key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "cycle theme")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "close overlay")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q/Ctrl+C", "quit")),
	}
}
