package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit      key.Binding
	back      key.Binding
	nextPage  key.Binding
	prevPage  key.Binding
	sort      key.Binding
	reverse   key.Binding
	filter    key.Binding
	nextField key.Binding
	regex     key.Binding
	kinds     key.Binding
	errors    key.Binding
	archived  key.Binding
	columns   key.Binding
	toggle    key.Binding
	up        key.Binding
	down      key.Binding
	bigger    key.Binding
	smaller   key.Binding
	custom    key.Binding
	detail    key.Binding
	branches  key.Binding
	help      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		nextPage: key.NewBinding(
			key.WithKeys("l", "right", "pgdown"),
			key.WithHelp("→/l", "next page"),
		),
		prevPage: key.NewBinding(
			key.WithKeys("h", "left", "pgup"),
			key.WithHelp("←/h", "prev page"),
		),
		sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort column"),
		),
		reverse: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "reverse sort"),
		),
		filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		nextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next filter field"),
		),
		regex: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "regex mode"),
		),
		kinds: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "kinds"),
		),
		errors: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "errors"),
		),
		archived: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archived"),
		),
		columns: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "columns"),
		),
		toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		bigger: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "larger pages"),
		),
		smaller: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "smaller pages"),
		),
		custom: key.NewBinding(
			key.WithKeys("#"),
			key.WithHelp("#", "custom page size"),
		),
		detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		branches: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "branches"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prevPage, k.nextPage, k.filter, k.sort, k.kinds, k.errors, k.archived, k.columns, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prevPage, k.nextPage, k.bigger, k.smaller, k.custom},
		{k.filter, k.nextField, k.regex, k.sort, k.reverse},
		{k.kinds, k.errors, k.archived, k.columns, k.toggle},
		{k.detail, k.branches, k.back, k.help, k.quit},
	}
}
