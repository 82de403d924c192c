package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/notenexus/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgContentLoaded MsgKind = iota
	MsgRemoved
)

type contentLoaded struct {
	content models.SavedContent
	err     error
}

type removed struct {
	title string
	err   error
}

// contentLoadedMsg is the constructor for [MsgContentLoaded]
func contentLoadedMsg(content models.SavedContent, err error) Msg {
	return Msg{kind: MsgContentLoaded, data: contentLoaded{content, err}}
}

// removedMsg is the constructor for [MsgRemoved]
func removedMsg(title string, err error) Msg {
	return Msg{kind: MsgRemoved, data: removed{title, err}}
}
