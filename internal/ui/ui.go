package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/notenexus/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CourseListView ViewState = iota
	ItemListView
	ConfirmView
)

// Saved is the subset of the store the browser reads and mutates.
type Saved interface {
	ListAll(userID string) (models.SavedContent, error)
	RemoveLeaf(userID string, kind models.Kind, leafID string) ([]models.LeafItem, error)
	RemoveCourse(userID, courseID string) ([]models.CourseRef, error)
}

// pending is the removal awaiting confirmation.
type pending struct {
	course *models.CourseRef
	leaf   *leafItem
	from   ViewState
}

func (p pending) title() string {
	if p.course != nil {
		return "course '" + p.course.CourseName + "'"
	}
	return fmt.Sprintf("%s '%s'", p.leaf.kind, p.leaf.item.Title)
}

// Model represents the TUI application state.
type Model struct {
	view       ViewState
	saved      Saved
	userID     string
	owner      string
	width      int
	height     int
	courses    []courseItem
	courseList list.Model
	itemList   list.Model
	selected   string
	pending    pending
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a browser over userID's saved content. owner is shown in titles.
func NewModel(saved Saved, userID, owner string) *Model {
	return &Model{
		view:       CourseListView,
		saved:      saved,
		userID:     userID,
		owner:      owner,
		courseList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		itemList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init loads the user's saved content.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.courseList.SetSize(msg.Width-4, msg.Height-8)
		m.itemList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CourseListView:
			return m.handleCourseListKeys(msg)
		case ItemListView:
			return m.handleItemListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgContentLoaded:
			data := msg.data.(contentLoaded)
			if data.err != nil {
				m.err = data.err
				return m, nil
			}
			m.err = nil
			m.setContent(data.content)
			return m, nil

		case MsgRemoved:
			data := msg.data.(removed)
			if data.err != nil {
				m.status = styles.err.Render(fmt.Sprintf("Failed to remove %s: %v", data.title, data.err))
				return m, nil
			}
			m.status = styles.ok.Render("✓ Removed " + data.title)
			return m, m.load()
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	var body string
	switch m.view {
	case CourseListView:
		body = m.renderCourseList()
	case ItemListView:
		body = m.renderItemList()
	case ConfirmView:
		body = m.renderConfirm()
	}

	if m.status != "" {
		body = fmt.Sprintf("%s\n%s", body, m.status)
	}
	return body
}

// State returns the current view state.
func (m *Model) State() ViewState { return m.view }

func (m *Model) handleCourseListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.courseList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.load()
	case key.Matches(msg, m.keys.enter):
		if c, ok := m.courseList.SelectedItem().(courseItem); ok {
			m.openCourse(c)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if c, ok := m.courseList.SelectedItem().(courseItem); ok && c.ref != nil {
			m.pending = pending{course: c.ref, from: CourseListView}
			m.view = ConfirmView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleItemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.itemList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CourseListView
		m.selected = ""
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if l, ok := m.itemList.SelectedItem().(leafItem); ok {
			m.pending = pending{leaf: &l, from: ItemListView}
			m.view = ConfirmView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		p := m.pending
		m.pending = pending{}
		m.view = p.from
		return m, m.remove(p)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = m.pending.from
		m.pending = pending{}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CourseListView:
		m.courseList, cmd = m.courseList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

// setContent rebuilds both lists. The item view stays open while its course exists.
func (m *Model) setContent(content models.SavedContent) {
	m.courses = groupCourses(content)

	items := make([]list.Item, len(m.courses))
	for i, c := range m.courses {
		items[i] = c
	}
	m.courseList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.courseList.Title = fmt.Sprintf("Saved courses for %s", m.owner)
	m.courseList.SetSize(m.width-4, m.height-8)

	if m.view != ItemListView {
		return
	}
	for _, c := range m.courses {
		if c.name == m.selected {
			m.openCourse(c)
			return
		}
	}
	m.view = CourseListView
	m.selected = ""
}

func (m *Model) openCourse(c courseItem) {
	items := make([]list.Item, len(c.items))
	for i, l := range c.items {
		items[i] = l
	}

	m.itemList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.itemList.Title = fmt.Sprintf("Saved in '%s'", c.name)
	m.itemList.SetSize(m.width-4, m.height-8)
	m.selected = c.name
	m.view = ItemListView
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		content, err := m.saved.ListAll(m.userID)
		return contentLoadedMsg(content, err)
	}
}

func (m *Model) remove(p pending) tea.Cmd {
	return func() tea.Msg {
		var err error
		if p.course != nil {
			_, err = m.saved.RemoveCourse(m.userID, p.course.ID)
		} else {
			_, err = m.saved.RemoveLeaf(m.userID, p.leaf.kind, p.leaf.item.ID)
		}
		return removedMsg(p.title(), err)
	}
}

func (m *Model) renderCourseList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.remove, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if len(m.courses) == 0 {
		empty := styles.help.Render("Nothing saved yet.")
		return fmt.Sprintf("%s\n\n%s\n\n%s", styles.title.Render(fmt.Sprintf("Saved courses for %s", m.owner)), empty, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.courseList.View(), helpView)
}

func (m *Model) renderItemList() string {
	helpKeys := []key.Binding{m.keys.remove, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.itemList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Remove %s?", m.pending.title()))

	var info string
	if m.pending.course != nil {
		info = styles.warn.Render("\nItems saved under this course are kept and listed as unsorted.\n")
	} else {
		info = styles.warn.Render("\nThe course is removed too when this is its last saved item.\n")
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
