// Package ui implements an interactive terminal browser over a user's saved content using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [CourseListView] : Browse saved courses, plus an "Unsorted" entry for items whose course is no longer saved
//  2. [ItemListView] : Browse the notes, syllabus entries and question papers of one course
//  3. [ConfirmView] : Confirm removing a course or an item
//
// Removals go through the store, so removing the last item of a course also removes the course.
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
