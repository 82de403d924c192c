package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// unsortedTitle names the entry collecting items whose course is not saved.
const unsortedTitle = "Unsorted"

var (
	_ list.Item = courseItem{}
	_ list.Item = leafItem{}
)

// courseItem wraps a saved [models.CourseRef] to implement [list.Item].
//
// A nil ref marks the unsorted entry, which cannot be removed.
type courseItem struct {
	name  string
	ref   *models.CourseRef
	items []leafItem
}

func (i courseItem) FilterValue() string { return i.name }
func (i courseItem) Title() string       { return i.name }
func (i courseItem) Description() string {
	desc := fmt.Sprintf("%d saved items", len(i.items))
	if i.ref != nil && !i.ref.DateAdded.IsZero() {
		desc = fmt.Sprintf("%s • added %s", desc, i.ref.DateAdded.Format(time.DateOnly))
	}
	return desc
}

// leafItem wraps a [models.LeafItem] and its kind to implement [list.Item].
type leafItem struct {
	kind models.Kind
	item models.LeafItem
}

func (i leafItem) FilterValue() string { return i.item.Title }
func (i leafItem) Title() string       { return i.item.Title }
func (i leafItem) Description() string {
	desc := styles.badge(i.kind)
	if i.item.URL != "" && i.item.URL != "#" {
		desc = fmt.Sprintf("%s • %s", desc, i.item.URL)
	}
	return desc
}

// groupCourses builds one entry per saved course in saved order, followed by the
// unsorted entry when some items reference a course that is not saved.
func groupCourses(content models.SavedContent) []courseItem {
	courses := make([]courseItem, 0, len(content.SavedCourses)+1)
	index := make(map[string]int, len(content.SavedCourses))

	for _, c := range content.SavedCourses {
		if _, ok := index[c.Key()]; ok {
			continue
		}
		ref := c
		index[c.Key()] = len(courses)
		courses = append(courses, courseItem{name: c.CourseName, ref: &ref})
	}

	unsorted := courseItem{name: unsortedTitle}
	for _, kind := range models.Kinds {
		for _, item := range content.Leaves(kind) {
			entry := leafItem{kind: kind, item: item}
			if i, ok := index[shared.NormalizeKey(item.CourseName)]; ok {
				courses[i].items = append(courses[i].items, entry)
				continue
			}
			unsorted.items = append(unsorted.items, entry)
		}
	}

	if len(unsorted.items) > 0 {
		courses = append(courses, unsorted)
	}
	return courses
}
