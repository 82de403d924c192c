package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/notenexus/internal/shared"
)

// Kind identifies one of the three leaf collections a user can save into.
type Kind string

const (
	KindNote     Kind = "note"
	KindSyllabus Kind = "syllabus"
	KindPaper    Kind = "paper"
)

// Kinds lists every leaf kind in the order collections are rendered.
var Kinds = []Kind{KindNote, KindSyllabus, KindPaper}

// ParseKind maps a singular or plural route segment onto a [Kind].
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note", "notes":
		return KindNote, nil
	case "syllabus", "syllabi":
		return KindSyllabus, nil
	case "paper", "papers", "question-paper", "question-papers":
		return KindPaper, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", shared.ErrValidation, s)
	}
}

// Plural returns the listing route segment for the kind.
func (k Kind) Plural() string {
	switch k {
	case KindNote:
		return "notes"
	case KindPaper:
		return "papers"
	default:
		return string(k)
	}
}

// Label returns a human readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindNote:
		return "Note"
	case KindSyllabus:
		return "Syllabus"
	case KindPaper:
		return "Question paper"
	default:
		return string(k)
	}
}

// LeafItem is a saved reference to a note, syllabus or question paper.
//
// Identity is the generated ID; duplicate detection uses (Title, CourseName).
type LeafItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CourseName string    `json:"courseName"`
	URL        string    `json:"url"`
	DateAdded  time.Time `json:"dateAdded"`
}

// Key returns the normalized (title, course) duplicate-detection key.
func (l LeafItem) Key() string {
	return shared.NormalizeKey(l.Title, l.CourseName)
}

// UnmarshalJSON accepts records written with the legacy "_id" field.
func (l *LeafItem) UnmarshalJSON(data []byte) error {
	type alias LeafItem
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = aux.LegacyID
	}
	return nil
}

// CourseRef is a saved course. Identity for duplicate detection is the normalized course name.
type CourseRef struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	CourseName string    `json:"courseName"`
	DateAdded  time.Time `json:"dateAdded"`
}

// Key returns the normalized course-name key.
func (c CourseRef) Key() string {
	return shared.NormalizeKey(c.CourseName)
}

// UnmarshalJSON accepts records written with the legacy "_id" field and fills a missing courseId.
func (c *CourseRef) UnmarshalJSON(data []byte) error {
	type alias CourseRef
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.LegacyID
	}
	if c.CourseID == "" {
		c.CourseID = c.ID
	}
	return nil
}

// SavedContent bundles a user's four saved collections.
type SavedContent struct {
	SavedCourses  []CourseRef `json:"savedCourses"`
	SavedNotes    []LeafItem  `json:"savedNotes"`
	SavedSyllabus []LeafItem  `json:"savedSyllabus"`
	SavedPapers   []LeafItem  `json:"savedPapers"`
}

// Leaves returns the collection for kind.
func (s SavedContent) Leaves(kind Kind) []LeafItem {
	switch kind {
	case KindNote:
		return s.SavedNotes
	case KindSyllabus:
		return s.SavedSyllabus
	case KindPaper:
		return s.SavedPapers
	default:
		return nil
	}
}

// Total returns the number of saved records across all four collections.
func (s SavedContent) Total() int {
	return len(s.SavedCourses) + len(s.SavedNotes) + len(s.SavedSyllabus) + len(s.SavedPapers)
}

// User is an account record and the owner of all saved collections.
type User struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Password      string      `json:"password,omitempty"`
	IsAdmin       bool        `json:"isAdmin,omitempty"`
	DateAdded     time.Time   `json:"dateAdded"`
	SavedCourses  []CourseRef `json:"savedCourses"`
	SavedNotes    []LeafItem  `json:"savedNotes"`
	SavedSyllabus []LeafItem  `json:"savedSyllabus"`
	SavedPapers   []LeafItem  `json:"savedPapers"`
}

// NewUser creates a [User] with empty collections. The caller assigns the ID.
func NewUser(name, email, passwordHash string) *User {
	return &User{
		Name:          name,
		Email:         strings.TrimSpace(email),
		Password:      passwordHash,
		DateAdded:     time.Now().UTC(),
		SavedCourses:  []CourseRef{},
		SavedNotes:    []LeafItem{},
		SavedSyllabus: []LeafItem{},
		SavedPapers:   []LeafItem{},
	}
}

// GetID implements [Model].
func (u *User) GetID() string { return u.ID }

// Validate implements [Model].
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrValidation)
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	return nil
}

// Leaves returns the user's collection for kind.
func (u *User) Leaves(kind Kind) []LeafItem {
	switch kind {
	case KindNote:
		return u.SavedNotes
	case KindSyllabus:
		return u.SavedSyllabus
	case KindPaper:
		return u.SavedPapers
	default:
		return nil
	}
}

// SetLeaves replaces the user's collection for kind.
func (u *User) SetLeaves(kind Kind, items []LeafItem) {
	switch kind {
	case KindNote:
		u.SavedNotes = items
	case KindSyllabus:
		u.SavedSyllabus = items
	case KindPaper:
		u.SavedPapers = items
	}
}

// Content returns copies of the four collections with nil slices replaced by empty ones.
func (u *User) Content() SavedContent {
	return SavedContent{
		SavedCourses:  cloneSlice(u.SavedCourses),
		SavedNotes:    cloneSlice(u.SavedNotes),
		SavedSyllabus: cloneSlice(u.SavedSyllabus),
		SavedPapers:   cloneSlice(u.SavedPapers),
	}
}

// Clone returns a deep copy of the user record.
func (u *User) Clone() *User {
	c := *u
	c.SavedCourses = cloneSlice(u.SavedCourses)
	c.SavedNotes = cloneSlice(u.SavedNotes)
	c.SavedSyllabus = cloneSlice(u.SavedSyllabus)
	c.SavedPapers = cloneSlice(u.SavedPapers)
	return &c
}

// Sanitized returns a deep copy without the password hash.
func (u *User) Sanitized() *User {
	c := u.Clone()
	c.Password = ""
	return c
}

// Document is the persisted user table.
type Document struct {
	Users []*User `json:"users"`
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
