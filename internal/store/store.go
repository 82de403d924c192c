// package store owns the user table and every user's saved collections.
//
// The saved course list is derived from leaf saves: saving a note, syllabus or
// question paper registers its course, and removing the last leaf that mentions a
// course drops it again. Courses saved or removed directly never touch leaves.
package store

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// DefaultURL is stored for leaves saved without a link.
const DefaultURL = "#"

// LeafInput carries the caller supplied fields of a leaf save.
type LeafInput struct {
	Title      string
	CourseName string
	URL        string
}

// Stats summarizes the user table.
type Stats struct {
	TotalUsers      int `json:"totalUsers"`
	TotalCourses    int `json:"totalCourses"`
	TotalSavedItems int `json:"totalSavedItems"`
}

// Option configures a [Store].
type Option func(*Store)

// WithClock replaces the time source used for dateAdded stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the generator used for user, leaf and course IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Store serializes mutations per user and persists each one as a single repository update.
//
// Records held in the table are never modified in place: a mutation clones the record,
// applies the change, persists the clone and only then swaps it in. Readers can
// therefore copy a record under the table read lock without taking the user lock.
type Store struct {
	repo   models.Repository[*models.User]
	logger *log.Logger
	now    func() time.Time
	newID  func() string

	mu    sync.RWMutex
	users map[string]*models.User
	order []string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Open loads the whole user table from repo.
func Open(repo models.Repository[*models.User], logger *log.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{
		repo:   repo,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  shared.GenerateID,
		users:  make(map[string]*models.User),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	users, err := repo.List(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	for _, u := range users {
		if _, ok := s.users[u.ID]; ok {
			s.logger.Warn("skipping duplicate user record", "id", u.ID)
			continue
		}
		s.users[u.ID] = u.Clone()
		s.order = append(s.order, u.ID)
	}

	s.logger.Debug("user table loaded", "users", len(s.order))
	return s, nil
}

// Close closes the repository when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SaveLeaf appends a leaf to the kind's collection and registers its course when the
// user has not saved it yet. Returns the updated collection.
func (s *Store) SaveLeaf(userID string, kind models.Kind, in LeafInput) ([]models.LeafItem, error) {
	if !slices.Contains(models.Kinds, kind) {
		return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrValidation, kind)
	}

	title := strings.TrimSpace(in.Title)
	courseName := strings.TrimSpace(in.CourseName)
	if title == "" || courseName == "" {
		return nil, fmt.Errorf("%w: title and course name are required", shared.ErrValidation)
	}

	url := strings.TrimSpace(in.URL)
	if url == "" {
		url = DefaultURL
	}

	u, err := s.mutate(userID, func(u *models.User) error {
		leaves := u.Leaves(kind)
		item := models.LeafItem{
			ID:         s.newID(),
			Title:      title,
			CourseName: courseName,
			URL:        url,
			DateAdded:  s.now(),
		}

		key := item.Key()
		for _, l := range leaves {
			if l.Key() == key {
				return fmt.Errorf("%w: %s %q in %q", shared.ErrDuplicate, strings.ToLower(kind.Label()), title, courseName)
			}
		}

		u.SetLeaves(kind, append(leaves, item))

		if courseIndex(u.SavedCourses, models.CourseRef{CourseName: courseName}.Key()) < 0 {
			id := s.newID()
			u.SavedCourses = append(u.SavedCourses, models.CourseRef{
				ID:         id,
				CourseID:   id,
				CourseName: courseName,
				DateAdded:  item.DateAdded,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("saved leaf", "user", userID, "kind", kind, "title", title, "course", courseName)
	return u.Content().Leaves(kind), nil
}

// RemoveLeaf deletes the leaf with leafID from the kind's collection. When no leaf of
// any kind references its course any longer, the course is removed too.
func (s *Store) RemoveLeaf(userID string, kind models.Kind, leafID string) ([]models.LeafItem, error) {
	if !slices.Contains(models.Kinds, kind) {
		return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrValidation, kind)
	}

	u, err := s.mutate(userID, func(u *models.User) error {
		leaves := u.Leaves(kind)
		i := slices.IndexFunc(leaves, func(l models.LeafItem) bool { return l.ID == leafID })
		if i < 0 {
			return fmt.Errorf("%w: %s %s", shared.ErrNotFound, strings.ToLower(kind.Label()), leafID)
		}

		removed := leaves[i]
		u.SetLeaves(kind, slices.Delete(leaves, i, i+1))

		courseKey := models.CourseRef{CourseName: removed.CourseName}.Key()
		if !referenced(u, courseKey) {
			u.SavedCourses = slices.DeleteFunc(u.SavedCourses, func(c models.CourseRef) bool {
				return c.Key() == courseKey
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("removed leaf", "user", userID, "kind", kind, "id", leafID)
	return u.Content().Leaves(kind), nil
}

// SaveCourse saves a course directly. courseID is optional and defaults to the generated ID.
func (s *Store) SaveCourse(userID, courseName, courseID string) ([]models.CourseRef, error) {
	courseName = strings.TrimSpace(courseName)
	courseID = strings.TrimSpace(courseID)
	if courseName == "" {
		return nil, fmt.Errorf("%w: course name is required", shared.ErrValidation)
	}

	u, err := s.mutate(userID, func(u *models.User) error {
		ref := models.CourseRef{ID: s.newID(), CourseID: courseID, CourseName: courseName, DateAdded: s.now()}
		if ref.CourseID == "" {
			ref.CourseID = ref.ID
		}

		for _, c := range u.SavedCourses {
			if c.Key() == ref.Key() || (courseID != "" && c.CourseID == courseID) {
				return fmt.Errorf("%w: course %q", shared.ErrDuplicate, courseName)
			}
		}

		u.SavedCourses = append(u.SavedCourses, ref)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("saved course", "user", userID, "course", courseName)
	return u.Content().SavedCourses, nil
}

// RemoveCourse removes the saved course whose id or courseId equals courseID.
// Leaves that mention the course are kept.
func (s *Store) RemoveCourse(userID, courseID string) ([]models.CourseRef, error) {
	u, err := s.mutate(userID, func(u *models.User) error {
		i := slices.IndexFunc(u.SavedCourses, func(c models.CourseRef) bool {
			return c.ID == courseID || c.CourseID == courseID
		})
		if i < 0 {
			return fmt.Errorf("%w: course %s", shared.ErrNotFound, courseID)
		}

		u.SavedCourses = slices.Delete(u.SavedCourses, i, i+1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("removed course", "user", userID, "id", courseID)
	return u.Content().SavedCourses, nil
}

// ListAll returns copies of the user's four collections; none of them is nil.
func (s *Store) ListAll(userID string) (models.SavedContent, error) {
	u, err := s.lookup(userID)
	if err != nil {
		return models.SavedContent{}, err
	}
	return u.Content(), nil
}

// List returns a copy of the user's collection for kind.
func (s *Store) List(userID string, kind models.Kind) ([]models.LeafItem, error) {
	content, err := s.ListAll(userID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(models.Kinds, kind) {
		return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrValidation, kind)
	}
	return content.Leaves(kind), nil
}

// Courses returns a copy of the user's saved courses.
func (s *Store) Courses(userID string) ([]models.CourseRef, error) {
	content, err := s.ListAll(userID)
	if err != nil {
		return nil, err
	}
	return content.SavedCourses, nil
}

// CreateUser adds a user with empty collections. Emails are unique ignoring case.
func (s *Store) CreateUser(name, email, passwordHash string) (*models.User, error) {
	u := models.NewUser(strings.TrimSpace(name), email, passwordHash)
	u.ID = s.newID()
	u.DateAdded = s.now()

	if err := u.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmail(u.Email) != nil {
		return nil, fmt.Errorf("%w: user %s", shared.ErrDuplicate, u.Email)
	}

	if err := s.repo.Create(u); err != nil {
		return nil, fmt.Errorf("failed to persist user %s: %w", u.Email, err)
	}

	s.users[u.ID] = u
	s.order = append(s.order, u.ID)

	s.logger.Info("created user", "id", u.ID, "email", u.Email)
	return u.Clone(), nil
}

// User returns a copy of the user with id.
func (s *Store) User(id string) (*models.User, error) {
	u, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// UserByEmail returns a copy of the user whose email matches, ignoring case.
func (s *Store) UserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.findByEmail(email); u != nil {
		return u.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, strings.TrimSpace(email))
}

// Users returns copies of every user in creation order.
func (s *Store) Users() []*models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id].Clone())
	}
	return users
}

// DeleteUser removes a user and everything they saved.
func (s *Store) DeleteUser(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.lookup(id); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	s.mu.Lock()
	delete(s.users, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	s.mu.Unlock()

	s.logger.Info("deleted user", "id", id)
	return nil
}

// Stats counts users, distinct saved course names and saved records of every collection.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courses := make(map[string]struct{})
	stats := Stats{TotalUsers: len(s.users)}
	for _, u := range s.users {
		for _, c := range u.SavedCourses {
			courses[c.Key()] = struct{}{}
		}
		stats.TotalSavedItems += u.Content().Total()
	}
	stats.TotalCourses = len(courses)
	return stats
}

// mutate runs fn against a clone of the user's record while holding the user's lock,
// persists the clone and swaps it into the table. On any error the table keeps the
// previous record.
func (s *Store) mutate(userID string, fn func(u *models.User) error) (*models.User, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.lookup(userID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if err := s.repo.Update(next); err != nil {
		s.logger.Error("failed to persist user", "id", userID, "error", err)
		return nil, fmt.Errorf("failed to persist user %s: %w", userID, err)
	}

	s.mu.Lock()
	s.users[userID] = next
	s.mu.Unlock()

	return next, nil
}

func (s *Store) lookup(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return u, nil
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// findByEmail expects s.mu to be held.
func (s *Store) findByEmail(email string) *models.User {
	email = strings.TrimSpace(email)
	for _, id := range s.order {
		if u := s.users[id]; strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func courseIndex(courses []models.CourseRef, key string) int {
	return slices.IndexFunc(courses, func(c models.CourseRef) bool { return c.Key() == key })
}

func referenced(u *models.User, courseKey string) bool {
	for _, kind := range models.Kinds {
		for _, l := range u.Leaves(kind) {
			if (models.CourseRef{CourseName: l.CourseName}).Key() == courseKey {
				return true
			}
		}
	}
	return false
}
