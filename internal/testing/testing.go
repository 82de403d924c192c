// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// ErrInjected is returned by [MockRepository] when a failure has been armed.
var ErrInjected = errors.New("injected failure")

// MockRepository is an in-memory [models.Repository] for users with failure injection.
//
// Records are cloned on the way in and out so callers cannot alias stored state.
type MockRepository struct {
	mu      sync.Mutex
	users   map[string]*models.User
	order   []string
	failOn  map[string]int
	Updates int
}

// NewMockRepository seeds a repository with the given users.
func NewMockRepository(users ...*models.User) *MockRepository {
	m := &MockRepository{users: make(map[string]*models.User), failOn: make(map[string]int)}
	for _, u := range users {
		m.users[u.ID] = u.Clone()
		m.order = append(m.order, u.ID)
	}
	return m
}

// FailNext makes the next n calls of op ("create", "get", "update", "delete", "list") fail.
func (m *MockRepository) FailNext(op string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[op] = n
}

func (m *MockRepository) fail(op string) error {
	if m.failOn[op] > 0 {
		m.failOn[op]--
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

func (m *MockRepository) Create(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("create"); err != nil {
		return err
	}
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("%w: user %s", shared.ErrDuplicate, u.ID)
	}
	m.users[u.ID] = u.Clone()
	m.order = append(m.order, u.ID)
	return nil
}

func (m *MockRepository) Get(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("get"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return u.Clone(), nil
}

func (m *MockRepository) Update(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update"); err != nil {
		return err
	}
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, u.ID)
	}
	m.users[u.ID] = u.Clone()
	m.Updates++
	return nil
}

func (m *MockRepository) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("delete"); err != nil {
		return err
	}
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	delete(m.users, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockRepository) List(criteria map[string]any) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list"); err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(m.order))
	for _, id := range m.order {
		users = append(users, m.users[id].Clone())
	}
	return users, nil
}

// Stored returns a copy of the persisted record for id, or nil.
func (m *MockRepository) Stored(id string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u.Clone()
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// WriteFile creates path with content, including parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

