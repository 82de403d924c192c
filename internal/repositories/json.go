package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// JSONRepository implements [models.Repository] for [models.User] as a single JSON document.
//
// The document is read once when the repository is opened. Every write serializes the
// complete table to a temporary file in the same directory, syncs it and renames it
// over the target, so readers of the file only ever see whole revisions.
type JSONRepository struct {
	path     string
	logger   *log.Logger
	attempts uint
	delay    time.Duration
	write    func(path string, data []byte) error

	mu    sync.Mutex
	users []*models.User
}

// JSONOption configures a [JSONRepository].
type JSONOption func(*JSONRepository)

// WithRetry sets how many times a failed document write is attempted and the base backoff delay.
func WithRetry(attempts uint, delay time.Duration) JSONOption {
	return func(r *JSONRepository) {
		r.attempts = attempts
		r.delay = delay
	}
}

// NewJSONRepository opens the document at path, creating it with an empty table when missing.
func NewJSONRepository(path string, logger *log.Logger, opts ...JSONOption) (*JSONRepository, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	r := &JSONRepository{
		path:     path,
		logger:   logger.With("component", "json", "path", path),
		attempts: 3,
		delay:    50 * time.Millisecond,
		write:    atomicWrite,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *JSONRepository) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("creating user table")
		r.users = []*models.User{}
		return r.persist(r.users)
	}
	if err != nil {
		return fmt.Errorf("failed to read user table: %w", err)
	}

	var doc models.Document
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse user table %s: %w", r.path, err)
		}
	}

	r.users = make([]*models.User, 0, len(doc.Users))
	for _, u := range doc.Users {
		if u != nil {
			r.users = append(r.users, u.Clone())
		}
	}

	if bytes.Contains(data, []byte(`"_id"`)) {
		r.logger.Info("rewriting legacy record ids")
		return r.persist(r.users)
	}
	return nil
}

// Create appends a new user, generating an ID when empty. IDs and emails are unique.
func (r *JSONRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = shared.GenerateID()
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: user %s", shared.ErrDuplicate, user.Email)
		}
	}

	next := append(slices.Clip(r.users), user.Clone())
	if err := r.persist(next); err != nil {
		return err
	}
	r.users = next
	return nil
}

// Get retrieves a user by ID.
func (r *JSONRepository) Get(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(id); i >= 0 {
		return r.users[i].Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
}

// Update replaces the stored record with user and rewrites the document.
func (r *JSONRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(user.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID)
	}

	next := slices.Clone(r.users)
	next[i] = user.Clone()
	if err := r.persist(next); err != nil {
		return err
	}
	r.users = next
	return nil
}

// Delete removes a user by ID and rewrites the document.
func (r *JSONRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}

	next := slices.Delete(slices.Clone(r.users), i, i+1)
	if err := r.persist(next); err != nil {
		return err
	}
	r.users = next
	return nil
}

// List returns users in document order. Supported criteria: "email" (case-insensitive match).
func (r *JSONRepository) List(criteria map[string]any) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email, _ := criteria["email"].(string)
	email = strings.TrimSpace(email)

	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		if email != "" && !strings.EqualFold(u.Email, email) {
			continue
		}
		users = append(users, u.Clone())
	}
	return users, nil
}

// Close is a no-op; every write is already durable.
func (r *JSONRepository) Close() error { return nil }

func (r *JSONRepository) index(id string) int {
	return slices.IndexFunc(r.users, func(u *models.User) bool { return u.ID == id })
}

// persist writes users as the complete document, retrying transient failures with backoff.
func (r *JSONRepository) persist(users []*models.User) error {
	data, err := json.MarshalIndent(models.Document{Users: users}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user table: %w", err)
	}

	err = retry.Do(
		func() error { return r.write(r.path, data) },
		retry.Attempts(max(r.attempts, 1)),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("retrying user table write", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to write user table: %w", shared.ErrStorage, err)
	}
	return nil
}

// atomicWrite replaces path with data via a synced temporary file and a rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
