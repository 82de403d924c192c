package repositories

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// setupTestDB creates an in-memory SQLite repository with migrations applied
func setupTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo, err := NewSQLiteRepository(sqlx.NewDb(db, "sqlite3"), testLogger())
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func newUser(id, email string) *models.User {
	u := models.NewUser("Test User", email, "hash")
	u.ID = id
	return u
}

func TestSQLiteRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := setupTestDB(t)
		user := models.NewUser("Test User", "test@example.com", "hash")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID == "" {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := setupTestDB(t)
		user := newUser("u1", "test@example.com")
		user.IsAdmin = true

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		got, err := repo.Get("u1")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if got.Email != "test@example.com" || got.Name != "Test User" || got.Password != "hash" {
			t.Errorf("unexpected user fields: %+v", got)
		}
		if !got.IsAdmin {
			t.Error("expected admin flag to round trip")
		}
		if got.SavedNotes == nil || got.SavedCourses == nil {
			t.Error("expected empty, non-nil collections")
		}
		if got.DateAdded.Sub(user.DateAdded).Abs() > time.Second {
			t.Errorf("expected dateAdded %v, got %v", user.DateAdded, got.DateAdded)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := setupTestDB(t)
		user := newUser("u1", "test@example.com")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		user.SavedCourses = append(user.SavedCourses, models.CourseRef{ID: "c1", CourseID: "c1", CourseName: "Algorithms", DateAdded: now})
		user.SavedPapers = append(user.SavedPapers, models.LeafItem{ID: "p1", Title: "Midterm", CourseName: "Algorithms", URL: "#", DateAdded: now})

		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, err := repo.Get("u1")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if len(got.SavedCourses) != 1 || got.SavedCourses[0].CourseName != "Algorithms" {
			t.Errorf("unexpected saved courses: %+v", got.SavedCourses)
		}
		if len(got.SavedPapers) != 1 || !got.SavedPapers[0].DateAdded.Equal(now) {
			t.Errorf("unexpected saved papers: %+v", got.SavedPapers)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := setupTestDB(t)

		if err := repo.Create(newUser("u1", "test@example.com")); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete("u1"); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get("u1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := setupTestDB(t)

		for _, u := range []*models.User{newUser("b", "b@example.com"), newUser("a", "a@example.com")} {
			if err := repo.Create(u); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		users, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 || users[0].ID != "b" || users[1].ID != "a" {
			t.Errorf("expected users in insertion order, got %d users", len(users))
		}

		filtered, err := repo.List(map[string]any{"email": "A@EXAMPLE.COM"})
		if err != nil {
			t.Fatalf("failed to list users by email: %v", err)
		}
		if len(filtered) != 1 || filtered[0].ID != "a" {
			t.Errorf("expected one user matching email, got %d", len(filtered))
		}
	})
}

func TestSQLiteRepositoryErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		repo := setupTestDB(t)

		err := repo.Create(newUser("u1", ""))
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected validation error for empty email, got %v", err)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := setupTestDB(t)

		if err := repo.Create(newUser("u1", "test@example.com")); err != nil {
			t.Fatalf("failed to create first user: %v", err)
		}

		err := repo.Create(newUser("u2", "TEST@example.com"))
		if !errors.Is(err, shared.ErrDuplicate) {
			t.Fatalf("expected duplicate error, got %v", err)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := setupTestDB(t)

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Fatalf("expected user not found, got %v", err)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo := setupTestDB(t)

		if err := repo.Update(newUser("ghost", "ghost@example.com")); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		repo := setupTestDB(t)

		if err := repo.Delete("ghost"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	repo := setupTestDB(t)

	next := func() int {
		t.Helper()
		tx, err := repo.db.Beginx()
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback()

		seq, err := NextSequence(tx, "users")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}
		return seq
	}

	if seq := next(); seq != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq)
	}
	if seq := next(); seq != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq)
	}

	tx, err := repo.db.Beginx()
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := NextSequence(tx, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestOpen(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		cfg := shared.StorageConfig{Driver: DriverJSON, Path: t.TempDir() + "/db.json"}

		repo, err := Open(cfg, testLogger())
		if err != nil {
			t.Fatalf("failed to open json backend: %v", err)
		}
		defer repo.Close()

		if _, ok := repo.(*JSONRepository); !ok {
			t.Errorf("expected *JSONRepository, got %T", repo)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := shared.StorageConfig{Driver: DriverSQLite, Path: t.TempDir() + "/db.sqlite"}

		repo, err := Open(cfg, testLogger())
		if err != nil {
			t.Fatalf("failed to open sqlite backend: %v", err)
		}
		defer repo.Close()

		if err := repo.Create(newUser("u1", "a@example.com")); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Open(shared.StorageConfig{Driver: "mongo"}, testLogger())
		if !errors.Is(err, shared.ErrUnsupportedDriver) {
			t.Errorf("expected unsupported driver error, got %v", err)
		}
	})
}
