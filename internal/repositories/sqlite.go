package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

// userRow mirrors the users table.
type userRow struct {
	ID        string    `db:"id"`
	Sequence  int       `db:"sequence"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	IsAdmin   bool      `db:"is_admin"`
	Saved     string    `db:"saved"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const userColumns = "id, sequence, name, email, password, is_admin, saved, created_at, updated_at"

// SQLiteRepository implements [models.Repository] for [models.User] on SQLite.
type SQLiteRepository struct {
	db     *sqlx.DB
	logger *log.Logger
}

// NewSQLiteRepository applies pending migrations and returns a repository over db.
func NewSQLiteRepository(db *sqlx.DB, logger *log.Logger) (*SQLiteRepository, error) {
	applied, err := shared.ApplyMigrations(db.DB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("applied migrations", "versions", applied)
	}
	return &SQLiteRepository{db: db, logger: logger.With("component", "sqlite")}, nil
}

// Create inserts a new user with the next sequence number, generating an ID when empty.
func (r *SQLiteRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = shared.GenerateID()
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	row, err := toRow(user)
	if err != nil {
		return err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if row.Sequence, err = NextSequence(tx, "users"); err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :sequence, :name, :email, :password, :is_admin, :saved, :created_at, :updated_at)
	`
	if _, err := tx.NamedExec(query, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", shared.ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return tx.Commit()
}

// Get retrieves a user by ID.
func (r *SQLiteRepository) Get(id string) (*models.User, error) {
	var row userRow
	err := r.db.Get(&row, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return row.toUser()
}

// Update replaces the user's scalar fields and saved collections in a single statement.
func (r *SQLiteRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	row, err := toRow(user)
	if err != nil {
		return err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE users
		SET name = :name, email = :email, password = :password, is_admin = :is_admin, saved = :saved, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := tx.NamedExec(query, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s", shared.ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID)
	}

	return tx.Commit()
}

// Delete removes a user by ID.
func (r *SQLiteRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return nil
}

// List retrieves users in insertion order. Supported criteria: "email" (case-insensitive match).
func (r *SQLiteRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " WHERE email = ? COLLATE NOCASE"
		args = append(args, strings.TrimSpace(email))
	}
	query += " ORDER BY sequence ASC"

	var rows []userRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func toRow(u *models.User) (userRow, error) {
	saved, err := json.Marshal(u.Content())
	if err != nil {
		return userRow{}, fmt.Errorf("failed to encode saved content: %w", err)
	}

	created := u.DateAdded
	if created.IsZero() {
		created = time.Now().UTC()
	}

	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		IsAdmin:   u.IsAdmin,
		Saved:     string(saved),
		CreatedAt: created,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (row userRow) toUser() (*models.User, error) {
	var saved models.SavedContent
	if row.Saved != "" {
		if err := json.Unmarshal([]byte(row.Saved), &saved); err != nil {
			return nil, fmt.Errorf("failed to decode saved content for user %s: %w", row.ID, err)
		}
	}

	u := &models.User{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Password:      row.Password,
		IsAdmin:       row.IsAdmin,
		DateAdded:     row.CreatedAt.UTC(),
		SavedCourses:  saved.SavedCourses,
		SavedNotes:    saved.SavedNotes,
		SavedSyllabus: saved.SavedSyllabus,
		SavedPapers:   saved.SavedPapers,
	}
	return u.Clone(), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && (sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
