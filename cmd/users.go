package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/auth"
	"github.com/desertthunder/notenexus/internal/formatter"
	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
	"github.com/desertthunder/notenexus/internal/store"
	"github.com/desertthunder/notenexus/internal/tasks"
)

// Backup is the document written by `users backup`.
type Backup struct {
	Timestamp time.Time      `json:"timestamp"`
	Users     []*models.User `json:"users"`
}

// UsersList prints every user without password hashes.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		users := sanitize(s.Users())
		if cmd.Bool("json") {
			return r.writeJSON(users, cmd.Bool("pretty"))
		}

		if len(users) == 0 {
			return r.writePlain("No users found\n")
		}

		r.writePlainHeader(fmt.Sprintf("Users (%d)", len(users)))
		for i, u := range users {
			content := u.Content()
			r.writePlain("%d. %s <%s>\n", i+1, u.Name, u.Email)
			r.writePlain("   ID: %s | Courses: %d | Items: %d\n", u.ID, len(content.SavedCourses), content.Total())
		}
		return nil
	})
}

// UsersAdd hashes the password and creates a user.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	hash, err := auth.HashPassword(cmd.String("password"))
	if err != nil {
		return err
	}

	return r.withStore(func(s *store.Store) error {
		u, err := s.CreateUser(cmd.String("name"), cmd.String("email"), hash)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Created user %s (%s)\n", u.Email, u.ID)
	})
}

// UsersDelete removes the user with the given email.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrMissingArgument)
	}

	return r.withStore(func(s *store.Store) error {
		u, err := s.UserByEmail(email)
		if err != nil {
			return err
		}
		if err := s.DeleteUser(u.ID); err != nil {
			return err
		}
		return r.writePlain("✓ Deleted user %s\n", u.Email)
	})
}

// UsersStats prints user and saved-item totals.
func (r *Runner) UsersStats(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		stats := s.Stats()
		if cmd.Bool("json") {
			return r.writeJSON(stats, cmd.Bool("pretty"))
		}

		r.writePlainHeader("Stats")
		r.writePlain("Users:       %d\n", stats.TotalUsers)
		r.writePlain("Courses:     %d\n", stats.TotalCourses)
		r.writePlain("Saved items: %d\n", stats.TotalSavedItems)
		return nil
	})
}

// UsersBackup writes all users, without passwords, to --output or stdout.
func (r *Runner) UsersBackup(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		backup := Backup{Timestamp: time.Now().UTC(), Users: sanitize(s.Users())}

		output := cmd.String("output")
		if output == "" {
			return r.writeJSON(backup, true)
		}

		data, err := json.MarshalIndent(backup, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal backup: %w", err)
		}
		if err := os.WriteFile(output, data, 0600); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}

		r.logger.Info("wrote backup", "path", output, "users", len(backup.Users))
		return r.writePlain("✓ Backed up %d users to %s\n", len(backup.Users), output)
	})
}

// UsersExportAll writes every user's saved content under one directory with a manifest.
func (r *Runner) UsersExportAll(ctx context.Context, cmd *cli.Command) error {
	return r.withStore(func(s *store.Store) error {
		progress := make(chan tasks.ProgressUpdate, 32)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for update := range progress {
				r.writePlain("%s\n", update.Message)
			}
		}()

		result, err := tasks.NewExporter(s, r.logger).BulkExport(ctx, progress, tasks.BulkExportOpts{
			Format:     formatter.Format(cmd.String("format")),
			OutputDir:  cmd.String("output"),
			NumWorkers: int(cmd.Int("workers")),
		})
		close(progress)
		<-done
		if err != nil {
			return err
		}

		r.writePlainln("✓ Exported %d of %d users to %s", result.SuccessfulExports, result.TotalUsers, result.OutputDirectory)
		if result.FailedExports > 0 {
			return fmt.Errorf("%d exports failed, see %s", result.FailedExports, result.ManifestPath)
		}
		return nil
	})
}

func sanitize(users []*models.User) []*models.User {
	out := make([]*models.User, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	return out
}
