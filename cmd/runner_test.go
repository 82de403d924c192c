package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
	tu "github.com/desertthunder/notenexus/internal/testing"
)

// testConfig returns a config whose storage and catalog live under t.TempDir().
func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Storage.Driver = "json"
	config.Storage.Path = filepath.Join(dir, "db.json")
	config.Catalog.Root = filepath.Join(dir, "database")
	config.Auth.JWTSecret = "test-secret"

	tu.WriteFile(t, filepath.Join(config.Catalog.Root, "Physics", "week1.txt"), "waves")
	tu.WriteFile(t, filepath.Join(config.Catalog.Root, "Physics", "Syllabus", "outline.txt"), "outline")
	return config
}

// run executes args against a fresh app, the way main wires it.
func run(t *testing.T, config *shared.Config, args ...string) (string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	tu.WriteFile(t, configPath, "")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     log.New(&bytes.Buffer{}),
		Output:     output,
	})

	app := &cli.Command{
		Name:     "notenexus",
		Flags:    []cli.Flag{&cli.StringFlag{Name: "config"}},
		Before:   runner.configure,
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), append([]string{"notenexus"}, args...))
	return output.String(), err
}

func mustRun(t *testing.T, config *shared.Config, args ...string) string {
	t.Helper()
	out, err := run(t, config, args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.Config() == nil {
				t.Fatal("expected default config")
			}
			if runner.Config().Storage.Driver != "json" {
				t.Errorf("expected default json driver, got %s", runner.Config().Storage.Driver)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		want := []string{"setup", "serve", "users", "saved", "catalog", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command at index %d: expected %s", i, want[i])
			}
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates config and json storage", func(t *testing.T) {
		t.Chdir(t.TempDir())

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			ConfigPath: "config.toml",
			Logger:     log.New(&bytes.Buffer{}),
			Output:     output,
		})

		if err := runner.Setup(context.Background(), &cli.Command{}); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}

		tu.AssertFileExists(t, "config.toml")
		tu.AssertFileExists(t, filepath.Join("data", "db.json"))
		if !strings.Contains(output.String(), "JSON storage ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("applies sqlite migrations", func(t *testing.T) {
		config := testConfig(t)
		config.Storage.Driver = "sqlite"
		config.Storage.Path = filepath.Join(t.TempDir(), "notenexus.db")

		configPath := filepath.Join(t.TempDir(), "config.toml")
		tu.WriteFile(t, configPath, "")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: configPath,
			Logger:     log.New(&bytes.Buffer{}),
			Output:     output,
		})

		if err := runner.Setup(context.Background(), &cli.Command{}); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
		if !strings.Contains(output.String(), "SQLite storage ready") {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := runner.Setup(context.Background(), &cli.Command{}); err != nil {
			t.Fatalf("second Setup failed: %v", err)
		}
		if !strings.Contains(output.String(), "(0 migrations applied now)") {
			t.Errorf("expected setup to be idempotent, got %q", output.String())
		}
	})

	t.Run("rolls back the latest sqlite migration", func(t *testing.T) {
		config := testConfig(t)
		config.Storage.Driver = "sqlite"
		config.Storage.Path = filepath.Join(t.TempDir(), "notenexus.db")

		mustRun(t, config, "setup")

		out := mustRun(t, config, "setup", "--rollback")
		if !strings.Contains(out, "Rolled back the latest migration") {
			t.Errorf("unexpected rollback output %q", out)
		}
		if !strings.Contains(out, "  0002 users_email_index") {
			t.Errorf("expected migration 0002 to be listed as pending, got %q", out)
		}

		out = mustRun(t, config, "setup")
		if !strings.Contains(out, "(1 migrations applied now)") {
			t.Errorf("expected the rolled back migration to be reapplied, got %q", out)
		}
	})

	t.Run("rollback requires sqlite", func(t *testing.T) {
		_, err := run(t, testConfig(t), "setup", "--rollback")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument error, got %v", err)
		}
	})

	t.Run("commands reject invalid config", func(t *testing.T) {
		config := testConfig(t)
		config.Storage.Driver = "mongo"

		_, err := run(t, config, "users", "list")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})
}

func TestUsersCommands(t *testing.T) {
	config := testConfig(t)

	out := mustRun(t, config, "users", "add", "--name", "Alice", "--email", "alice@example.com", "--password", "secret")
	if !strings.Contains(out, "Created user alice@example.com") {
		t.Errorf("unexpected add output %q", out)
	}

	if _, err := run(t, config, "users", "add", "--name", "Alice", "--email", "ALICE@example.com", "--password", "x"); !errors.Is(err, shared.ErrDuplicate) {
		t.Errorf("expected duplicate error, got %v", err)
	}

	t.Run("list hides passwords", func(t *testing.T) {
		out := mustRun(t, config, "users", "list", "--json")

		var users []*models.User
		if err := json.Unmarshal([]byte(out), &users); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(users) != 1 || users[0].Email != "alice@example.com" {
			t.Fatalf("unexpected users %+v", users)
		}
		if strings.Contains(out, "password") {
			t.Error("expected password to be omitted")
		}
	})

	t.Run("stats", func(t *testing.T) {
		mustRun(t, config, "saved", "add", "-u", "alice@example.com", "--kind", "note", "-t", "Week 1", "--course", "Physics")

		out := mustRun(t, config, "users", "stats", "--json")
		if !strings.Contains(out, `"totalUsers": 1`) || !strings.Contains(out, `"totalCourses": 1`) || !strings.Contains(out, `"totalSavedItems": 1`) {
			t.Errorf("unexpected stats %q", out)
		}
	})

	t.Run("backup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "backup.json")
		mustRun(t, config, "users", "backup", "-o", path)

		var backup Backup
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &backup); err != nil {
			t.Fatalf("invalid backup: %v", err)
		}
		if backup.Timestamp.IsZero() || len(backup.Users) != 1 {
			t.Errorf("unexpected backup %+v", backup)
		}
		if backup.Users[0].Password != "" {
			t.Error("expected backup without passwords")
		}
	})

	t.Run("export-all", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		out := mustRun(t, config, "users", "export-all", "-f", "csv", "-o", dir, "--workers", "2")
		if !strings.Contains(out, "Exported 1 of 1 users") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("delete", func(t *testing.T) {
		if _, err := run(t, config, "users", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument error, got %v", err)
		}

		mustRun(t, config, "users", "delete", "alice@example.com")

		if _, err := run(t, config, "users", "delete", "alice@example.com"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected user not found, got %v", err)
		}
	})
}

func TestSavedCommands(t *testing.T) {
	config := testConfig(t)
	mustRun(t, config, "users", "add", "--name", "Bob", "--email", "bob@example.com", "--password", "secret")

	user := []string{"--user", "bob@example.com"}
	saved := func(args ...string) []string { return append(append([]string{"saved"}, args...), user...) }

	mustRun(t, config, saved("add", "--kind", "note", "--title", "Week 1", "--course", "Physics", "--url", "database/Physics/week1.txt")...)
	mustRun(t, config, saved("add", "--kind", "paper", "--title", "Midterm", "--course", "Physics")...)
	mustRun(t, config, saved("course", "--name", "Chemistry", "--id", "chem-101")...)

	if _, err := run(t, config, saved("add", "--kind", "note", "--title", "week 1", "--course", "physics")...); !errors.Is(err, shared.ErrDuplicate) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if _, err := run(t, config, saved("add", "--kind", "lecture", "--title", "x", "--course", "y")...); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected validation error for unknown kind, got %v", err)
	}
	if _, err := run(t, config, "saved", "list", "--user", "nobody@example.com"); !errors.Is(err, shared.ErrUserNotFound) {
		t.Errorf("expected user not found, got %v", err)
	}

	var content models.SavedContent
	if err := json.Unmarshal([]byte(mustRun(t, config, saved("list", "--json")...)), &content); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(content.SavedCourses) != 2 || len(content.SavedNotes) != 1 || len(content.SavedPapers) != 1 {
		t.Fatalf("unexpected content %+v", content)
	}
	if content.SavedPapers[0].URL != "#" {
		t.Errorf("expected default url, got %q", content.SavedPapers[0].URL)
	}

	t.Run("list one kind", func(t *testing.T) {
		out := mustRun(t, config, saved("list", "--kind", "notes")...)
		if !strings.Contains(out, "Note (1)") || !strings.Contains(out, "Physics - Week 1") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("export", func(t *testing.T) {
		out := mustRun(t, config, saved("export", "--format", "markdown")...)
		if !strings.Contains(out, "# Saved content for bob@example.com") || !strings.Contains(out, "## Chemistry") {
			t.Errorf("unexpected markdown %q", out)
		}

		base := filepath.Join(t.TempDir(), "bob")
		mustRun(t, config, saved("export", "-f", "csv", "-o", base)...)
		if content := tu.MustReadFile(t, base+"_saved.csv"); !strings.Contains(content, "note,") {
			t.Errorf("unexpected csv %q", content)
		}

		if _, err := run(t, config, saved("export", "-f", "pdf")...); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid format error, got %v", err)
		}
	})

	t.Run("removing the last item removes its course", func(t *testing.T) {
		mustRun(t, config, saved("remove", "--kind", "note", "--id", content.SavedNotes[0].ID)...)
		mustRun(t, config, saved("remove", "--kind", "paper", "--id", content.SavedPapers[0].ID)...)

		if _, err := run(t, config, saved("remove", "--kind", "paper", "--id", content.SavedPapers[0].ID)...); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}

		var after models.SavedContent
		if err := json.Unmarshal([]byte(mustRun(t, config, saved("list", "--json")...)), &after); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if courses := after.SavedCourses; len(courses) != 1 || courses[0].CourseName != "Chemistry" {
			t.Errorf("expected only Chemistry to remain, got %+v", courses)
		}
	})

	t.Run("uncourse", func(t *testing.T) {
		out := mustRun(t, config, saved("uncourse", "--id", "chem-101")...)
		if !strings.Contains(out, "0 left") {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := run(t, config, saved("uncourse", "--id", "chem-101")...); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	config := testConfig(t)

	out := mustRun(t, config, "catalog", "list")
	if !strings.Contains(out, "1. Physics") {
		t.Errorf("unexpected list output %q", out)
	}

	out = mustRun(t, config, "catalog", "show", "--json", "Physics")
	if !strings.Contains(out, "week1.txt") || !strings.Contains(out, "outline.txt") {
		t.Errorf("unexpected show output %q", out)
	}

	if _, err := run(t, config, "catalog", "show", "Biology"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := run(t, config, "catalog", "show"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected missing argument, got %v", err)
	}
}

func TestServeHandler(t *testing.T) {
	config := testConfig(t)
	runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(&bytes.Buffer{}), Output: &bytes.Buffer{}})

	s, err := runner.openStore()
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer s.Close()

	if _, err := runner.handler(s); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	config.Auth.JWTSecret = ""
	if _, err := runner.handler(s); err == nil {
		t.Error("expected error without a signing secret")
	}

	config.Auth.JWTSecret = shared.TemplateJWTSecret
	if _, err := runner.handler(s); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for the example secret, got %v", err)
	}
}
