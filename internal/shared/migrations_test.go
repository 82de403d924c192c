package shared

import (
	"database/sql"
	"slices"
	"testing"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected the users and email index migrations, got %d", len(migrations))
		}
		if migrations[0].Name != "create_users" || migrations[1].Name != "users_email_index" {
			t.Errorf("unexpected migration names: %q, %q", migrations[0].Name, migrations[1].Name)
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("ApplyMigrations reports applied versions", func(t *testing.T) {
		db := memoryDB(t)

		applied, err := ApplyMigrations(db)
		if err != nil {
			t.Fatalf("failed to apply migrations: %v", err)
		}
		if !slices.Equal(applied, []int{1, 2}) {
			t.Errorf("expected versions [1 2], got %v", applied)
		}

		applied, err = ApplyMigrations(db)
		if err != nil {
			t.Fatalf("failed to re-apply migrations: %v", err)
		}
		if len(applied) != 0 {
			t.Errorf("expected nothing applied the second time, got %v", applied)
		}
	})

	t.Run("MigrationStatus", func(t *testing.T) {
		db := memoryDB(t)

		states, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read status: %v", err)
		}
		for _, s := range states {
			if s.Applied {
				t.Errorf("migration %d should be pending on a new database", s.Version)
			}
		}

		if _, err := ApplyMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		states, err = MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read status: %v", err)
		}
		for _, s := range states {
			if !s.Applied {
				t.Errorf("migration %d should be applied", s.Version)
			}
		}
	})

	t.Run("email index ignores case", func(t *testing.T) {
		db := memoryDB(t)
		if _, err := ApplyMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		insert := "INSERT INTO users (id, sequence, email, created_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)"
		if _, err := db.Exec(insert, "u1", 1, "alice@example.com"); err != nil {
			t.Fatalf("failed to insert user: %v", err)
		}
		if _, err := db.Exec(insert, "u2", 2, "ALICE@example.com"); err == nil {
			t.Error("expected unique index to reject an email differing only by case")
		}
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		db := memoryDB(t)
		if _, err := ApplyMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback index migration: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback users migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM users LIMIT 1"); err == nil {
			t.Error("users table should be dropped after rolling back every migration")
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with nothing left to roll back")
		}
	})
}
