package repositories

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// UserRepository is a closable user table backend.
type UserRepository interface {
	models.Repository[*models.User]
	io.Closer
}

// Open returns the backend selected by cfg.Driver.
func Open(cfg shared.StorageConfig, logger *log.Logger) (UserRepository, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	switch cfg.Driver {
	case DriverJSON, "":
		return NewJSONRepository(cfg.Path, logger)
	case DriverSQLite:
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		return NewSQLiteRepository(sqlx.NewDb(db, "sqlite3"), logger)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedDriver, cfg.Driver)
	}
}

// NextSequence increments and returns the next sequence number for the given table within tx.
//
// Sequence numbers order rows by insertion (e.g. user #42) and are never exposed in CLI output.
func NextSequence(tx *sqlx.Tx, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.Get(&sequence, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}
