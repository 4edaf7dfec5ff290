package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	// Import the pure Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/noterag/internal/profile"
	"github.com/hrygo/noterag/store"
)

// SQLite is intended for development, demos and tests. It stores notes and
// workflow state, while vectors live in the memory or qdrant index.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database file at profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Workers write concurrently with request handlers, so WAL and a busy
	// timeout are required to avoid SQLITE_BUSY.
	sep := "?"
	if strings.Contains(profile.DSN, "?") {
		sep = "&"
	}
	sqliteDB, err := sql.Open("sqlite", profile.DSN+sep+"_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'note')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}
