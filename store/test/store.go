package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/noterag/internal/profile"
	"github.com/hrygo/noterag/internal/version"
	"github.com/hrygo/noterag/store"
	"github.com/hrygo/noterag/store/db"
)

// NewTestingStore returns a migrated store backed by a temporary SQLite file,
// or by a PostgreSQL container when DRIVER=postgres.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, profile)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	mode := "prod"
	driver := getDriverFromEnv()

	dir := t.TempDir()
	dsn := filepath.Join(dir, fmt.Sprintf("noterag_%s.db", mode))
	if driver == "postgres" {
		dsn = GetPostgresDSN(t)
	}
	return &profile.Profile{
		Mode:    mode,
		Data:    dir,
		DSN:     dsn,
		Driver:  driver,
		Version: version.GetCurrentVersion(mode),
	}
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
