package store

import (
	"context"

	"github.com/hrygo/noterag/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.GetDB().PingContext(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
