package store

import "context"

const (
	// SystemSettingSchemaVersionName stores the applied schema version.
	SystemSettingSchemaVersionName = "schema_version"
)

type SystemSetting struct {
	Name        string
	Value       string
	Description string
}

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	return s.driver.UpsertSystemSetting(ctx, upsert)
}

// GetSystemSetting returns the setting with the given name, or nil when unset.
func (s *Store) GetSystemSetting(ctx context.Context, name string) (*SystemSetting, error) {
	return s.driver.GetSystemSetting(ctx, name)
}
