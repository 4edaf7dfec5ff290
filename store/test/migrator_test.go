package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/noterag/store"
)

func TestMigrateStampsSchemaVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	currentVersion, err := ts.GetCurrentSchemaVersion()
	require.NoError(t, err)
	require.Equal(t, "0.1.2", currentVersion)

	setting, err := ts.GetSystemSetting(ctx, store.SystemSettingSchemaVersionName)
	require.NoError(t, err)
	require.NotNil(t, setting)
	require.Equal(t, currentVersion, setting.Value)

	// Running again against an initialized database is a no-op.
	require.NoError(t, ts.Migrate(ctx))
}

func TestMigrateRejectsDowngrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.UpsertSystemSetting(ctx, &store.SystemSetting{
		Name:  store.SystemSettingSchemaVersionName,
		Value: "9.9.9",
	})
	require.NoError(t, err)
	require.Error(t, ts.Migrate(ctx))
}

func TestMigrateAppliesPendingMigrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	// Pretend the database predates the 0.1 migrations. They are idempotent.
	_, err := ts.UpsertSystemSetting(ctx, &store.SystemSetting{
		Name:  store.SystemSettingSchemaVersionName,
		Value: "0.0.1",
	})
	require.NoError(t, err)
	require.NoError(t, ts.Migrate(ctx))

	setting, err := ts.GetSystemSetting(ctx, store.SystemSettingSchemaVersionName)
	require.NoError(t, err)
	require.Equal(t, "0.1.2", setting.Value)
}
