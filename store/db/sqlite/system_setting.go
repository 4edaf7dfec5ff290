package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/store"
)

func (d *DB) UpsertSystemSetting(ctx context.Context, upsert *store.SystemSetting) (*store.SystemSetting, error) {
	stmt := `
		INSERT INTO system_setting (name, value, description)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE
		SET
			value = excluded.value,
			description = excluded.description
	`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Name, upsert.Value, upsert.Description); err != nil {
		return nil, errors.Wrap(err, "failed to upsert system setting")
	}
	return upsert, nil
}

func (d *DB) GetSystemSetting(ctx context.Context, name string) (*store.SystemSetting, error) {
	setting := &store.SystemSetting{}
	err := d.db.QueryRowContext(ctx, `SELECT name, value, description FROM system_setting WHERE name = ?`, name).Scan(
		&setting.Name,
		&setting.Value,
		&setting.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get system setting")
	}
	return setting, nil
}
