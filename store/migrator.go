package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/internal/version"
)

// Migration files live under migration/{driver}/{minor}/NN__description.sql.
// A fresh database gets LATEST.sql and is stamped with the current schema
// version. In prod mode, files newer than the stored version and not newer
// than the current version are applied in one transaction.

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit separates the patch number from the description, e.g. "01__indexes.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName holds the full schema for fresh installations.
	LatestSchemaFileName = "LATEST.sql"

	defaultSchemaVersion = "0.0.0"

	modeProd = "prod"
)

func getSchemaVersionOrDefault(schemaVersion string) string {
	if schemaVersion == "" {
		return defaultSchemaVersion
	}
	return schemaVersion
}

// shouldApplyMigration reports whether fileVersion lies in (current, target].
func shouldApplyMigration(fileVersion, currentDBVersion, targetVersion string) bool {
	return version.IsVersionGreaterThan(fileVersion, getSchemaVersionOrDefault(currentDBVersion)) &&
		version.IsVersionGreaterOrEqualThan(targetVersion, fileVersion)
}

func validateMigrationFileName(filename string) error {
	parts := strings.SplitN(filename, MigrateFileNameSplit, 2)
	if len(parts) < 2 {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate migrates the database schema to the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}
	if s.profile.Mode != modeProd {
		return nil
	}

	databaseVersion, err := s.getDatabaseSchemaVersion(ctx)
	if err != nil {
		return err
	}
	currentSchemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	if databaseVersion != "" && version.IsVersionGreaterThan(databaseVersion, currentSchemaVersion) {
		slog.Error("cannot downgrade schema version",
			slog.String("databaseVersion", databaseVersion),
			slog.String("currentVersion", currentSchemaVersion),
		)
		return errors.Errorf("cannot downgrade schema version from %s to %s", databaseVersion, currentSchemaVersion)
	}
	if databaseVersion == "" || version.IsVersionGreaterThan(currentSchemaVersion, databaseVersion) {
		if err := s.applyMigrations(ctx, databaseVersion, currentSchemaVersion); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}
	}
	return nil
}

// applyMigrations runs every migration file between current and target in a single transaction.
func (s *Store) applyMigrations(ctx context.Context, currentSchemaVersion, targetSchemaVersion string) error {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s*/*.sql", s.getMigrationBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(filePaths)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.String("currentSchemaVersion", getSchemaVersionOrDefault(currentSchemaVersion)),
		slog.String("targetSchemaVersion", targetSchemaVersion))

	applied := 0
	for _, filePath := range filePaths {
		fileSchemaVersion, err := s.getSchemaVersionOfMigrateScript(filePath)
		if err != nil {
			return errors.Wrap(err, "failed to get schema version of migrate script")
		}
		if !shouldApplyMigration(fileSchemaVersion, currentSchemaVersion, targetSchemaVersion) {
			continue
		}
		if err := validateMigrationFileName(filepath.Base(filePath)); err != nil {
			slog.Warn("migration file has invalid name but will be applied", slog.String("file", filePath), slog.String("error", err.Error()))
		}

		slog.Info("applying migration", slog.String("file", filePath), slog.String("version", fileSchemaVersion))
		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", applied))

	return s.updateCurrentSchemaVersion(ctx, targetSchemaVersion)
}

// preMigrate applies LATEST.sql when the database has not been initialized.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to read latest schema file")
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	schemaVersion, err := s.GetCurrentSchemaVersion()
	if err != nil {
		return errors.Wrap(err, "failed to get current schema version")
	}
	slog.Info("database initialized successfully", slog.String("schemaVersion", schemaVersion))
	return s.updateCurrentSchemaVersion(ctx, schemaVersion)
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// GetCurrentSchemaVersion returns the schema version shipped with this binary,
// derived from the newest migration file of the current minor version.
func (s *Store) GetCurrentSchemaVersion() (string, error) {
	minorVersion := version.GetMinorVersion(version.GetCurrentVersion(s.profile.Mode))
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s%s/*.sql", s.getMigrationBasePath(), minorVersion))
	if err != nil {
		return "", errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(filePaths)
	if len(filePaths) == 0 {
		return fmt.Sprintf("%s.0", minorVersion), nil
	}
	return s.getSchemaVersionOfMigrateScript(filePaths[len(filePaths)-1])
}

// getSchemaVersionOfMigrateScript maps "migration/sqlite/0.1/01__x.sql" to "0.1.2".
func (s *Store) getSchemaVersionOfMigrateScript(filePath string) (string, error) {
	if strings.HasSuffix(filePath, LatestSchemaFileName) {
		return s.GetCurrentSchemaVersion()
	}

	elements := strings.Split(filepath.ToSlash(filePath), "/")
	if len(elements) < 2 {
		return "", errors.Errorf("invalid file path: %s", filePath)
	}
	minorVersion := elements[len(elements)-2]
	rawPatchVersion := strings.Split(elements[len(elements)-1], MigrateFileNameSplit)[0]
	patchVersion, err := strconv.Atoi(rawPatchVersion)
	if err != nil {
		return "", errors.Wrapf(err, "failed to convert patch version to int: %s", rawPatchVersion)
	}
	return fmt.Sprintf("%s.%d", minorVersion, patchVersion+1), nil
}

// execute runs a migration script. Postgres scripts run one statement at a time.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	if s.profile.Driver != "postgres" {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return errors.Wrap(err, "failed to execute statement")
		}
		return nil
	}
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on top-level semicolons, skipping "--" comments
// and leaving quoted literals and $$ bodies intact.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	inSingleQuote, inDollarQuote := false, false

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case !inSingleQuote && !inDollarQuote && ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case !inSingleQuote && ch == '$' && i+1 < len(script) && script[i+1] == '$':
			inDollarQuote = !inDollarQuote
			current.WriteString("$$")
			i++
		case !inDollarQuote && ch == '\'':
			inSingleQuote = !inSingleQuote
			current.WriteByte(ch)
		case !inSingleQuote && !inDollarQuote && ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

func (s *Store) getDatabaseSchemaVersion(ctx context.Context) (string, error) {
	setting, err := s.GetSystemSetting(ctx, SystemSettingSchemaVersionName)
	if err != nil {
		return "", errors.Wrap(err, "failed to get schema version")
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}

func (s *Store) updateCurrentSchemaVersion(ctx context.Context, schemaVersion string) error {
	if _, err := s.UpsertSystemSetting(ctx, &SystemSetting{
		Name:        SystemSettingSchemaVersionName,
		Value:       schemaVersion,
		Description: "applied database schema version",
	}); err != nil {
		return errors.Wrap(err, "failed to update current schema version")
	}
	return nil
}
