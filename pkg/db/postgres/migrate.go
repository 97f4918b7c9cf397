package postgres

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
)

const (
	sqlCreateMigrations = `CREATE TABLE IF NOT EXISTS schema_migrations (
		name text PRIMARY KEY,
		applied_at timestamp without time zone NOT NULL DEFAULT NOW()
	)`
	sqlSelectMigrations = `SELECT name FROM schema_migrations`
	sqlInsertMigration  = `INSERT INTO schema_migrations (name) VALUES ($1)`
)

// MigrationFiles returns the .sql files in dir sorted by name. Files are
// date-prefixed so lexical order is apply order.
func MigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	files := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Migrate applies every migration in dir that has not been recorded in
// schema_migrations yet, each in its own transaction.
func Migrate(conn *sqlx.DB, dir string, logger *slog.Logger) ([]string, error) {
	files, err := MigrationFiles(dir)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(sqlCreateMigrations); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	done := []string{}
	if err := conn.Select(&done, sqlSelectMigrations); err != nil {
		return nil, err
	}
	applied := map[string]bool{}
	for _, name := range done {
		applied[name] = true
	}

	ran := []string{}
	for _, name := range files {
		if applied[name] {
			logger.Debug("migration already applied", "name", name)
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return ran, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		err = applyMigration(conn, name, string(content))
		if err != nil {
			return ran, err
		}
		logger.Info("migration applied", "name", name)
		ran = append(ran, name)
	}

	return ran, nil
}

func applyMigration(conn *sqlx.DB, name, content string) error {
	tx, err := conn.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(content); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	if _, err := tx.Exec(sqlInsertMigration, name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}

	return tx.Commit()
}
