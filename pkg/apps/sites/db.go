package sites

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/picosh/sites/pkg/db"
	"github.com/picosh/sites/pkg/db/memory"
	"github.com/picosh/sites/pkg/db/postgres"
	"github.com/picosh/sites/pkg/db/sqlite"
)

// OpenFunc opens the registry named by dbURL. Relative file paths are
// resolved against projectDir.
type OpenFunc func(dbURL, projectDir string, logger *slog.Logger) (db.SiteDB, error)

var _ OpenFunc = OpenDB

func OpenDB(dbURL, projectDir string, logger *slog.Logger) (db.SiteDB, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		pg, err := postgres.NewDB(dbURL, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		fpath := strings.TrimPrefix(dbURL, "sqlite://")
		if fpath == "" {
			return nil, fmt.Errorf("sqlite database url is missing a path: %s", dbURL)
		}
		if fpath != ":memory:" && !filepath.IsAbs(fpath) {
			fpath = filepath.Join(projectDir, fpath)
		}
		return openSqlite(fpath, logger)
	case strings.HasPrefix(dbURL, "file:"):
		return openSqlite(dbURL, logger)
	case dbURL == "memory://":
		return memory.NewDBMemory(logger), nil
	}
	return nil, fmt.Errorf("unsupported database url scheme: %s", redactURL(dbURL))
}

func openSqlite(dsn string, logger *slog.Logger) (db.SiteDB, error) {
	lite, err := sqlite.NewSqliteDB(dsn, logger)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// redactURL drops everything after the scheme so credentials never
// reach the logs.
func redactURL(dbURL string) string {
	scheme, _, found := strings.Cut(dbURL, "://")
	if !found {
		return "<invalid>"
	}
	return scheme + "://..."
}
