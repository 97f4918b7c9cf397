package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/picosh/sites/pkg/db"
	_ "modernc.org/sqlite"
)

var sqliteSchema = `
CREATE TABLE IF NOT EXISTS sites (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS sites_domain_idx ON sites (domain);
`

// schemaVersion is written to PRAGMA user_version once sqliteSchema has run.
const schemaVersion = 1

const (
	sqlSelectSite           = `SELECT id, domain, name, created_at, updated_at FROM sites WHERE id = ?`
	sqlSelectSitesForDomain = `SELECT id, domain, name, created_at, updated_at FROM sites WHERE domain = ? ORDER BY id ASC LIMIT 2`
	sqlSelectSites          = `SELECT id, domain, name, created_at, updated_at FROM sites ORDER BY id ASC`

	sqlInsertSite       = `INSERT INTO sites (domain) VALUES (?)`
	sqlUpdateSiteDomain = `UPDATE sites SET domain = ?1, updated_at = CASE WHEN domain <> ?1 THEN CURRENT_TIMESTAMP ELSE updated_at END WHERE id = ?2`
)

type SqliteDB struct {
	Logger *slog.Logger
	Db     *sqlx.DB
}

var _ db.SiteDB = (*SqliteDB)(nil)

func NewSqliteDB(dsn string, logger *slog.Logger) (*SqliteDB, error) {
	d := &SqliteDB{
		Logger: logger,
	}
	d.Logger.Info("connecting to sqlite", "dsn", dsn)

	conn, err := Open(dsn, logger)
	if err != nil {
		return nil, err
	}

	d.Db = conn
	return d, nil
}

// Open opens a database connection and brings the schema up to date.
func Open(dsn string, logger *slog.Logger) (*sqlx.DB, error) {
	logger.Debug("opening db file", "dsn", dsn)
	conn, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single writer keeps get-or-create serialized
	conn.SetMaxOpenConns(1)

	err = upgrade(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func upgrade(conn *sqlx.DB) error {
	var version int
	if err := conn.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to query schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if version > schemaVersion {
		return fmt.Errorf("sqlite file is at schema version %d, expected at most %d", version, schemaVersion)
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	// PRAGMA does not accept bound parameters
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to bump schema version: %w", err)
	}
	return nil
}

func (me *SqliteDB) Close() error {
	return me.Db.Close()
}

func (me *SqliteDB) FindSite(siteID int64) (*db.Site, error) {
	site := &db.Site{}
	err := me.Db.Get(site, sqlSelectSite, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return site, nil
}

func (me *SqliteDB) FindSiteByDomain(domain string) (*db.Site, error) {
	sites := []*db.Site{}
	err := me.Db.Select(&sites, sqlSelectSitesForDomain, domain)
	if err != nil {
		return nil, err
	}
	return db.SingleSite(domain, sites)
}

func (me *SqliteDB) FindSites() ([]*db.Site, error) {
	sites := []*db.Site{}
	err := me.Db.Select(&sites, sqlSelectSites)
	return sites, err
}

func (me *SqliteDB) UpdateSiteDomain(siteID int64, domain string) (int64, error) {
	res, err := me.Db.Exec(sqlUpdateSiteDomain, domain, siteID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (me *SqliteDB) GetOrCreateSite(domain string) (*db.Site, bool, error) {
	tx, err := me.Db.Beginx()
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sites := []*db.Site{}
	err = tx.Select(&sites, sqlSelectSitesForDomain, domain)
	if err != nil {
		return nil, false, err
	}
	site, err := db.SingleSite(domain, sites)
	if err == nil {
		return site, false, tx.Commit()
	}
	if !errors.Is(err, db.ErrSiteNotFound) {
		return nil, false, err
	}
	site = &db.Site{}

	res, err := tx.Exec(sqlInsertSite, domain)
	if err != nil {
		return nil, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	err = tx.Get(site, sqlSelectSite, id)
	if err != nil {
		return nil, false, err
	}
	me.Logger.Info("site created", "id", site.ID, "domain", site.Domain)

	return site, true, tx.Commit()
}
