package postgres

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/picosh/sites/pkg/db"
)

const (
	sqlSelectSite           = `SELECT id, domain, name, created_at, updated_at FROM sites WHERE id = $1`
	sqlSelectSitesForDomain = `SELECT id, domain, name, created_at, updated_at FROM sites WHERE domain = $1 ORDER BY id ASC LIMIT 2`
	sqlSelectSites          = `SELECT id, domain, name, created_at, updated_at FROM sites ORDER BY id ASC`

	sqlInsertSite       = `INSERT INTO sites (domain) VALUES ($1) RETURNING id, domain, name, created_at, updated_at`
	sqlUpdateSiteDomain = `UPDATE sites SET domain = $1, updated_at = CASE WHEN domain <> $1 THEN NOW() ELSE updated_at END WHERE id = $2`
)

type PsqlDB struct {
	Logger *slog.Logger
	Db     *sqlx.DB
}

var _ db.SiteDB = (*PsqlDB)(nil)

func NewDB(databaseUrl string, logger *slog.Logger) (*PsqlDB, error) {
	d := &PsqlDB{
		Logger: logger,
	}
	d.Logger.Info("connecting to postgres")

	conn, err := sqlx.Connect("postgres", databaseUrl)
	if err != nil {
		return nil, err
	}

	d.Db = conn
	return d, nil
}

func (me *PsqlDB) Close() error {
	return me.Db.Close()
}

func (me *PsqlDB) FindSite(siteID int64) (*db.Site, error) {
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

func (me *PsqlDB) FindSiteByDomain(domain string) (*db.Site, error) {
	sites := []*db.Site{}
	err := me.Db.Select(&sites, sqlSelectSitesForDomain, domain)
	if err != nil {
		return nil, err
	}
	return db.SingleSite(domain, sites)
}

func (me *PsqlDB) FindSites() ([]*db.Site, error) {
	sites := []*db.Site{}
	err := me.Db.Select(&sites, sqlSelectSites)
	return sites, err
}

func (me *PsqlDB) UpdateSiteDomain(siteID int64, domain string) (int64, error) {
	res, err := me.Db.Exec(sqlUpdateSiteDomain, domain, siteID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (me *PsqlDB) GetOrCreateSite(domain string) (*db.Site, bool, error) {
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

	err = tx.Get(site, sqlInsertSite, domain)
	if err != nil {
		return nil, false, err
	}
	me.Logger.Info("site created", "id", site.ID, "domain", site.Domain)

	return site, true, tx.Commit()
}
