package memory

import (
	"errors"
	"log/slog"
	"time"

	"github.com/picosh/sites/pkg/db"
)

type MemoryDB struct {
	Logger *slog.Logger
	Sites  []*db.Site
	nextID int64
}

var _ db.SiteDB = (*MemoryDB)(nil)

func NewDBMemory(logger *slog.Logger) *MemoryDB {
	d := &MemoryDB{
		Logger: logger,
	}
	d.Logger.Info("connecting to our in-memory database. All data created during runtime will be lost on exit.")
	return d
}

// SetupTestData seeds the registry with the given sites, keeping
// their ids so later inserts never collide with them.
func (me *MemoryDB) SetupTestData(sites ...*db.Site) {
	for _, site := range sites {
		cp := *site
		me.Sites = append(me.Sites, &cp)
		if cp.ID > me.nextID {
			me.nextID = cp.ID
		}
	}
}

func (me *MemoryDB) FindSite(siteID int64) (*db.Site, error) {
	for _, site := range me.Sites {
		if site.ID == siteID {
			cp := *site
			return &cp, nil
		}
	}
	return nil, db.ErrSiteNotFound
}

func (me *MemoryDB) FindSiteByDomain(domain string) (*db.Site, error) {
	matches := []*db.Site{}
	for _, site := range me.Sites {
		if site.Domain == domain {
			cp := *site
			matches = append(matches, &cp)
		}
	}
	return db.SingleSite(domain, matches)
}

func (me *MemoryDB) FindSites() ([]*db.Site, error) {
	sites := []*db.Site{}
	for _, site := range me.Sites {
		cp := *site
		sites = append(sites, &cp)
	}
	return sites, nil
}

func (me *MemoryDB) UpdateSiteDomain(siteID int64, domain string) (int64, error) {
	for _, site := range me.Sites {
		if site.ID != siteID {
			continue
		}
		if site.Domain != domain {
			now := time.Now()
			site.Domain = domain
			site.UpdatedAt = &now
		}
		return 1, nil
	}
	return 0, nil
}

func (me *MemoryDB) GetOrCreateSite(domain string) (*db.Site, bool, error) {
	site, err := me.FindSiteByDomain(domain)
	if err == nil {
		return site, false, nil
	}
	if !errors.Is(err, db.ErrSiteNotFound) {
		return nil, false, err
	}

	me.nextID++
	now := time.Now()
	site = &db.Site{
		ID:        me.nextID,
		Domain:    domain,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	me.Sites = append(me.Sites, site)
	me.Logger.Info("site created", "id", site.ID, "domain", site.Domain)

	cp := *site
	return &cp, true, nil
}

func (me *MemoryDB) Close() error {
	return nil
}
