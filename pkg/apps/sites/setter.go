package sites

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/picosh/sites/pkg/db"
	"github.com/picosh/sites/pkg/settings"
)

var ErrRegistry = errors.New("site registry error")

type Result struct {
	SiteID int64
	Domain string
	// Rows changed by the update of the current site; zero when the
	// current site does not exist.
	Updated int64
	// Site matching Domain after get-or-create.
	Site    *db.Site
	Created bool
}

type DomainSetter struct {
	Logger   *slog.Logger
	DB       db.SiteDB
	Settings *settings.Settings
}

func NewDomainSetter(logger *slog.Logger, dbpool db.SiteDB, st *settings.Settings) *DomainSetter {
	return &DomainSetter{
		Logger:   logger.With("siteID", st.SiteID),
		DB:       dbpool,
		Settings: st,
	}
}

// SetDomain points the current site at domain and makes sure a site for
// domain exists. Running it twice with the same domain changes nothing
// the second time.
func (s *DomainSetter) SetDomain(domain string) (*Result, error) {
	siteID := s.Settings.SiteID
	res := &Result{
		SiteID: siteID,
		Domain: domain,
	}

	updated, err := s.DB.UpdateSiteDomain(siteID, domain)
	if err != nil {
		return nil, fmt.Errorf("%w: update site %d: %w", ErrRegistry, siteID, err)
	}
	res.Updated = updated
	if updated == 0 {
		s.Logger.Info("current site not found, nothing to update", "domain", domain)
	} else {
		s.Logger.Info("current site updated", "domain", domain)
	}

	site, created, err := s.DB.GetOrCreateSite(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: get or create site for %s: %w", ErrRegistry, domain, err)
	}
	res.Site = site
	res.Created = created

	if site.ID != siteID {
		s.Logger.Warn(
			"domain belongs to a site other than the current one",
			"domain", domain,
			"matchedID", site.ID,
		)
	}

	return res, nil
}
