package db

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrSiteNotFound = errors.New("site not found")
var ErrDomainInvalid = errors.New("domain has invalid characters in it")
var ErrDomainEmpty = errors.New("domain must not be empty")
var ErrMultipleSites = errors.New("more than one site has the domain")

// Site maps a stable numeric identifier to the public hostname an
// application instance answers on.
type Site struct {
	ID        int64      `json:"id" db:"id"`
	Domain    string     `json:"domain" db:"domain"`
	Name      string     `json:"name" db:"name"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Site) String() string {
	return fmt.Sprintf("%d:%s", s.ID, s.Domain)
}

// Hostnames may carry a port (e.g. localhost:8000) so the validator
// only rejects whitespace, path separators and schemes.
var DomainValidator = regexp.MustCompile(`^[^\s/]{1,100}$`)

// SanitizeDomain trims surrounding whitespace and validates what remains.
func SanitizeDomain(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", ErrDomainEmpty
	}
	if !DomainValidator.MatchString(d) {
		return "", fmt.Errorf("%w: %q", ErrDomainInvalid, d)
	}
	return d, nil
}

// SingleSite picks the only site out of the rows matching domain.
func SingleSite(domain string, sites []*Site) (*Site, error) {
	switch len(sites) {
	case 0:
		return nil, ErrSiteNotFound
	case 1:
		return sites[0], nil
	}
	ids := make([]string, len(sites))
	for i, site := range sites {
		ids[i] = fmt.Sprintf("%d", site.ID)
	}
	return nil, fmt.Errorf("%w: %s (ids %s)", ErrMultipleSites, domain, strings.Join(ids, ", "))
}

type SiteDB interface {
	FindSite(siteID int64) (*Site, error)
	// FindSiteByDomain fails with ErrMultipleSites when the domain is
	// not unique.
	FindSiteByDomain(domain string) (*Site, error)
	FindSites() ([]*Site, error)

	// UpdateSiteDomain returns the number of rows changed; zero means no
	// site matched the id.
	UpdateSiteDomain(siteID int64, domain string) (int64, error)
	// GetOrCreateSite returns the site for domain, inserting it when
	// absent. The bool reports whether a row was created. Several sites
	// sharing the domain is an ErrMultipleSites error; nothing is inserted.
	GetOrCreateSite(domain string) (*Site, bool, error)

	Close() error
}
