package sites

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/picosh/sites/pkg/db"
	"github.com/picosh/sites/pkg/settings"
	"github.com/picosh/sites/pkg/shared"
)

// Bootstrap loads the settings provider named in cfg and opens the
// registry it points at. Callers must close the returned registry.
func Bootstrap(cfg *shared.ConfigSite, open OpenFunc) (*settings.Settings, db.SiteDB, error) {
	st, err := settings.Load(cfg.ProjectDir, cfg.SettingsModule, cfg.DbURL, cfg.Logger)
	if err != nil {
		return nil, nil, err
	}

	dbpool, err := open(st.DatabaseURL, cfg.ProjectDir, cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open: %w", ErrRegistry, err)
	}

	return st, dbpool, nil
}

// SetDomainFromEnv reads PROJECT_DIR and WEBSITE_DOMAIN and applies the
// domain to the configured registry. Both variables are checked before
// the registry is touched.
func SetDomainFromEnv(open OpenFunc) (*Result, error) {
	cfg, cfgErr := shared.NewConfigSite()
	rawDomain, domainErr := shared.LookupRequiredEnv(shared.WebsiteDomainEnv)
	if err := errors.Join(cfgErr, domainErr); err != nil {
		return nil, err
	}

	domain, err := db.SanitizeDomain(rawDomain)
	if err != nil {
		return nil, &shared.EnvError{
			Key: shared.WebsiteDomainEnv,
			Err: fmt.Errorf("%w: %w", shared.ErrInvalidEnv, err),
		}
	}

	logger := cfg.Logger.With("script", "set-domain")
	metrics := shared.NewBatchMetrics("set-domain")
	defer pushMetrics(logger, metrics, cfg.PushgatewayURL)

	st, dbpool, err := Bootstrap(cfg, open)
	if err != nil {
		metrics.DomainUpdates.WithLabelValues("error").Inc()
		return nil, err
	}
	defer func() {
		_ = dbpool.Close()
	}()

	res, err := NewDomainSetter(logger, dbpool, st).SetDomain(domain)
	if err != nil {
		metrics.DomainUpdates.WithLabelValues("error").Inc()
		return nil, err
	}

	if res.Updated > 0 {
		metrics.DomainUpdates.WithLabelValues("updated").Inc()
	} else {
		metrics.DomainUpdates.WithLabelValues("missing").Inc()
	}
	if res.Created {
		metrics.SitesCreated.Inc()
	}
	metrics.LastSuccess.Set(float64(time.Now().Unix()))

	return res, nil
}

func pushMetrics(logger *slog.Logger, metrics *shared.BatchMetrics, url string) {
	if url == "" {
		return
	}
	err := metrics.Push(url)
	if err != nil {
		logger.Error("could not push metrics", "err", err)
	}
}

// ListSitesFromEnv writes every site in the configured registry to out,
// marking the current one.
func ListSitesFromEnv(open OpenFunc, out io.Writer) error {
	cfg, err := shared.NewConfigSite()
	if err != nil {
		return err
	}

	st, dbpool, err := Bootstrap(cfg, open)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbpool.Close()
	}()

	sites, err := dbpool.FindSites()
	if err != nil {
		return fmt.Errorf("%w: list sites: %w", ErrRegistry, err)
	}

	return WriteSites(out, sites, st.SiteID)
}

func WriteSites(out io.Writer, sites []*db.Site, currentID int64) error {
	writer := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.TabIndent)
	fmt.Fprintln(writer, "ID\tDomain\tName\tUpdated\tCurrent")
	for _, site := range sites {
		current := ""
		if site.ID == currentID {
			current = "*"
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\n",
			site.ID,
			site.Domain,
			site.Name,
			shared.TimeAgo(site.UpdatedAt),
			current,
		)
	}
	return writer.Flush()
}
