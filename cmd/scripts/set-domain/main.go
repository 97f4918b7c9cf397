// set-domain points the configured site at a new public domain.
//
//	PROJECT_DIR: the project directory (e.g. ~/projname)
//	WEBSITE_DOMAIN: the domain of the site (e.g. www.example.com)
package main

import (
	"os"

	"github.com/picosh/sites/pkg/apps/sites"
	"github.com/picosh/sites/pkg/shared"
)

func main() {
	logger := shared.CreateLogger(shared.DebugEnabled())

	res, err := sites.SetDomainFromEnv(sites.OpenDB)
	if err != nil {
		logger.Error("failed to set site domain", "err", err)
		os.Exit(1)
	}

	logger.Info(
		"site domain set",
		"siteID", res.SiteID,
		"domain", res.Domain,
		"updated", res.Updated,
		"matchedID", res.Site.ID,
		"created", res.Created,
	)
}
