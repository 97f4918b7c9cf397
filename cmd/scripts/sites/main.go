package main

import (
	"os"

	"github.com/picosh/sites/pkg/apps/sites"
	"github.com/picosh/sites/pkg/shared"
)

func main() {
	logger := shared.CreateLogger(shared.DebugEnabled())

	err := sites.ListSitesFromEnv(sites.OpenDB, os.Stdout)
	if err != nil {
		logger.Error("failed to list sites", "err", err)
		os.Exit(1)
	}
}
