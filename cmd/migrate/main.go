package main

import (
	"os"

	"github.com/picosh/sites/pkg/db/postgres"
	"github.com/picosh/sites/pkg/shared"
	"github.com/picosh/utils"
)

func main() {
	logger := shared.CreateLogger(shared.DebugEnabled())
	dbURL := utils.GetEnv(shared.DatabaseURLEnv, "")
	dir := utils.GetEnv("MIGRATIONS_DIR", "sql/migrations")

	if dbURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	dbpool, err := postgres.NewDB(dbURL, logger)
	if err != nil {
		logger.Error("could not connect to postgres", "err", err)
		os.Exit(1)
	}

	ran, err := postgres.Migrate(dbpool.Db, dir, logger)
	_ = dbpool.Close()
	if err != nil {
		logger.Error("migration failed", "err", err, "applied", ran)
		os.Exit(1)
	}
	logger.Info("migrations complete", "applied", len(ran))
}
