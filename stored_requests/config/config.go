package config

import (
	"database/sql"

	"github.com/golang/glog"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/stored_requests"
	"github.com/prebid/prebid-response-engine/stored_requests/backends/db_fetcher"
	"github.com/prebid/prebid-response-engine/stored_requests/backends/empty_fetcher"
	"github.com/prebid/prebid-response-engine/stored_requests/backends/file_fetcher"
	"github.com/prebid/prebid-response-engine/stored_requests/caches/memory"
)

// NewStoredRequests returns two things:
//
// 1. A Fetcher which can be used to get stored imps and category translations
// 2. A function which should be called on shutdown for graceful cleanups.
//
// If any errors occur, the program will exit with an error message.
// It probably means you have a bad config or networking issue.
func NewStoredRequests(cfg *config.Configuration, metricsEngine metrics.MetricsEngine) (fetcher stored_requests.AllFetcher, shutdown func()) {
	var db *sql.DB

	switch {
	case cfg.StoredRequests.Postgres != nil:
		pg := cfg.StoredRequests.Postgres
		glog.Infof("Connecting to Postgres for stored data. DB=%s, host=%s, port=%d, user=%s", pg.Database, pg.Host, pg.Port, pg.Username)
		var err error
		if db, err = db_fetcher.NewPostgresDB(pg); err != nil {
			glog.Fatalf("Failed to open the stored data database: %v", err)
		}
		fetcher = db_fetcher.NewFetcher(db, pg, metricsEngine)
	case cfg.StoredRequests.Files.Enabled:
		glog.Infof("Loading stored data from %s", cfg.StoredRequests.Files.Path)
		var err error
		if fetcher, err = file_fetcher.NewFileFetcher(cfg.StoredRequests.Files.Path); err != nil {
			glog.Fatalf("Failed to load stored data from %s: %v", cfg.StoredRequests.Files.Path, err)
		}
	default:
		fetcher = empty_fetcher.EmptyFetcher{}
	}

	fetcher = memory.NewFetcherWithCache(fetcher, cfg.StoredRequests.ImpCacheSize, cfg.CategoryMapping, metricsEngine)

	shutdown = func() {
		if db != nil {
			if err := db.Close(); err != nil {
				glog.Errorf("Error closing DB connection: %v", err)
			}
		}
	}
	return
}
