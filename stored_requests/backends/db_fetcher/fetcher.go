package db_fetcher

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/lib/pq"
	"github.com/prebid/prebid-response-engine/config"
	"github.com/prebid/prebid-response-engine/metrics"
	"github.com/prebid/prebid-response-engine/stored_requests"
)

// NewPostgresDB opens the connection pool described by cfg.
func NewPostgresDB(cfg *config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		// The fetcher keeps working without the database, every lookup then reports a not found error.
		glog.Errorf("Failed to ping the stored data database: %v", err)
	}
	return db, nil
}

func NewFetcher(db *sql.DB, cfg *config.PostgresConfig, metricsEngine metrics.MetricsEngine) stored_requests.AllFetcher {
	if db == nil {
		glog.Fatalf("The Postgres Stored Data Fetcher requires a database connection. Please report this as a bug.")
	}
	if cfg == nil {
		glog.Fatalf("The Postgres Stored Data Fetcher requires the postgres config. Please report this as a bug.")
	}
	return &dbFetcher{
		db:            db,
		cfg:           cfg,
		metricsEngine: metricsEngine,
	}
}

// dbFetcher fetches stored data from a database. This should be instantiated through the NewFetcher() function.
type dbFetcher struct {
	db            *sql.DB
	cfg           *config.PostgresConfig
	metricsEngine metrics.MetricsEngine
}

func (fetcher *dbFetcher) FetchImps(ctx context.Context, impIDs []string) (map[string]json.RawMessage, []error) {
	if len(impIDs) < 1 {
		return nil, nil
	}

	idInterfaces := make([]interface{}, len(impIDs))
	for i, id := range impIDs {
		idInterfaces[i] = id
	}

	startTime := time.Now()
	rows, err := fetcher.db.QueryContext(ctx, fetcher.cfg.MakeImpQuery(len(impIDs)), idInterfaces...)
	fetcher.metricsEngine.RecordStoredDataFetchTime(metrics.StoredDataLabels{
		DataType:      metrics.ImpDataType,
		DataFetchType: metrics.FetchDelta,
	}, time.Since(startTime))

	if err != nil {
		fetcher.recordError(metrics.ImpDataType, err)
		if !errors.Is(err, context.DeadlineExceeded) && !isBadInput(err) {
			glog.Errorf("Error reading from Stored Imp DB: %s", err.Error())
			return nil, stored_requests.AppendNotFoundErrors("Imp", impIDs, nil, nil)
		}
		return nil, []error{err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			glog.Errorf("error closing DB connection: %v", err)
		}
	}()

	storedImpData := make(map[string]json.RawMessage, len(impIDs))
	for rows.Next() {
		var id string
		var data []byte
		var dataType string

		if err := rows.Scan(&id, &data, &dataType); err != nil {
			fetcher.recordError(metrics.ImpDataType, err)
			return nil, []error{err}
		}

		if dataType != "imp" {
			glog.Errorf("Postgres result set with id=%s has invalid type: %s. This will be ignored.", id, dataType)
			continue
		}
		storedImpData[id] = data
	}

	if rows.Err() != nil {
		fetcher.recordError(metrics.ImpDataType, rows.Err())
		return nil, []error{rows.Err()}
	}

	return storedImpData, stored_requests.AppendNotFoundErrors("Imp", impIDs, storedImpData, nil)
}

func (fetcher *dbFetcher) FetchCategories(ctx context.Context, primaryAdServer, publisherId, iabCategory string) (string, error) {
	if fetcher.cfg.CategoryQuery == "" {
		return "", stored_requests.CategoryNotFoundError{PrimaryAdServer: primaryAdServer, PublisherID: publisherId, IABCategory: iabCategory}
	}

	var category string
	startTime := time.Now()
	err := fetcher.db.QueryRowContext(ctx, fetcher.cfg.CategoryQuery, primaryAdServer, publisherId, iabCategory).Scan(&category)
	fetcher.metricsEngine.RecordStoredDataFetchTime(metrics.StoredDataLabels{
		DataType:      metrics.CategoryDataType,
		DataFetchType: metrics.FetchDelta,
	}, time.Since(startTime))

	if errors.Is(err, sql.ErrNoRows) {
		return "", stored_requests.CategoryNotFoundError{PrimaryAdServer: primaryAdServer, PublisherID: publisherId, IABCategory: iabCategory}
	}
	if err != nil {
		fetcher.recordError(metrics.CategoryDataType, err)
		return "", err
	}
	return category, nil
}

func (fetcher *dbFetcher) recordError(dataType metrics.StoredDataType, err error) {
	labels := metrics.StoredDataLabels{
		DataType: dataType,
		Error:    metrics.StoredDataErrorUndefined,
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		labels.Error = metrics.StoredDataErrorNetwork
	}
	fetcher.metricsEngine.RecordStoredDataError(labels)
}

// Returns true if the Postgres error signifies some sort of bad user input, and false otherwise.
//
// These errors are documented here: https://www.postgresql.org/docs/9.3/static/errcodes-appendix.html
func isBadInput(err error) bool {
	// Postgres queries fail if a non-UUID is passed into a query for a UUID column, for example:
	//
	//    SELECT uuid, data, dataType FROM stored_imps WHERE uuid IN ('abc');
	//
	// The ids come from the request, so these are reported as is instead of being logged.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == "22P02" {
		return true
	}

	return false
}
