package config

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// StoredRequests configures the backend used to look up stored imps and category translations.
type StoredRequests struct {
	// Files should be enabled if the data should be loaded from the filesystem.
	Files FileFetcherConfig `mapstructure:"filesystem"`
	// Postgres should be non-nil if the data should be loaded from a Postgres database.
	Postgres *PostgresConfig `mapstructure:"postgres"`
	// ImpCacheSize is the number of stored imps kept in memory. Zero disables the cache.
	ImpCacheSize int `mapstructure:"imp_cache_size"`
}

type FileFetcherConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"directorypath"`
}

// PostgresConfig configures the Postgres connection for stored data
type PostgresConfig struct {
	Database string `mapstructure:"dbname"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// ImpQueryTemplate is the query used to fetch stored imps. It is a template, rather than a full
	// query, because one auction may reference multiple stored imps.
	//
	// For example:
	//   SELECT id, impData, 'imp' as type FROM stored_imps WHERE id in %IMP_ID_LIST%
	//
	// is turned into:
	//   SELECT id, impData, 'imp' as type FROM stored_imps WHERE id in ($1, $2, $3)
	ImpQueryTemplate string `mapstructure:"imp_query"`

	// CategoryQuery fetches the translation of one IAB category for an ad server and publisher.
	// It receives the primary ad server name, the publisher and the IAB category as $1, $2 and $3.
	CategoryQuery string `mapstructure:"category_query"`
}

// ConnString returns the libpq connection string for the configured database.
func (cfg *PostgresConfig) ConnString() string {
	buffer := bytes.NewBuffer(nil)

	if cfg.Host != "" {
		buffer.WriteString("host=")
		buffer.WriteString(cfg.Host)
		buffer.WriteString(" ")
	}
	if cfg.Port > 0 {
		buffer.WriteString("port=")
		buffer.WriteString(strconv.Itoa(cfg.Port))
		buffer.WriteString(" ")
	}
	if cfg.Username != "" {
		buffer.WriteString("user=")
		buffer.WriteString(cfg.Username)
		buffer.WriteString(" ")
	}
	if cfg.Password != "" {
		buffer.WriteString("password=")
		buffer.WriteString(cfg.Password)
		buffer.WriteString(" ")
	}
	if cfg.Database != "" {
		buffer.WriteString("dbname=")
		buffer.WriteString(cfg.Database)
		buffer.WriteString(" ")
	}

	buffer.WriteString("sslmode=disable")
	return buffer.String()
}

// MakeImpQuery builds a query which can fetch numImps stored imps.
func (cfg *PostgresConfig) MakeImpQuery(numImps int) string {
	if numImps < 0 {
		glog.Errorf("Can't build a SQL query for %d Stored Imps.", numImps)
		numImps = 0
	}
	return strings.Replace(cfg.ImpQueryTemplate, "%IMP_ID_LIST%", makeIdList(numImps), -1)
}

func makeIdList(numArgs int) string {
	// An empty list like "()" is illegal in Postgres. "id IN (NULL)" is valid for every id column
	// type and evaluates to an empty set.
	if numArgs == 0 {
		return "(NULL)"
	}

	final := bytes.NewBuffer(make([]byte, 0, 2+4*numArgs))
	final.WriteString("(")
	for i := 1; i < numArgs; i++ {
		final.WriteString("$")
		final.WriteString(strconv.Itoa(i))
		final.WriteString(", ")
	}
	final.WriteString("$")
	final.WriteString(strconv.Itoa(numArgs))
	final.WriteString(")")

	return final.String()
}

func (cfg *StoredRequests) validate(errs []error) []error {
	if cfg.Files.Enabled && cfg.Postgres != nil {
		errs = append(errs, errors.New("stored_requests.filesystem and stored_requests.postgres are mutually exclusive"))
	}
	if cfg.ImpCacheSize < 0 {
		errs = append(errs, fmt.Errorf("stored_requests.imp_cache_size must not be negative. Got %d", cfg.ImpCacheSize))
	}
	if cfg.Files.Enabled && cfg.Files.Path == "" {
		errs = append(errs, errors.New("stored_requests.filesystem.directorypath must be set when the filesystem backend is enabled"))
	}
	if cfg.Postgres != nil {
		if cfg.Postgres.ImpQueryTemplate != "" && !strings.Contains(cfg.Postgres.ImpQueryTemplate, "%IMP_ID_LIST%") {
			errs = append(errs, fmt.Errorf("stored_requests.postgres.imp_query must contain %%IMP_ID_LIST%%. Got %s", cfg.Postgres.ImpQueryTemplate))
		}
	}
	return errs
}
