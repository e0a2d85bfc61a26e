package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validator "github.com/asaskevich/govalidator"
	"github.com/golang/glog"
	"github.com/spf13/viper"
)

// Configuration specifies the static application config.
type Configuration struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	AdminPort  int    `mapstructure:"admin_port"`
	EnableGzip bool   `mapstructure:"enable_gzip"`
	// StatusResponse is the body of GET /status. An empty value answers 204.
	StatusResponse string `mapstructure:"status_response"`
	// RequestTimeoutHeaders name the headers a load balancer uses to report queueing time.
	RequestTimeoutHeaders RequestTimeoutHeaders `mapstructure:"request_timeout_headers"`

	ExternalURL       string             `mapstructure:"external_url"`
	CacheURL          Cache              `mapstructure:"cache"`
	Auction           Auction            `mapstructure:"auction"`
	Event             Event              `mapstructure:"event"`
	Metrics           Metrics            `mapstructure:"metrics"`
	Hooks             Hooks              `mapstructure:"hooks"`
	CurrencyConverter CurrencyConverter  `mapstructure:"currency_converter"`
	StoredRequests    StoredRequests     `mapstructure:"stored_requests"`
	CategoryMapping   CategoryMapping    `mapstructure:"category_mapping"`
	Accounts          map[string]Account `mapstructure:"accounts"`
	// DeprecatedBidders maps a retired bidder code to the message returned when a request still uses it.
	DeprecatedBidders map[string]string `mapstructure:"deprecated_bidders"`
	// LogSamplingRate is the share (0..1) of repetitive runtime warnings which are written to the log.
	LogSamplingRate float64 `mapstructure:"log_sampling_rate"`
}

// RequestTimeoutHeaders are set when a proxy in front of the server reports how long a request
// waited in its queue and how long it may wait at most.
type RequestTimeoutHeaders struct {
	RequestTimeInQueue    string `mapstructure:"request_time_in_queue"`
	RequestTimeoutInQueue string `mapstructure:"request_timeout_in_queue"`
}

// Cache configures the prebid cache server used to store bids and VAST documents.
type Cache struct {
	Scheme string `mapstructure:"scheme"`
	Host   string `mapstructure:"host"`
	Query  string `mapstructure:"query"`
	// Path of the cache endpoint, used by the creatives to build the asset url.
	Path string `mapstructure:"path"`
	// TimeoutMS bounds a single call to the cache. The auction deadline applies on top.
	TimeoutMS int `mapstructure:"timeout_ms"`

	// DefaultTTLs are used when neither the bid, imp, request, account nor host media type ttl is set.
	DefaultTTLs DefaultTTLs `mapstructure:"default_ttl_seconds"`
}

// DefaultTTLs holds the last resort cache ttls per media type, in seconds.
type DefaultTTLs struct {
	Banner int `mapstructure:"banner"`
	Video  int `mapstructure:"video"`
	Native int `mapstructure:"native"`
	Audio  int `mapstructure:"audio"`
}

// Auction holds host wide settings of the response assembly.
type Auction struct {
	// GenerateBidID adds a server generated id in bid.ext.prebid.bidid.
	GenerateBidID bool `mapstructure:"generate_bid_id"`
	// EnforceRandomBidID replaces bid ids shorter than 17 characters by a random UUID.
	EnforceRandomBidID bool `mapstructure:"enforce_random_bid_id"`
	// TruncateTargetAttr is the host default for the max length of targeting keys (0 = no limit).
	TruncateTargetAttr int `mapstructure:"truncate_target_attr"`
	// BannerCacheTTL and VideoCacheTTL are the host media type ttls, in seconds. Zero means unset.
	BannerCacheTTL int `mapstructure:"banner_cache_ttl"`
	VideoCacheTTL  int `mapstructure:"video_cache_ttl"`
	// CacheWinningOnly is used when the request does not say whether only winning bids are cached.
	CacheWinningOnly bool `mapstructure:"cache_winning_only"`
	// DebugAllowed lets requests ask for debug output.
	DebugAllowed bool `mapstructure:"debug_allowed"`
}

// Metrics configures the metrics engines. Both may be enabled at the same time.
type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
	GoMetrics  GoMetrics         `mapstructure:"go_metrics"`
}

type PrometheusMetrics struct {
	Enabled   bool   `mapstructure:"enabled"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
	// TimeoutMillisRaw bounds one scrape of the /metrics endpoint.
	TimeoutMillisRaw int `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

type GoMetrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// CurrencyConverter holds the static conversion table, rates[from][to].
type CurrencyConverter struct {
	Rates map[string]map[string]float64 `mapstructure:"rates"`
}

// CategoryMapping configures the lookup of ad server categories.
type CategoryMapping struct {
	// CacheSize is the size in bytes of the in-memory category translation cache. Zero disables the cache.
	CacheSize int `mapstructure:"cache_size"`
	// TTLSeconds expires cached translations. Zero keeps them until evicted.
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

func (cfg *Auction) validate(errs []error) []error {
	if cfg.TruncateTargetAttr < 0 || cfg.TruncateTargetAttr > 255 {
		errs = append(errs, fmt.Errorf("auction.truncate_target_attr must be between 0 and 255. Got %d", cfg.TruncateTargetAttr))
	}
	if cfg.BannerCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("auction.banner_cache_ttl must not be negative. Got %d", cfg.BannerCacheTTL))
	}
	if cfg.VideoCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("auction.video_cache_ttl must not be negative. Got %d", cfg.VideoCacheTTL))
	}
	return errs
}

func (cfg *Cache) validate(errs []error) []error {
	scheme := strings.ToLower(cfg.Scheme)
	if scheme != "" && scheme != "http" && scheme != "https" {
		errs = append(errs, fmt.Errorf("cache.scheme must be http or https. Got %s", cfg.Scheme))
	}
	if cfg.Host == "" {
		return errs
	}
	if strings.Contains(cfg.Host, "://") || strings.HasPrefix(cfg.Host, "//") || strings.Contains(cfg.Host, "/") {
		errs = append(errs, fmt.Errorf("cache.host %s must not contain a scheme or a path", cfg.Host))
	} else if _, err := url.Parse("http://" + cfg.Host + cfg.Path); err != nil {
		errs = append(errs, fmt.Errorf("cache.host and cache.path %s%s do not form a valid url: %v", cfg.Host, cfg.Path, err))
	}
	if cfg.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("cache.timeout_ms must not be negative. Got %d", cfg.TimeoutMS))
	}
	return cfg.DefaultTTLs.validate(errs)
}

func (ttls *DefaultTTLs) validate(errs []error) []error {
	if ttls.Banner < 0 || ttls.Video < 0 || ttls.Native < 0 || ttls.Audio < 0 {
		errs = append(errs, errors.New("cache.default_ttl_seconds values must not be negative"))
	}
	return errs
}

func (cfg *Configuration) validate() []error {
	var errs []error
	if cfg.ExternalURL != "" && !isValidURL(cfg.ExternalURL) {
		errs = append(errs, fmt.Errorf("external_url %s is not a valid url", cfg.ExternalURL))
	}
	if cfg.Port == cfg.AdminPort && cfg.Port != 0 {
		errs = append(errs, fmt.Errorf("port and admin_port must differ. Both are %d", cfg.Port))
	}
	if cfg.Metrics.Prometheus.Port != 0 && !cfg.Metrics.Prometheus.Enabled {
		errs = append(errs, errors.New("metrics.prometheus.port is set but prometheus metrics are disabled"))
	}
	if cfg.LogSamplingRate < 0 || cfg.LogSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("log_sampling_rate must be between 0 and 1. Got %g", cfg.LogSamplingRate))
	}
	if cfg.CategoryMapping.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("category_mapping.cache_size must not be negative. Got %d", cfg.CategoryMapping.CacheSize))
	}
	if cfg.CategoryMapping.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("category_mapping.ttl_seconds must not be negative. Got %d", cfg.CategoryMapping.TTLSeconds))
	}
	errs = cfg.CacheURL.validate(errs)
	errs = cfg.Auction.validate(errs)
	errs = cfg.Event.validate(errs)
	errs = cfg.Hooks.validate(errs)
	errs = cfg.StoredRequests.validate(errs)
	for id, account := range cfg.Accounts {
		errs = account.validate(id, errs)
	}
	return errs
}

// GetCacheBaseURL allows for a protocol relative url when the scheme is empty.
func (cfg *Configuration) GetCacheBaseURL() string {
	switch strings.ToLower(cfg.CacheURL.Scheme) {
	case "https":
		return fmt.Sprintf("https://%s", cfg.CacheURL.Host)
	case "http":
		return fmt.Sprintf("http://%s", cfg.CacheURL.Host)
	}
	return fmt.Sprintf("//%s", cfg.CacheURL.Host)
}

// GetCachedAssetURL returns the url a creative uses to fetch the cached asset with the given id.
func (cfg *Configuration) GetCachedAssetURL(uuid string) string {
	return fmt.Sprintf("%s/cache?%s", cfg.GetCacheBaseURL(), strings.Replace(cfg.CacheURL.Query, "%PBS_CACHE_UUID%", uuid, 1))
}

// GetAccount returns the configured account, or an account with the given id and default settings.
func (cfg *Configuration) GetAccount(id string) Account {
	if account, ok := cfg.Accounts[id]; ok {
		account.ID = id
		return account
	}
	return Account{ID: id}
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}

	glog.Infof("cache.host=%s, cache.scheme=%s, external_url=%s", c.CacheURL.Host, c.CacheURL.Scheme, c.ExternalURL)

	if errs := c.validate(); len(errs) > 0 {
		return &c, errors.Join(errs...)
	}
	return &c, nil
}

// SetupViper sets the defaults and, when filename is not empty, the config file to read.
// Environment variables prefixed with PBS_ override both, PBS_CACHE_HOST for cache.host.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("status_response", "")
	v.SetDefault("request_timeout_headers.request_time_in_queue", "")
	v.SetDefault("request_timeout_headers.request_timeout_in_queue", "")
	v.SetDefault("external_url", "http://localhost:8000")
	v.SetDefault("cache.scheme", "")
	v.SetDefault("cache.host", "")
	v.SetDefault("cache.query", "")
	v.SetDefault("cache.path", "/cache")
	v.SetDefault("cache.timeout_ms", 0)
	v.SetDefault("cache.default_ttl_seconds.banner", 300)
	v.SetDefault("cache.default_ttl_seconds.video", 1500)
	v.SetDefault("cache.default_ttl_seconds.native", 300)
	v.SetDefault("cache.default_ttl_seconds.audio", 300)
	v.SetDefault("auction.generate_bid_id", false)
	v.SetDefault("auction.enforce_random_bid_id", false)
	v.SetDefault("auction.truncate_target_attr", 0)
	v.SetDefault("auction.banner_cache_ttl", 0)
	v.SetDefault("auction.video_cache_ttl", 0)
	v.SetDefault("auction.cache_winning_only", false)
	v.SetDefault("auction.debug_allowed", true)
	v.SetDefault("event.vast_modification_bidders", []string{})
	v.SetDefault("metrics.prometheus.enabled", false)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.go_metrics.enabled", false)
	v.SetDefault("hooks.enabled", false)
	v.SetDefault("stored_requests.filesystem.enabled", false)
	v.SetDefault("stored_requests.filesystem.directorypath", "./stored_requests/data/by_id")
	v.SetDefault("stored_requests.imp_cache_size", 1000)
	v.SetDefault("category_mapping.cache_size", 1024*1024)
	v.SetDefault("category_mapping.ttl_seconds", 0)
	v.SetDefault("log_sampling_rate", 0.01)

	v.SetEnvPrefix("PBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.ReadInConfig()
}

// isValidURL validates an absolute http(s) url
func isValidURL(rawURL string) bool {
	return validator.IsURL(rawURL) && validator.IsRequestURL(rawURL)
}
