package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/albionflip/internal/collector"
	"github.com/newthinker/albionflip/internal/collector/items"
	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/matcher"
	"github.com/newthinker/albionflip/internal/storage/archive"
)

type Config struct {
	Region           string        `mapstructure:"region"`
	Tiers            []int         `mapstructure:"tiers"`
	Cities           []string      `mapstructure:"cities"`
	MarketAgeMinutes int           `mapstructure:"market_age_minutes"`
	Premium          bool          `mapstructure:"premium"`
	LogLevel         string        `mapstructure:"log_level"`
	Matcher          MatcherConfig `mapstructure:"matcher"`
	Sources          SourcesConfig `mapstructure:"sources"`
	Archive          ArchiveConfig `mapstructure:"archive"`
	Output           OutputConfig  `mapstructure:"output"`
	Server           ServerConfig  `mapstructure:"server"`
	Metrics          MetricsConfig `mapstructure:"metrics"`
}

type MatcherConfig struct {
	Destination string `mapstructure:"destination"` // "any" or "sink"
	SinkCity    string `mapstructure:"sink_city"`
	Rounding    string `mapstructure:"rounding"` // "floor" or "nearest"
	IncludeRisk bool   `mapstructure:"include_risk"`
	MinProfit   int64  `mapstructure:"min_profit"`
	BestOnly    bool   `mapstructure:"best_only"`
}

type SourcesConfig struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Prices  PricesConfig  `mapstructure:"prices"`
}

type CatalogConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheKey string        `mapstructure:"cache_key"`
}

type PricesConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	ChunkSize         int           `mapstructure:"chunk_size"`
	Qualities         []int         `mapstructure:"qualities"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type OutputConfig struct {
	Format  string        `mapstructure:"format"` // "table" or "json"
	Limit   int           `mapstructure:"limit"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default key so that partial files and env
// overrides fall back to Defaults.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("region", d.Region)
	v.SetDefault("tiers", d.Tiers)
	v.SetDefault("cities", d.Cities)
	v.SetDefault("market_age_minutes", d.MarketAgeMinutes)
	v.SetDefault("premium", d.Premium)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("matcher.destination", d.Matcher.Destination)
	v.SetDefault("matcher.sink_city", d.Matcher.SinkCity)
	v.SetDefault("matcher.rounding", d.Matcher.Rounding)
	v.SetDefault("matcher.include_risk", d.Matcher.IncludeRisk)
	v.SetDefault("matcher.min_profit", d.Matcher.MinProfit)
	v.SetDefault("matcher.best_only", d.Matcher.BestOnly)

	v.SetDefault("sources.catalog.url", d.Sources.Catalog.URL)
	v.SetDefault("sources.catalog.timeout", d.Sources.Catalog.Timeout)
	v.SetDefault("sources.catalog.cache_key", d.Sources.Catalog.CacheKey)
	v.SetDefault("sources.prices.timeout", d.Sources.Prices.Timeout)
	v.SetDefault("sources.prices.chunk_size", d.Sources.Prices.ChunkSize)
	v.SetDefault("sources.prices.qualities", d.Sources.Prices.Qualities)
	v.SetDefault("sources.prices.requests_per_second", d.Sources.Prices.RequestsPerSecond)
	v.SetDefault("sources.prices.burst", d.Sources.Prices.Burst)

	v.SetDefault("archive.type", d.Archive.Type)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.limit", d.Output.Limit)
	v.SetDefault("output.webhook.enabled", d.Output.Webhook.Enabled)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.job_ttl_hours", d.Server.JobTTLHours)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	cities := make([]string, 0, len(core.Cities()))
	for _, c := range core.Cities() {
		cities = append(cities, string(c))
	}
	qualities := make([]int, 0, len(core.DefaultQualities))
	for _, q := range core.DefaultQualities {
		qualities = append(qualities, int(q))
	}

	return &Config{
		Region:           string(core.RegionEurope),
		Tiers:            []int{4, 5, 6, 7, 8},
		Cities:           cities,
		MarketAgeMinutes: 30,
		Premium:          true,
		LogLevel:         "info",
		Matcher: MatcherConfig{
			Destination: string(matcher.DestinationAny),
			SinkCity:    string(core.CityBlackMarket),
			Rounding:    string(matcher.RoundFloor),
			IncludeRisk: true,
		},
		Sources: SourcesConfig{
			Catalog: CatalogConfig{
				URL:      items.DefaultURL,
				Timeout:  60 * time.Second,
				CacheKey: items.DefaultCacheKey,
			},
			Prices: PricesConfig{
				Timeout:           30 * time.Second,
				ChunkSize:         collector.DefaultChunkSize,
				Qualities:         qualities,
				RequestsPerSecond: 1,
				Burst:             1,
			},
		},
		Output: OutputConfig{
			Format: "table",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxJobs < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_jobs must be positive, got %d", c.Server.MaxJobs))
	}
	if c.Server.JobTTLHours < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("job_ttl_hours cannot be negative, got %d", c.Server.JobTTLHours))
	}

	// Scan validation
	if c.MarketAgeMinutes <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("market_age_minutes must be positive, got %d", c.MarketAgeMinutes))
	}
	for _, tier := range c.Tiers {
		if tier < 1 || tier > 8 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("tier must be between 1 and 8, got %d", tier))
		}
	}
	if len(c.Cities) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("at least one city required"))
	}
	for _, city := range c.Cities {
		if !core.City(city).IsKnown() {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown city %q", city))
		}
	}
	for _, q := range c.Sources.Prices.Qualities {
		if q < 0 || q > 4 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("quality must be between 0 and 4, got %d", q))
		}
	}
	if c.Sources.Prices.ChunkSize < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("chunk_size cannot be negative, got %d", c.Sources.Prices.ChunkSize))
	}

	// Matcher validation
	switch matcher.DestinationMode(c.Matcher.Destination) {
	case "", matcher.DestinationAny:
	case matcher.DestinationSink:
		if !c.hasCity(c.sinkCity()) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("sink city %q must be one of the allowed cities", c.sinkCity()))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("destination must be any or sink, got %q", c.Matcher.Destination))
	}
	switch matcher.RoundingMode(c.Matcher.Rounding) {
	case "", matcher.RoundFloor, matcher.RoundNearest:
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rounding must be floor or nearest, got %q", c.Matcher.Rounding))
	}
	if c.Matcher.MinProfit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_profit cannot be negative, got %d", c.Matcher.MinProfit))
	}

	// Archive validation
	switch strings.ToLower(c.Archive.Type) {
	case archive.TypeNone, "none":
	case archive.TypeLocalFS:
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive path required for localfs"))
		}
	case archive.TypeS3:
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}

	// Output validation
	switch c.Output.Format {
	case "", "table", "json":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("output format must be table or json, got %q", c.Output.Format))
	}
	if c.Output.Webhook.Enabled {
		if c.Output.Webhook.URL == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("webhook url required when webhook is enabled"))
		}
		if u, err := url.Parse(c.Output.Webhook.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid webhook url %q", c.Output.Webhook.URL))
		}
	}

	return nil
}

// AllowedCities returns the configured city set
func (c *Config) AllowedCities() []core.City {
	cities := make([]core.City, len(c.Cities))
	for i, city := range c.Cities {
		cities[i] = core.City(city)
	}
	return cities
}

// Qualities returns the quality levels requested from the price provider
func (c *Config) Qualities() []core.Quality {
	if len(c.Sources.Prices.Qualities) == 0 {
		return core.DefaultQualities
	}
	qualities := make([]core.Quality, len(c.Sources.Prices.Qualities))
	for i, q := range c.Sources.Prices.Qualities {
		qualities[i] = core.Quality(q)
	}
	return qualities
}

// MatcherConfig builds the trade matcher parameters
func (c *Config) MatcherConfig() matcher.Config {
	return matcher.Config{
		AllowedCities: c.AllowedCities(),
		TaxModifier:   matcher.TaxModifier(c.Premium),
		MaxAgeMinutes: c.MarketAgeMinutes,
		Destination:   matcher.DestinationMode(c.Matcher.Destination),
		SinkCity:      c.sinkCity(),
		Rounding:      matcher.RoundingMode(c.Matcher.Rounding),
		IncludeRisk:   c.Matcher.IncludeRisk,
		MinProfit:     c.Matcher.MinProfit,
	}
}

// ArchiveConfig builds the archive backend settings
func (c *Config) ArchiveConfig() archive.Config {
	return archive.Config{
		Type: c.Archive.Type,
		Path: c.Archive.Path,
		S3: archive.S3Config{
			Bucket:    c.Archive.S3.Bucket,
			Endpoint:  c.Archive.S3.Endpoint,
			Region:    c.Archive.S3.Region,
			AccessKey: c.Archive.S3.AccessKey,
			SecretKey: c.Archive.S3.SecretKey,
			Prefix:    c.Archive.S3.Prefix,
		},
	}
}

func (c *Config) sinkCity() core.City {
	if c.Matcher.SinkCity == "" {
		return core.CityBlackMarket
	}
	return core.City(c.Matcher.SinkCity)
}

func (c *Config) hasCity(city core.City) bool {
	for _, allowed := range c.Cities {
		if core.City(allowed) == city {
			return true
		}
	}
	return false
}
