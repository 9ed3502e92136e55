package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
region: americas
tiers: [6, 7]
cities: ["Martlock", "Black Market"]
market_age_minutes: 45
premium: false

matcher:
  destination: sink
  rounding: nearest
  min_profit: 10000

sources:
  prices:
    chunk_size: 100
    timeout: 5s

archive:
  type: localfs
  path: "/tmp/albionflip/archive"

server:
  host: "127.0.0.1"
  port: 9090
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "americas", cfg.Region)
	assert.Equal(t, []int{6, 7}, cfg.Tiers)
	assert.Equal(t, []string{"Martlock", "Black Market"}, cfg.Cities)
	assert.Equal(t, 45, cfg.MarketAgeMinutes)
	assert.False(t, cfg.Premium)
	assert.Equal(t, "sink", cfg.Matcher.Destination)
	assert.Equal(t, "nearest", cfg.Matcher.Rounding)
	assert.Equal(t, int64(10000), cfg.Matcher.MinProfit)
	assert.Equal(t, 100, cfg.Sources.Prices.ChunkSize)
	assert.Equal(t, 5*time.Second, cfg.Sources.Prices.Timeout)
	assert.Equal(t, "localfs", cfg.Archive.Type)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "premium: false\n"))
	require.NoError(t, err)

	d := Defaults()
	assert.False(t, cfg.Premium)
	assert.Equal(t, d.Tiers, cfg.Tiers)
	assert.Equal(t, d.Cities, cfg.Cities)
	assert.Equal(t, 30, cfg.MarketAgeMinutes)
	assert.Equal(t, 250, cfg.Sources.Prices.ChunkSize)
	assert.True(t, cfg.Matcher.IncludeRisk)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("ALBIONFLIP_TEST_WEBHOOK", "https://hooks.example.com/trades")

	cfg, err := Load(writeConfig(t, `
output:
  webhook:
    enabled: true
    url: "${ALBIONFLIP_TEST_WEBHOOK}"
`))
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/trades", cfg.Output.Webhook.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "europe", cfg.Region)
	assert.Equal(t, 30, cfg.MarketAgeMinutes)
	assert.True(t, cfg.Premium)
	assert.Len(t, cfg.Cities, 8)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr *core.Error
	}{
		{"valid config", func(c *Config) {}, nil},
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"zero max jobs", func(c *Config) { c.Server.MaxJobs = 0 }, core.ErrConfigInvalid},
		{"negative job ttl", func(c *Config) { c.Server.JobTTLHours = -1 }, core.ErrConfigInvalid},
		{"zero market age", func(c *Config) { c.MarketAgeMinutes = 0 }, core.ErrConfigInvalid},
		{"tier out of range", func(c *Config) { c.Tiers = []int{4, 9} }, core.ErrConfigInvalid},
		{"no cities", func(c *Config) { c.Cities = nil }, core.ErrConfigMissing},
		{"unknown city", func(c *Config) { c.Cities = []string{"Atlantis"} }, core.ErrConfigInvalid},
		{"quality out of range", func(c *Config) { c.Sources.Prices.Qualities = []int{5} }, core.ErrConfigInvalid},
		{"negative chunk size", func(c *Config) { c.Sources.Prices.ChunkSize = -1 }, core.ErrConfigInvalid},
		{"unknown destination", func(c *Config) { c.Matcher.Destination = "anywhere" }, core.ErrConfigInvalid},
		{"sink city not allowed", func(c *Config) {
			c.Matcher.Destination = "sink"
			c.Cities = []string{"Martlock", "Lymhurst"}
		}, core.ErrConfigInvalid},
		{"sink city allowed", func(c *Config) {
			c.Matcher.Destination = "sink"
			c.Cities = []string{"Martlock", "Black Market"}
		}, nil},
		{"unknown rounding", func(c *Config) { c.Matcher.Rounding = "ceil" }, core.ErrConfigInvalid},
		{"negative min profit", func(c *Config) { c.Matcher.MinProfit = -1 }, core.ErrConfigInvalid},
		{"localfs without path", func(c *Config) { c.Archive.Type = "localfs" }, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Archive.Type = "s3" }, core.ErrConfigMissing},
		{"unknown archive", func(c *Config) { c.Archive.Type = "ftp" }, core.ErrConfigInvalid},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, core.ErrConfigInvalid},
		{"webhook without url", func(c *Config) { c.Output.Webhook.Enabled = true }, core.ErrConfigMissing},
		{"webhook bad url", func(c *Config) {
			c.Output.Webhook.Enabled = true
			c.Output.Webhook.URL = "not a url"
		}, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestConfig_MatcherConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Premium = false
	cfg.Cities = []string{"Martlock", "Caerleon"}
	cfg.MarketAgeMinutes = 15
	cfg.Matcher.Rounding = "nearest"
	cfg.Matcher.MinProfit = 500

	mc := cfg.MatcherConfig()

	assert.Equal(t, []core.City{core.CityMartlock, core.CityCaerleon}, mc.AllowedCities)
	assert.Equal(t, matcher.StandardTaxModifier, mc.TaxModifier)
	assert.Equal(t, 15, mc.MaxAgeMinutes)
	assert.Equal(t, matcher.RoundNearest, mc.Rounding)
	assert.Equal(t, core.CityBlackMarket, mc.SinkCity)
	assert.Equal(t, int64(500), mc.MinProfit)
}

func TestConfig_Qualities(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, core.DefaultQualities, cfg.Qualities())

	cfg.Sources.Prices.Qualities = []int{2, 3}
	assert.Equal(t, []core.Quality{2, 3}, cfg.Qualities())

	cfg.Sources.Prices.Qualities = nil
	assert.Equal(t, core.DefaultQualities, cfg.Qualities())
}

func TestConfig_ArchiveConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Archive = ArchiveConfig{Type: "s3", S3: S3Config{Bucket: "flips", Prefix: "eu"}}

	ac := cfg.ArchiveConfig()
	assert.Equal(t, "s3", ac.Type)
	assert.Equal(t, "flips", ac.S3.Bucket)
	assert.Equal(t, "eu", ac.S3.Prefix)
}
