package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/collector"
	"github.com/newthinker/albionflip/internal/collector/aodp"
	"github.com/newthinker/albionflip/internal/collector/items"
	"github.com/newthinker/albionflip/internal/config"
	"github.com/newthinker/albionflip/internal/pipeline"
	"github.com/newthinker/albionflip/internal/storage/archive"
)

// newCatalog builds the item catalog provider with its optional archive cache
func newCatalog(cfg *config.Config, storage archive.Storage, refresh bool, log *zap.Logger) *items.Client {
	opts := []items.Option{
		items.WithTimeout(cfg.Sources.Catalog.Timeout),
		items.WithRefresh(refresh),
		items.WithLogger(log),
	}
	if storage != nil {
		opts = append(opts, items.WithCache(storage, cfg.Sources.Catalog.CacheKey))
	}
	return items.New(cfg.Sources.Catalog.URL, opts...)
}

// newPriceRegistry registers one rate-limited price client per region
func newPriceRegistry(cfg *config.Config) *collector.Registry {
	reg := collector.NewRegistry()
	aodp.Register(reg,
		aodp.WithTimeout(cfg.Sources.Prices.Timeout),
		aodp.WithRateLimit(cfg.Sources.Prices.RequestsPerSecond, cfg.Sources.Prices.Burst),
	)
	return reg
}

// baseRequest builds the scan request described by cfg
func baseRequest(cfg *config.Config) pipeline.Request {
	return pipeline.Request{
		Tiers:     cfg.Tiers,
		Cities:    cfg.AllowedCities(),
		Qualities: cfg.Qualities(),
		ChunkSize: cfg.Sources.Prices.ChunkSize,
		BestOnly:  cfg.Matcher.BestOnly,
		Matcher:   cfg.MatcherConfig(),
	}
}

func openArchive(cfg *config.Config) (archive.Storage, error) {
	storage, err := archive.New(cfg.ArchiveConfig())
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return storage, nil
}
