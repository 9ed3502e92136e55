package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/config"
	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/matcher"
	"github.com/newthinker/albionflip/internal/pipeline"
	"github.com/newthinker/albionflip/internal/sink"
	"github.com/newthinker/albionflip/internal/sink/webhook"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one market scan and print profitable trades",
	Example: `  albionflip scan --region americas --tiers 6,7,8
  albionflip scan --black-market --best --format json --limit 20`,
	RunE: runScan,
}

var (
	scanRegion         string
	scanTiers          []int
	scanCities         []string
	scanAge            int
	scanPremium        bool
	scanBest           bool
	scanBlackMarket    bool
	scanFormat         string
	scanLimit          int
	scanRefreshCatalog bool
)

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanRegion, "region", "", "market region: europe, asia or americas")
	f.IntSliceVar(&scanTiers, "tiers", nil, "item tiers to include (e.g. 4,5,6)")
	f.StringSliceVar(&scanCities, "cities", nil, "allowed cities")
	f.IntVar(&scanAge, "age", 0, "maximum quote age in minutes")
	f.BoolVar(&scanPremium, "premium", true, "apply the premium account tax rate")
	f.BoolVar(&scanBest, "best", false, "report only the most profitable trade per item")
	f.BoolVar(&scanBlackMarket, "black-market", false, "only sell into Black Market buy orders")
	f.StringVar(&scanFormat, "format", "", "output format: table or json")
	f.IntVar(&scanLimit, "limit", 0, "maximum number of trades to print (0 for all)")
	f.BoolVar(&scanRefreshCatalog, "refresh-catalog", false, "ignore the cached item catalog")

	rootCmd.AddCommand(scanCmd)
}

// applyScanFlags overrides config values with the flags the user set
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("region") {
		cfg.Region = scanRegion
	}
	if flags.Changed("tiers") {
		cfg.Tiers = scanTiers
	}
	if flags.Changed("cities") {
		cities := make([]string, len(scanCities))
		for i, c := range scanCities {
			cities[i] = strings.TrimSpace(c)
		}
		cfg.Cities = cities
	}
	if flags.Changed("age") {
		cfg.MarketAgeMinutes = scanAge
	}
	if flags.Changed("premium") {
		cfg.Premium = scanPremium
	}
	if flags.Changed("best") {
		cfg.Matcher.BestOnly = scanBest
	}
	if scanBlackMarket {
		cfg.Matcher.Destination = string(matcher.DestinationSink)
		cfg.Matcher.SinkCity = string(core.CityBlackMarket)
	}
	if flags.Changed("format") {
		cfg.Output.Format = scanFormat
	}
	if flags.Changed("limit") {
		cfg.Output.Limit = scanLimit
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	log := newLogger("")
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)

	// Re-create the logger now that the configured level is known
	log = newLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	storage, err := openArchive(cfg)
	if err != nil {
		return err
	}

	region := core.ParseRegion(cfg.Region)
	prices, ok := newPriceRegistry(cfg).Get(region)
	if !ok {
		return fmt.Errorf("no price provider for region %s", region)
	}

	p := pipeline.New(
		newCatalog(cfg, storage, scanRefreshCatalog, log),
		prices,
		pipeline.WithLogger(log),
	)

	sinks := sink.NewRegistry()
	out, err := sink.New(cfg.Output.Format, cmd.OutOrStdout(), cfg.Output.Limit)
	if err != nil {
		return err
	}
	if err := registerSinks(sinks, out, cfg, region); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting scan",
		zap.String("region", string(region)),
		zap.Ints("tiers", cfg.Tiers),
		zap.Int("cities", len(cfg.Cities)),
		zap.Int("max_age_minutes", cfg.MarketAgeMinutes),
		zap.Bool("premium", cfg.Premium),
	)

	result, err := p.Run(ctx, baseRequest(cfg), func(pr pipeline.Progress) {
		log.Debug("scan progress",
			zap.Int("completed", pr.Completed),
			zap.Int("total", pr.Total),
			zap.Float64("percent", pr.Percent),
			zap.Int("observations", pr.Observations),
		)
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	for name, err := range sinks.PublishAll(ctx, result.Trades) {
		log.Error("publishing trades failed", zap.String("sink", name), zap.Error(err))
		if name == out.Name() {
			return err
		}
	}

	return nil
}

// registerSinks adds the stdout sink and, when enabled, the webhook.
func registerSinks(sinks *sink.Registry, out sink.Sink, cfg *config.Config, region core.Region) error {
	if err := sinks.Register(out); err != nil {
		return fmt.Errorf("register %s sink: %w", out.Name(), err)
	}
	if cfg.Output.Webhook.Enabled {
		hook := webhook.New(cfg.Output.Webhook.URL, cfg.Output.Webhook.Headers, region)
		if err := sinks.Register(hook); err != nil {
			return fmt.Errorf("register %s sink: %w", hook.Name(), err)
		}
	}
	return nil
}
