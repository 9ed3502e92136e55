// Package pipeline runs one market scan end to end: catalog, prices, matching,
// reduction and enrichment.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/albionflip/internal/catalog"
	"github.com/newthinker/albionflip/internal/collector"
	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/market"
	"github.com/newthinker/albionflip/internal/matcher"
	"github.com/newthinker/albionflip/internal/metrics"
)

// Request describes one scan
type Request struct {
	Tiers     []int
	Cities    []core.City
	Qualities []core.Quality
	ChunkSize int
	BestOnly  bool
	Matcher   matcher.Config
}

// Progress is reported after every price chunk
type Progress struct {
	Completed    int     `json:"completed"`
	Total        int     `json:"total"`
	Percent      float64 `json:"percent"`
	Observations int     `json:"observations"`
}

// ProgressFunc receives progress updates. It is called from the scanning goroutine.
type ProgressFunc func(Progress)

// Result is the outcome of a scan
type Result struct {
	Trades       []core.Trade  `json:"trades"`
	CatalogSize  int           `json:"catalogSize"`
	ItemsScanned int           `json:"itemsScanned"`
	Chunks       int           `json:"chunks"`
	FailedChunks int           `json:"failedChunks"`
	Observations int           `json:"observations"`
	Duration     time.Duration `json:"duration"`
}

// Pipeline wires the providers to the matcher
type Pipeline struct {
	catalog collector.CatalogProvider
	prices  collector.PriceProvider
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records scan metrics into reg
func WithMetrics(reg *metrics.Registry) Option {
	return func(p *Pipeline) {
		p.metrics = reg
	}
}

// WithClock overrides the time source used for trade ages
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline over the given providers
func New(catalogProvider collector.CatalogProvider, prices collector.PriceProvider, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog: catalogProvider,
		prices:  prices,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes a scan. An empty or unavailable catalog aborts the run; failed
// price chunks are skipped.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	start := time.Now()

	result, err := p.run(ctx, req, progress)

	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "failed"
	}
	if p.metrics != nil {
		p.metrics.RecordScan(status, elapsed.Seconds())
	}
	if err != nil {
		return nil, err
	}

	result.Duration = elapsed
	p.logger.Info("scan completed",
		zap.Int("trades", len(result.Trades)),
		zap.Int("observations", result.Observations),
		zap.Int("failed_chunks", result.FailedChunks),
		zap.Duration("duration", elapsed),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	entries, err := p.catalog.FetchCatalog(ctx)
	if err != nil {
		p.logger.Error("catalog unavailable", zap.String("provider", p.catalog.Name()), zap.Error(err))
		return nil, core.WrapError(core.ErrCatalogUnavailable, err)
	}
	if len(entries) == 0 {
		p.logger.Error("catalog is empty", zap.String("provider", p.catalog.Name()))
		return nil, core.ErrCatalogEmpty
	}

	items := catalog.FilterTiers(catalog.Classify(entries), req.Tiers)
	p.logger.Info("catalog classified",
		zap.Int("entries", len(entries)),
		zap.Int("tradeable", len(items)),
		zap.Ints("tiers", req.Tiers),
	)
	if p.metrics != nil {
		p.metrics.SetCatalogSize(len(items))
	}

	result := &Result{
		CatalogSize:  len(entries),
		ItemsScanned: len(items),
	}

	chunks := collector.Chunk(catalog.IDs(items), req.ChunkSize)
	result.Chunks = len(chunks)

	idx := market.NewIndex(nil)
	for i, ids := range chunks {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("scan cancelled", zap.Int("completed_chunks", i), zap.Int("total_chunks", len(chunks)))
			return nil, err
		}

		observations, err := p.prices.FetchPrices(ctx, collector.PriceQuery{
			ItemIDs:   ids,
			Cities:    req.Cities,
			Qualities: req.Qualities,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.FailedChunks++
			p.logger.Warn("price chunk failed, skipping",
				zap.Int("chunk", i+1),
				zap.Int("items", len(ids)),
				zap.Error(err),
			)
			if p.metrics != nil {
				p.metrics.RecordChunk("failed", 0)
			}
		} else {
			idx.Add(observations...)
			p.logger.Debug("price chunk fetched",
				zap.Int("chunk", i+1),
				zap.Int("observations", len(observations)),
			)
			if p.metrics != nil {
				p.metrics.RecordChunk("success", len(observations))
			}
		}

		if progress != nil {
			progress(Progress{
				Completed:    i + 1,
				Total:        len(chunks),
				Percent:      float64(i+1) / float64(len(chunks)) * 100,
				Observations: idx.Size(),
			})
		}
	}

	result.Observations = idx.Size()
	if result.Chunks > 0 && result.FailedChunks == result.Chunks {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("all %d price chunks failed", result.Chunks))
	}

	m := matcher.New(req.Matcher, matcher.WithClock(p.now))
	trades := m.Match(idx)
	if req.BestOnly {
		trades = matcher.Values(matcher.ReduceToBest(trades))
	}
	result.Trades = catalog.Enrich(items, trades)

	if p.metrics != nil {
		p.metrics.RecordTrades(len(result.Trades))
	}
	return result, nil
}
