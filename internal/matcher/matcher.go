// Package matcher finds profitable city-to-city trades in grouped price observations.
package matcher

import (
	"math"
	"time"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/newthinker/albionflip/internal/market"
)

// Marketplace tax modifiers
const (
	PremiumTaxModifier  = 0.96
	StandardTaxModifier = 0.92
)

// TaxModifier returns the sell-side modifier for the account type
func TaxModifier(premium bool) float64 {
	if premium {
		return PremiumTaxModifier
	}
	return StandardTaxModifier
}

// DestinationMode restricts where matched items may be sold
type DestinationMode string

const (
	// DestinationAny allows every allowed city as the destination
	DestinationAny DestinationMode = "any"
	// DestinationSink allows only the configured sink city
	DestinationSink DestinationMode = "sink"
)

// RoundingMode controls how the taxed destination price becomes an integer
type RoundingMode string

const (
	RoundFloor   RoundingMode = "floor"
	RoundNearest RoundingMode = "nearest"
)

// Config holds matching parameters
type Config struct {
	AllowedCities []core.City
	TaxModifier   float64
	MaxAgeMinutes int
	Destination   DestinationMode
	SinkCity      core.City
	Rounding      RoundingMode
	IncludeRisk   bool
	MinProfit     int64 // trades must earn strictly more than this
}

// DefaultConfig returns matching parameters for a premium account over all cities
func DefaultConfig() Config {
	return Config{
		AllowedCities: core.Cities(),
		TaxModifier:   PremiumTaxModifier,
		MaxAgeMinutes: 30,
		Destination:   DestinationAny,
		SinkCity:      core.CityBlackMarket,
		Rounding:      RoundFloor,
		IncludeRisk:   true,
	}
}

// Option customizes a Matcher
type Option func(*Matcher)

// WithClock overrides the time source used for quote ages
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		m.now = now
	}
}

// Matcher compares every ordered pair of observations of an item
type Matcher struct {
	cfg     Config
	allowed map[core.City]struct{}
	taxBP   int64
	now     func() time.Time
}

// New creates a Matcher
func New(cfg Config, opts ...Option) *Matcher {
	if cfg.SinkCity == "" {
		cfg.SinkCity = core.CityBlackMarket
	}
	if cfg.Rounding == "" {
		cfg.Rounding = RoundFloor
	}
	if cfg.Destination == "" {
		cfg.Destination = DestinationAny
	}

	allowed := make(map[core.City]struct{}, len(cfg.AllowedCities))
	for _, c := range cfg.AllowedCities {
		allowed[c] = struct{}{}
	}

	m := &Matcher{
		cfg:     cfg,
		allowed: allowed,
		taxBP:   int64(math.Round(cfg.TaxModifier * basisPoints)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the matcher's parameters
func (m *Matcher) Config() Config {
	return m.cfg
}

// Match returns all profitable trades in idx. Items are visited in index order.
func (m *Matcher) Match(idx *market.Index) []core.Trade {
	now := m.now()
	var trades []core.Trade
	idx.Each(func(itemID string, observations []core.PriceObservation) {
		trades = append(trades, m.matchItem(itemID, observations, now)...)
	})
	return trades
}

// MatchItem returns the profitable trades among the observations of one item
func (m *Matcher) MatchItem(itemID string, observations []core.PriceObservation) []core.Trade {
	return m.matchItem(itemID, observations, m.now())
}

func (m *Matcher) matchItem(itemID string, observations []core.PriceObservation, now time.Time) []core.Trade {
	var bestBuy map[core.City]int64
	if m.cfg.IncludeRisk {
		bestBuy = bestBuyByCity(observations)
	}

	var trades []core.Trade
	for i := range observations {
		a := &observations[i]
		if !m.isAllowed(a.City) || a.SellPriceMin <= 0 {
			continue
		}
		if m.stale(now, a.SellPriceMinDate.Time) {
			continue
		}
		sellAge := ageMinutes(now, a.SellPriceMinDate.Time)

		for j := range observations {
			if i == j {
				continue
			}
			b := &observations[j]
			if b.City == a.City || !m.isDestination(b.City) || b.BuyPriceMax <= 0 {
				continue
			}
			if m.stale(now, b.BuyPriceMaxDate.Time) {
				continue
			}
			buyAge := ageMinutes(now, b.BuyPriceMaxDate.Time)
			if a.Quality < b.Quality {
				continue
			}

			net := m.NetPrice(b.BuyPriceMax)
			if net <= a.SellPriceMin {
				continue
			}
			profit := net - a.SellPriceMin
			if profit <= m.cfg.MinProfit {
				continue
			}

			trade := core.Trade{
				ItemID:      itemID,
				BuyFromCity: a.City,
				SellToCity:  b.City,
				SellOrder:   a.SellPriceMin,
				BuyOrder:    b.BuyPriceMax,
				NetBuyOrder: net,
				SellQuality: a.Quality,
				BuyQuality:  b.Quality,
				SellAge:     sellAge,
				BuyAge:      buyAge,
				Profit:      profit,
			}
			if m.cfg.IncludeRisk {
				risk := RiskScore(bestBuy[b.City], a.SellPriceMin)
				trade.Risk = &risk
			}
			trades = append(trades, trade)
		}
	}
	return trades
}

func (m *Matcher) isAllowed(c core.City) bool {
	_, ok := m.allowed[c]
	return ok
}

func (m *Matcher) isDestination(c core.City) bool {
	if !m.isAllowed(c) {
		return false
	}
	return m.cfg.Destination != DestinationSink || c == m.cfg.SinkCity
}

const basisPoints = 10000

// NetPrice applies the tax modifier to a raw destination price. The modifier is
// applied in basis points so floor never suffers float drift.
func (m *Matcher) NetPrice(raw int64) int64 {
	scaled := raw * m.taxBP
	if m.cfg.Rounding == RoundNearest {
		return (scaled + basisPoints/2) / basisPoints
	}
	return scaled / basisPoints
}

// RiskScore is the destination's best buy price over the source sell price,
// capped at 1. It is N/A when either side is missing.
func RiskScore(bestBuy, sellPrice int64) core.Risk {
	if sellPrice <= 0 || bestBuy <= 0 {
		return core.RiskNA
	}
	return core.NewRisk(math.Min(1, float64(bestBuy)/float64(sellPrice)))
}

func bestBuyByCity(observations []core.PriceObservation) map[core.City]int64 {
	best := make(map[core.City]int64)
	for _, obs := range observations {
		if obs.BuyPriceMax > best[obs.City] {
			best[obs.City] = obs.BuyPriceMax
		}
	}
	return best
}

// ageMinutes returns whole minutes elapsed since ts. Future times count as 0.
// stale reports whether ts falls outside the age window, to the nanosecond.
func (m *Matcher) stale(now, ts time.Time) bool {
	return now.Sub(ts) > time.Duration(m.cfg.MaxAgeMinutes)*time.Minute
}

func ageMinutes(now, ts time.Time) int {
	d := now.Sub(ts)
	if d < 0 {
		return 0
	}
	minutes := d / time.Minute
	if minutes > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(minutes)
}
