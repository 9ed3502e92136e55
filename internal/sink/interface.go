// Package sink renders or delivers the trades found by a scan.
package sink

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/newthinker/albionflip/internal/core"
)

// Sink defines the interface for trade presentation
type Sink interface {
	// Name returns the unique identifier for this sink
	Name() string

	// Publish delivers one batch of trades
	Publish(ctx context.Context, trades []core.Trade) error
}

// SortByProfit returns a copy of trades ordered by descending profit. Equal
// profits keep their scan order.
func SortByProfit(trades []core.Trade) []core.Trade {
	sorted := make([]core.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Profit > sorted[j].Profit
	})
	return sorted
}

// Top sorts trades by profit and keeps at most limit of them. A limit <= 0
// keeps everything.
func Top(trades []core.Trade, limit int) []core.Trade {
	sorted := SortByProfit(trades)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// New returns the stdout sink for a configured format
func New(format string, w io.Writer, limit int) (Sink, error) {
	switch format {
	case "", "table":
		return NewTable(w, limit), nil
	case "json":
		return NewJSON(w, limit), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown output format %q", format))
	}
}
