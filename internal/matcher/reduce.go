package matcher

import (
	"sort"

	"github.com/newthinker/albionflip/internal/core"
)

// ReduceToBest keeps the highest-profit trade per item. Ties keep the first seen.
func ReduceToBest(trades []core.Trade) map[string]core.Trade {
	best := make(map[string]core.Trade)
	for _, t := range trades {
		cur, ok := best[t.ItemID]
		if !ok || t.Profit > cur.Profit {
			best[t.ItemID] = t
		}
	}
	return best
}

// Values returns the reduced trades ordered by item identifier
func Values(best map[string]core.Trade) []core.Trade {
	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	trades := make([]core.Trade, len(ids))
	for i, id := range ids {
		trades[i] = best[id]
	}
	return trades
}
