package catalog

import "github.com/newthinker/albionflip/internal/core"

// Enrich sets ItemName and ItemTier on trades whose item is in items. Trades for
// unknown items pass through unchanged.
func Enrich(items []core.Item, trades []core.Trade) []core.Trade {
	lookup := make(map[string]core.Item, len(items))
	for _, item := range items {
		lookup[item.ID] = item
	}

	for i := range trades {
		item, ok := lookup[trades[i].ItemID]
		if !ok {
			continue
		}
		trades[i].ItemName = item.Name
		trades[i].ItemTier = item.TierLabel()
	}
	return trades
}
