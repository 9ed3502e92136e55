package catalog

import (
	"testing"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestEnrich(t *testing.T) {
	items := []core.Item{
		{ID: "T4_BAG", Name: "Adept's Bag", Tier: 4},
		{ID: "T6_CAPE@2", Name: "Master's Cape", Tier: 6, Enchantment: 2},
	}
	trades := []core.Trade{
		{ItemID: "T6_CAPE@2", Profit: 10},
		{ItemID: "T4_BAG", Profit: 20},
	}

	got := Enrich(items, trades)

	assert.Equal(t, "Master's Cape", got[0].ItemName)
	assert.Equal(t, "6.2", got[0].ItemTier)
	assert.Equal(t, "Adept's Bag", got[1].ItemName)
	assert.Equal(t, "4.0", got[1].ItemTier)
}

func TestEnrich_UnknownItemPassesThrough(t *testing.T) {
	trades := []core.Trade{{ItemID: "T3_BAG", Profit: 5}}

	got := Enrich([]core.Item{{ID: "T4_BAG", Name: "Adept's Bag", Tier: 4}}, trades)

	assert.Len(t, got, 1)
	assert.Empty(t, got[0].ItemName)
	assert.Empty(t, got[0].ItemTier)
	assert.Equal(t, int64(5), got[0].Profit)
}
