package market

import (
	"testing"

	"github.com/newthinker/albionflip/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestNewIndex_GroupsByItem(t *testing.T) {
	idx := NewIndex([]core.PriceObservation{
		{ItemID: "T4_BAG", City: core.CityMartlock},
		{ItemID: "T5_BAG", City: core.CityMartlock},
		{ItemID: "T4_BAG", City: core.CityCaerleon},
	})

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 3, idx.Size())
	assert.Equal(t, []string{"T4_BAG", "T5_BAG"}, idx.ItemIDs())

	bags := idx.Get("T4_BAG")
	assert.Len(t, bags, 2)
	assert.Equal(t, core.CityMartlock, bags[0].City)
	assert.Equal(t, core.CityCaerleon, bags[1].City)
}

func TestIndex_GetMissing(t *testing.T) {
	idx := NewIndex(nil)
	assert.Nil(t, idx.Get("T4_BAG"))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_AddAcrossBatches(t *testing.T) {
	idx := NewIndex([]core.PriceObservation{{ItemID: "T4_BAG", City: core.CityLymhurst}})
	idx.Add(core.PriceObservation{ItemID: "T4_BAG", City: core.CityThetford})

	assert.Len(t, idx.Get("T4_BAG"), 2)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Each(t *testing.T) {
	idx := NewIndex([]core.PriceObservation{
		{ItemID: "B"},
		{ItemID: "A"},
		{ItemID: "B"},
	})

	var seen []string
	counts := map[string]int{}
	idx.Each(func(id string, obs []core.PriceObservation) {
		seen = append(seen, id)
		counts[id] = len(obs)
	})

	assert.Equal(t, []string{"B", "A"}, seen)
	assert.Equal(t, 2, counts["B"])
	assert.Equal(t, 1, counts["A"])
}

func TestIndex_ItemIDsIsCopy(t *testing.T) {
	idx := NewIndex([]core.PriceObservation{{ItemID: "A"}})
	ids := idx.ItemIDs()
	ids[0] = "Z"
	assert.Equal(t, []string{"A"}, idx.ItemIDs())
}
