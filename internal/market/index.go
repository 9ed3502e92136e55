// Package market groups raw price observations for per-item comparison.
package market

import "github.com/newthinker/albionflip/internal/core"

// Index holds observations grouped by item identifier. Items iterate in first-seen
// order and observations keep their insertion order within a group.
type Index struct {
	groups map[string][]core.PriceObservation
	order  []string
	size   int
}

// NewIndex builds an index over observations
func NewIndex(observations []core.PriceObservation) *Index {
	idx := &Index{groups: make(map[string][]core.PriceObservation)}
	idx.Add(observations...)
	return idx
}

// Add appends observations to their item groups
func (idx *Index) Add(observations ...core.PriceObservation) {
	for _, obs := range observations {
		if _, ok := idx.groups[obs.ItemID]; !ok {
			idx.order = append(idx.order, obs.ItemID)
		}
		idx.groups[obs.ItemID] = append(idx.groups[obs.ItemID], obs)
		idx.size++
	}
}

// Get returns the observations for an item
func (idx *Index) Get(itemID string) []core.PriceObservation {
	return idx.groups[itemID]
}

// ItemIDs returns the indexed item identifiers in first-seen order
func (idx *Index) ItemIDs() []string {
	ids := make([]string, len(idx.order))
	copy(ids, idx.order)
	return ids
}

// Len returns the number of items
func (idx *Index) Len() int {
	return len(idx.order)
}

// Size returns the number of observations
func (idx *Index) Size() int {
	return idx.size
}

// Each calls fn for every item group in first-seen order
func (idx *Index) Each(fn func(itemID string, observations []core.PriceObservation)) {
	for _, id := range idx.order {
		fn(id, idx.groups[id])
	}
}
