package collector

import (
	"context"

	"github.com/newthinker/albionflip/internal/core"
)

// DefaultChunkSize is the number of item ids sent per price request
const DefaultChunkSize = 250

// PriceQuery describes one batch of market price data
type PriceQuery struct {
	ItemIDs   []string
	Cities    []core.City
	Qualities []core.Quality
}

// CatalogProvider supplies the raw item catalog
type CatalogProvider interface {
	Name() string
	FetchCatalog(ctx context.Context) ([]core.CatalogEntry, error)
}

// PriceProvider supplies price observations for a batch of items
type PriceProvider interface {
	Name() string
	FetchPrices(ctx context.Context, q PriceQuery) ([]core.PriceObservation, error)
}

// Chunk splits ids into consecutive batches of at most size
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
