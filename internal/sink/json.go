package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/newthinker/albionflip/internal/core"
)

// JSON writes trades as an indented JSON array, most profitable first
type JSON struct {
	w     io.Writer
	limit int
}

// NewJSON creates a JSON sink. A limit <= 0 writes every trade.
func NewJSON(w io.Writer, limit int) *JSON {
	return &JSON{w: w, limit: limit}
}

func (j *JSON) Name() string { return "json" }

func (j *JSON) Publish(ctx context.Context, trades []core.Trade) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Top(trades, j.limit)); err != nil {
		return fmt.Errorf("json: encoding trades: %w", err)
	}
	return nil
}
