package sink

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/newthinker/albionflip/internal/core"
)

// Table writes trades as aligned text columns, most profitable first
type Table struct {
	w     io.Writer
	limit int
}

// NewTable creates a table sink. A limit <= 0 prints every trade.
func NewTable(w io.Writer, limit int) *Table {
	return &Table{w: w, limit: limit}
}

func (t *Table) Name() string { return "table" }

func (t *Table) Publish(ctx context.Context, trades []core.Trade) error {
	if len(trades) == 0 {
		_, err := fmt.Fprintln(t.w, "No profitable trades found.")
		return err
	}

	w := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tITEM\tFROM\tTO\tBUY AT\tSELL AT\tNET\tQUALITY\tAGE (MIN)\tPROFIT\tRISK")
	fmt.Fprintln(w, "----\t----\t----\t--\t------\t-------\t---\t-------\t---------\t------\t----")

	for _, tr := range Top(trades, t.limit) {
		name := tr.ItemName
		if name == "" {
			name = tr.ItemID
		}
		risk := "-"
		if tr.Risk != nil {
			risk = tr.Risk.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s > %s\t%d / %d\t%s\t%s\n",
			tr.ItemTier,
			name,
			tr.BuyFromCity,
			tr.SellToCity,
			humanize.Comma(tr.SellOrder),
			humanize.Comma(tr.BuyOrder),
			humanize.Comma(tr.NetBuyOrder),
			tr.SellQuality,
			tr.BuyQuality,
			tr.SellAge,
			tr.BuyAge,
			humanize.Comma(tr.Profit),
			risk,
		)
	}

	return w.Flush()
}
