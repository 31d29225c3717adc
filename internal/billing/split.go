// Package billing aggregates a table's unpaid comandas into a bill and
// computes equal split-check shares ("alla romana").
package billing

import "math"

const (
	MinSplitWays = 1
	MaxSplitWays = 20
)

// ClampWays bounds the requested number of diners to [MinSplitWays,
// MaxSplitWays].
func ClampWays(ways int) int {
	if ways < MinSplitWays {
		return MinSplitWays
	}
	if ways > MaxSplitWays {
		return MaxSplitWays
	}
	return ways
}

// Line is one unpaid comanda on the bill. Subtotal is the stored comanda
// total; it is authoritative and never recomputed from the items string.
type Line struct {
	ComandaID int64   `json:"comandaId"`
	Station   string  `json:"station"`
	Items     string  `json:"items"`
	Subtotal  float64 `json:"subtotal"`
}

type Bill struct {
	TableID int64   `json:"tableId"`
	Lines   []Line  `json:"lines"`
	Total   float64 `json:"total"`
	Ways    int     `json:"ways"`
	PerHead float64 `json:"perHead"`
}

// Compute builds the bill for a table from its unpaid comandas. An empty
// line set is a valid "nothing to pay" bill, not an error.
func Compute(tableID int64, lines []Line, ways int) Bill {
	bill := Bill{
		TableID: tableID,
		Lines:   lines,
		Ways:    ClampWays(ways),
	}
	if bill.Lines == nil {
		bill.Lines = []Line{}
	}
	for _, line := range bill.Lines {
		bill.Total = round2(bill.Total + line.Subtotal)
	}
	bill.PerHead = Share(bill.Total, bill.Ways)
	return bill
}

// Share is the per-head amount for an even split across ways diners.
func Share(total float64, ways int) float64 {
	return round2(total / float64(ClampWays(ways)))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
