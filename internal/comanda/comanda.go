package comanda

import (
	"math"
	"strconv"
	"strings"
)

type Station string

const (
	StationKitchen Station = "KITCHEN"
	StationBar     Station = "BAR"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusPaid       Status = "PAID"
)

// statusRank orders the normal lifecycle. Transitions may only move forward;
// PAID is reserved for settlement and never set through the status endpoint.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusReady:      2,
	StatusPaid:       3,
}

func ValidStatus(s Status) bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvance reports whether a comanda may move from one status to the next.
// Same-status updates are allowed (idempotent taps on station screens).
func CanAdvance(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

type MenuItem struct {
	ID       int64
	Name     string
	Price    float64
	Category string
	// Station is the explicit routing tag on the catalog item. Empty means
	// untagged: fall back to the category keyword classification.
	Station Station
}

type CartLine struct {
	Item     MenuItem
	Quantity int32
	Notes    string
}

// Ticket is one station's share of a submitted cart.
type Ticket struct {
	Station Station
	Lines   []CartLine
	Items   string
	Total   float64
}

var barCategoryKeywords = []string{"beverages", "wines", "beers", "coffee", "bar", "drink"}

// StationFor routes a menu item to kitchen or bar. An explicit station tag
// wins; untagged items are classified by a case-insensitive substring test
// over the category label.
func StationFor(item MenuItem) Station {
	switch item.Station {
	case StationKitchen, StationBar:
		return item.Station
	}
	category := strings.ToLower(item.Category)
	for _, keyword := range barCategoryKeywords {
		if strings.Contains(category, keyword) {
			return StationBar
		}
	}
	return StationKitchen
}

// Split partitions a cart into at most two tickets, one per station, each
// with its display string and subtotal. Line order within a ticket is the
// cart's insertion order. Kitchen precedes bar in the result.
func Split(cart []CartLine) []Ticket {
	var kitchen, bar Ticket
	kitchen.Station = StationKitchen
	bar.Station = StationBar

	for _, line := range cart {
		if line.Quantity <= 0 {
			continue
		}
		subtotal := round2(line.Item.Price * float64(line.Quantity))
		if StationFor(line.Item) == StationBar {
			bar.Lines = append(bar.Lines, line)
			bar.Total = round2(bar.Total + subtotal)
		} else {
			kitchen.Lines = append(kitchen.Lines, line)
			kitchen.Total = round2(kitchen.Total + subtotal)
		}
	}

	tickets := make([]Ticket, 0, 2)
	for _, ticket := range []Ticket{kitchen, bar} {
		if len(ticket.Lines) == 0 {
			continue
		}
		ticket.Items = FormatLines(ticket.Lines)
		tickets = append(tickets, ticket)
	}
	return tickets
}

// FormatLines renders cart lines as the comanda display string, e.g.
// "2x Pizza, 1x Acqua". The statistics parser depends on this exact shape.
func FormatLines(lines []CartLine) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(int(line.Quantity)))
		b.WriteString("x ")
		b.WriteString(line.Item.Name)
	}
	return b.String()
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
