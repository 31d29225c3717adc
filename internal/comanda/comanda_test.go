package comanda

import "testing"

func menuItem(name string, price float64, category string) MenuItem {
	return MenuItem{Name: name, Price: price, Category: category}
}

func TestStationFor(t *testing.T) {
	cases := []struct {
		name     string
		item     MenuItem
		expected Station
	}{
		{"plain kitchen dish", menuItem("Pizza Margherita", 8.5, "Pizze"), StationKitchen},
		{"beverages category", menuItem("Acqua Naturale", 2, "Beverages"), StationBar},
		{"wine list", menuItem("Chianti", 18, "Red Wines"), StationBar},
		{"beer", menuItem("Moretti", 4, "beers"), StationBar},
		{"coffee", menuItem("Espresso", 1.2, "Coffee & Desserts"), StationBar},
		{"drink keyword inside label", menuItem("Spritz", 6, "Soft Drinks"), StationBar},
		{"bar keyword", menuItem("Amaro", 4, "Bar"), StationBar},
		{"case insensitive", menuItem("Prosecco", 5, "WINES"), StationBar},
		{"explicit tag beats category", MenuItem{Name: "Tiramisu", Price: 5, Category: "Coffee & Desserts", Station: StationKitchen}, StationKitchen},
		{"explicit bar tag", MenuItem{Name: "Granita", Price: 3, Category: "Dolci", Station: StationBar}, StationBar},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StationFor(tc.item); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestSplitTwoStations(t *testing.T) {
	cart := []CartLine{
		{Item: menuItem("Pizza", 8, "Pizze"), Quantity: 2},
		{Item: menuItem("Water", 2, "Beverages"), Quantity: 1},
		{Item: menuItem("Wine", 18, "Wines"), Quantity: 1},
	}

	tickets := Split(cart)
	if len(tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(tickets))
	}

	kitchen := tickets[0]
	if kitchen.Station != StationKitchen {
		t.Fatalf("expected kitchen ticket first, got %s", kitchen.Station)
	}
	if kitchen.Items != "2x Pizza" {
		t.Fatalf("unexpected kitchen items string: %q", kitchen.Items)
	}
	if kitchen.Total != 16 {
		t.Fatalf("expected kitchen total 16, got %v", kitchen.Total)
	}

	bar := tickets[1]
	if bar.Items != "1x Water, 1x Wine" {
		t.Fatalf("unexpected bar items string: %q", bar.Items)
	}
	if bar.Total != 20 {
		t.Fatalf("expected bar total 20, got %v", bar.Total)
	}
}

func TestSplitSingleStation(t *testing.T) {
	cart := []CartLine{
		{Item: menuItem("Espresso", 1.2, "Coffee"), Quantity: 3},
	}

	tickets := Split(cart)
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	if tickets[0].Station != StationBar {
		t.Fatalf("expected bar ticket, got %s", tickets[0].Station)
	}
	if tickets[0].Items != "3x Espresso" {
		t.Fatalf("unexpected items string: %q", tickets[0].Items)
	}
	if tickets[0].Total != 3.6 {
		t.Fatalf("expected total 3.6, got %v", tickets[0].Total)
	}
}

func TestSplitRoundsSubtotals(t *testing.T) {
	cart := []CartLine{
		{Item: menuItem("Crostino", 1.1, "Antipasti"), Quantity: 3},
	}
	tickets := Split(cart)
	if tickets[0].Total != 3.3 {
		t.Fatalf("expected rounded total 3.3, got %v", tickets[0].Total)
	}
}

func TestValidateSubmission(t *testing.T) {
	cart := []CartLine{{Item: menuItem("Pizza", 8, "Pizze"), Quantity: 1}}

	cases := []struct {
		name     string
		input    SubmissionInput
		expected ErrorCode
	}{
		{"missing table", SubmissionInput{ServerID: 1, Cart: cart}, ErrTableRequired},
		{"missing server", SubmissionInput{TableID: 4, Cart: cart}, ErrServerRequired},
		{"empty cart", SubmissionInput{TableID: 4, ServerID: 1}, ErrEmptyCart},
		{"zero quantity", SubmissionInput{TableID: 4, ServerID: 1, Cart: []CartLine{{Item: menuItem("Pizza", 8, "Pizze")}}}, ErrInvalidQuantity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSubmission(tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Code != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, err.Code)
			}
		})
	}

	if err := ValidateSubmission(SubmissionInput{TableID: 4, ServerID: 1, Cart: cart}); err != nil {
		t.Fatalf("expected valid submission, got %v", err)
	}
}

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusReady, true},
		{StatusPending, StatusReady, true},
		{StatusReady, StatusReady, true},
		{StatusReady, StatusPending, false},
		{StatusInProgress, StatusPending, false},
		{StatusPaid, StatusReady, false},
	}

	for _, tc := range cases {
		if got := CanAdvance(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("CanAdvance(%s, %s) = %v, expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}
