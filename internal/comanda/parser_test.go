package comanda

import "testing"

func TestParseLine(t *testing.T) {
	cases := []struct {
		name         string
		token        string
		expectedQty  int64
		expectedName string
	}{
		{"quantity prefix", "3x Pizza Margherita", 3, "Pizza Margherita"},
		{"single quantity", "1x Pasta Carbonara", 1, "Pasta Carbonara"},
		{"no prefix falls back to one", "Acqua", 1, "Acqua"},
		{"uppercase X is not a prefix", "2X Birra", 1, "2X Birra"},
		{"missing space is not a prefix", "2xBirra", 1, "2xBirra"},
		{"surrounding whitespace trimmed", "  2x Tiramisu ", 2, "Tiramisu"},
		{"multi digit quantity", "12x Crostino", 12, "Crostino"},
		{"empty token", "   ", 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qty, name := ParseLine(tc.token)
			if qty != tc.expectedQty || name != tc.expectedName {
				t.Fatalf("ParseLine(%q) = (%d, %q), expected (%d, %q)", tc.token, qty, name, tc.expectedQty, tc.expectedName)
			}
		})
	}
}

func TestCountItemsNewlineSeparated(t *testing.T) {
	counts := make(map[string]int64)
	CountItems(counts, "3x Pizza Margherita\n1x Pasta Carbonara")

	if counts["Pizza Margherita"] != 3 {
		t.Fatalf("expected 3 Pizza Margherita, got %d", counts["Pizza Margherita"])
	}
	if counts["Pasta Carbonara"] != 1 {
		t.Fatalf("expected 1 Pasta Carbonara, got %d", counts["Pasta Carbonara"])
	}
}

func TestCountItemsAccumulatesAcrossComandas(t *testing.T) {
	counts := make(map[string]int64)
	CountItems(counts, "1x Pizza")
	CountItems(counts, "1x Pizza")

	if counts["Pizza"] != 2 {
		t.Fatalf("expected counts to sum across comandas, got %d", counts["Pizza"])
	}
}

func TestCountItemsCommaSeparated(t *testing.T) {
	counts := make(map[string]int64)
	CountItems(counts, "2x Pizza, 1x Acqua, Caffe")

	if counts["Pizza"] != 2 || counts["Acqua"] != 1 || counts["Caffe"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestCountItemsRoundTripsComposerOutput(t *testing.T) {
	cart := []CartLine{
		{Item: menuItem("Pizza", 8, "Pizze"), Quantity: 2},
		{Item: menuItem("Acqua", 2, "Beverages"), Quantity: 1},
	}

	counts := make(map[string]int64)
	CountItems(counts, FormatLines(cart))

	if counts["Pizza"] != 2 || counts["Acqua"] != 1 {
		t.Fatalf("parser does not round-trip composer output: %v", counts)
	}
}
