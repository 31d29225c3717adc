package billing

import "testing"

func TestClampWays(t *testing.T) {
	cases := []struct {
		in, out int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{4, 4},
		{20, 20},
		{25, 20},
	}

	for _, tc := range cases {
		if got := ClampWays(tc.in); got != tc.out {
			t.Fatalf("ClampWays(%d) = %d, expected %d", tc.in, got, tc.out)
		}
	}
}

func TestShare(t *testing.T) {
	if got := Share(100.0, 4); got != 25.0 {
		t.Fatalf("expected 25.0, got %v", got)
	}
	// N above the cap behaves as N=20.
	if got := Share(100.0, 25); got != 5.0 {
		t.Fatalf("expected clamped share 5.0, got %v", got)
	}
	if got := Share(10.0, 3); got != 3.33 {
		t.Fatalf("expected 3.33, got %v", got)
	}
}

func TestComputeSumsStoredTotals(t *testing.T) {
	lines := []Line{
		{ComandaID: 1, Station: "KITCHEN", Items: "2x Pizza", Subtotal: 30.5},
		{ComandaID: 2, Station: "BAR", Items: "1x Wine", Subtotal: 15.0},
	}

	bill := Compute(12, lines, 2)
	if bill.Total != 45.5 {
		t.Fatalf("expected total 45.5, got %v", bill.Total)
	}
	if bill.Ways != 2 || bill.PerHead != 22.75 {
		t.Fatalf("unexpected split: ways=%d perHead=%v", bill.Ways, bill.PerHead)
	}
}

func TestComputeEmptyBill(t *testing.T) {
	bill := Compute(3, nil, 4)
	if bill.Total != 0 {
		t.Fatalf("expected zero total for nothing to pay, got %v", bill.Total)
	}
	if bill.PerHead != 0 {
		t.Fatalf("expected zero per-head, got %v", bill.PerHead)
	}
	if bill.Lines == nil {
		t.Fatal("expected empty line slice, got nil")
	}
}
