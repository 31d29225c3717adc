package floor

import (
	"errors"
	"testing"
	"time"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestResolveOccupiedAlwaysWins(t *testing.T) {
	noon := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	tables := []Table{{ID: 1, Number: 1, Status: StatusOccupied}}
	reservations := []Reservation{{ID: 10, TableID: int64Ptr(1), When: noon}}

	statuses, err := Resolve(tables, reservations, func(int64, time.Time) (bool, error) {
		t.Fatal("paid-order predicate must not run for occupied tables")
		return false, nil
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if statuses[1] != StatusOccupied {
		t.Fatalf("expected OCCUPIED, got %s", statuses[1])
	}
}

func TestResolveFreeWithoutReservations(t *testing.T) {
	tables := []Table{{ID: 2, Number: 2, Status: StatusFree}}

	statuses, err := Resolve(tables, nil, func(int64, time.Time) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if statuses[2] != StatusFree {
		t.Fatalf("expected FREE, got %s", statuses[2])
	}
}

func TestResolveLegacyReservedNormalizes(t *testing.T) {
	tables := []Table{{ID: 3, Number: 3, Status: "RESERVED"}}

	statuses, err := Resolve(tables, nil, func(int64, time.Time) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if statuses[3] != StatusFree {
		t.Fatalf("expected legacy reserved status to normalize to FREE, got %s", statuses[3])
	}
}

func TestResolveToleranceWindow(t *testing.T) {
	reservedAt := time.Date(2026, 3, 14, 20, 0, 0, 0, time.Local)

	cases := []struct {
		name     string
		paidAt   time.Time
		expected Status
	}{
		{
			name:     "paid order 30 minutes early resolves",
			paidAt:   reservedAt.Add(-30 * time.Minute),
			expected: StatusFree,
		},
		{
			name:     "paid order 2 hours early is outside tolerance",
			paidAt:   reservedAt.Add(-2 * time.Hour),
			expected: StatusReserved,
		},
		{
			name:     "paid order after the reservation resolves",
			paidAt:   reservedAt.Add(15 * time.Minute),
			expected: StatusFree,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tables := []Table{{ID: 7, Number: 7, Status: StatusFree}}
			reservations := []Reservation{{ID: 1, TableID: int64Ptr(7), When: reservedAt}}

			statuses, err := Resolve(tables, reservations, func(tableID int64, threshold time.Time) (bool, error) {
				return !tc.paidAt.Before(threshold), nil
			})
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if statuses[7] != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, statuses[7])
			}
		})
	}
}

func TestResolveAnyUnresolvedReservationMarksReserved(t *testing.T) {
	lunch := time.Date(2026, 3, 14, 13, 0, 0, 0, time.Local)
	dinner := time.Date(2026, 3, 14, 20, 30, 0, 0, time.Local)

	tables := []Table{{ID: 4, Number: 4, Status: StatusFree}}
	reservations := []Reservation{
		{ID: 1, TableID: int64Ptr(4), When: lunch},
		{ID: 2, TableID: int64Ptr(4), When: dinner},
	}

	// A paid comanda at 13:30 resolves lunch but not dinner.
	paidAt := lunch.Add(30 * time.Minute)
	statuses, err := Resolve(tables, reservations, func(tableID int64, threshold time.Time) (bool, error) {
		return !paidAt.Before(threshold), nil
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if statuses[4] != StatusReserved {
		t.Fatalf("expected RESERVED while dinner is unresolved, got %s", statuses[4])
	}
}

func TestResolveFloatingReservationsIgnored(t *testing.T) {
	tables := []Table{{ID: 5, Number: 5, Status: StatusFree}}
	reservations := []Reservation{{ID: 9, TableID: nil, When: time.Now()}}

	statuses, err := Resolve(tables, reservations, func(int64, time.Time) (bool, error) {
		t.Fatal("floating reservations must not reach the predicate")
		return false, nil
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if statuses[5] != StatusFree {
		t.Fatalf("expected FREE, got %s", statuses[5])
	}
}

func TestResolvePropagatesStorageError(t *testing.T) {
	boom := errors.New("connection reset")
	tables := []Table{{ID: 6, Number: 6, Status: StatusFree}}
	reservations := []Reservation{{ID: 1, TableID: int64Ptr(6), When: time.Now()}}

	_, err := Resolve(tables, reservations, func(int64, time.Time) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
}
