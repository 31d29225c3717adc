package handlers

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDayBounds(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
	}{
		{name: "midday", at: time.Date(2026, 3, 14, 13, 45, 12, 0, time.Local)},
		{name: "just after midnight", at: time.Date(2026, 3, 14, 0, 0, 1, 0, time.Local)},
		{name: "just before midnight", at: time.Date(2026, 3, 14, 23, 59, 59, 0, time.Local)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := dayBounds(tc.at)
			if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
				t.Fatalf("start is not midnight: %v", start)
			}
			if !start.Before(tc.at) && !start.Equal(tc.at) {
				t.Fatalf("start %v is after input %v", start, tc.at)
			}
			if !tc.at.Before(end) {
				t.Fatalf("end %v does not cover input %v", end, tc.at)
			}
			if end.Sub(start) != 24*time.Hour {
				t.Fatalf("expected a 24h window, got %v", end.Sub(start))
			}
		})
	}
}

func TestPgViolationHelpers(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	foreignKey := &pgconn.PgError{Code: "23503"}

	cases := []struct {
		name       string
		err        error
		wantUnique bool
		wantFK     bool
	}{
		{name: "unique violation", err: unique, wantUnique: true},
		{name: "foreign key violation", err: foreignKey, wantFK: true},
		{name: "wrapped foreign key violation", err: fmt.Errorf("delete table: %w", foreignKey), wantFK: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil error", err: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.wantUnique {
				t.Fatalf("isUniqueViolation = %v, want %v", got, tc.wantUnique)
			}
			if got := isForeignKeyViolation(tc.err); got != tc.wantFK {
				t.Fatalf("isForeignKeyViolation = %v, want %v", got, tc.wantFK)
			}
		})
	}
}

func TestMenuItemRequestValidate(t *testing.T) {
	valid := func() menuItemRequest {
		return menuItemRequest{Name: "Pizza Margherita", Price: 8.5, Category: "Pizze"}
	}

	cases := []struct {
		name   string
		mutate func(*menuItemRequest)
		ok     bool
	}{
		{name: "valid item", mutate: func(r *menuItemRequest) {}, ok: true},
		{name: "explicit station", mutate: func(r *menuItemRequest) { r.Station = "BAR" }, ok: true},
		{name: "lowercase station accepted", mutate: func(r *menuItemRequest) { r.Station = "kitchen" }, ok: true},
		{name: "missing name", mutate: func(r *menuItemRequest) { r.Name = "  " }, ok: false},
		{name: "negative price", mutate: func(r *menuItemRequest) { r.Price = -1 }, ok: false},
		{name: "missing category", mutate: func(r *menuItemRequest) { r.Category = "" }, ok: false},
		{name: "unknown station", mutate: func(r *menuItemRequest) { r.Station = "CELLAR" }, ok: false},
		{name: "zero price allowed", mutate: func(r *menuItemRequest) { r.Price = 0 }, ok: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)
			msg, ok := req.validate()
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got ok=%v (%s)", tc.ok, ok, msg)
			}
			if !ok && msg == "" {
				t.Fatalf("expected a validation message")
			}
		})
	}
}
