package handlers

import (
	"testing"

	"sapori-restaurant-service/internal/auth"
	"sapori-restaurant-service/internal/comanda"
)

func TestCanViewStation(t *testing.T) {
	cases := []struct {
		name    string
		role    auth.StaffRole
		station comanda.Station
		want    bool
	}{
		{"manager kitchen", auth.RoleManager, comanda.StationKitchen, true},
		{"manager bar", auth.RoleManager, comanda.StationBar, true},
		{"kitchen own feed", auth.RoleKitchen, comanda.StationKitchen, true},
		{"kitchen cannot read bar", auth.RoleKitchen, comanda.StationBar, false},
		{"bar own feed", auth.RoleBar, comanda.StationBar, true},
		{"bar cannot read kitchen", auth.RoleBar, comanda.StationKitchen, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canViewStation(tc.role, tc.station); got != tc.want {
				t.Fatalf("canViewStation(%s, %s) = %v, want %v", tc.role, tc.station, got, tc.want)
			}
		})
	}
}

func TestStationScopeForRole(t *testing.T) {
	cases := []struct {
		role auth.StaffRole
		want string
	}{
		{auth.RoleManager, ""},
		{auth.RoleServer, ""},
		{auth.RoleKitchen, "KITCHEN"},
		{auth.RoleBar, "BAR"},
	}

	for _, tc := range cases {
		if got := stationScopeForRole(tc.role); got != tc.want {
			t.Fatalf("stationScopeForRole(%s) = %q, want %q", tc.role, got, tc.want)
		}
	}
}
