package handlers

import (
	"net/http"
	"strings"
	"time"

	"sapori-restaurant-service/internal/auth"
	"sapori-restaurant-service/internal/comanda"
	"sapori-restaurant-service/internal/middleware"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

// StationNotification is one ticket delivered to a station screen. Rows are
// written by the comanda.created consumer and read here until acknowledged.
type StationNotification struct {
	ID           int64     `json:"id"`
	ComandaID    int64     `json:"comandaId"`
	Station      string    `json:"station"`
	TableNumber  int32     `json:"tableNumber"`
	Items        string    `json:"items"`
	CreatedAt    time.Time `json:"createdAt"`
	Acknowledged bool      `json:"acknowledged"`
}

// canViewStation reports whether a role may read the given station's
// notifications. Kitchen and bar staff are confined to their own station.
func canViewStation(role auth.StaffRole, station comanda.Station) bool {
	switch role {
	case auth.RoleKitchen:
		return station == comanda.StationKitchen
	case auth.RoleBar:
		return station == comanda.StationBar
	}
	return true
}

// stationScopeForRole returns the station a role is pinned to, or "" when
// the role may touch any station's notifications.
func stationScopeForRole(role auth.StaffRole) string {
	switch role {
	case auth.RoleKitchen:
		return string(comanda.StationKitchen)
	case auth.RoleBar:
		return string(comanda.StationBar)
	}
	return ""
}

// ListStationNotifications returns a station's pending tickets, oldest
// first. ?all=true includes acknowledged ones.
func (h *Handler) ListStationNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	station := comanda.Station(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("station"))))
	if station != comanda.StationKitchen && station != comanda.StationBar {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Station must be KITCHEN or BAR")
		return
	}
	if !canViewStation(authCtx.Role, station) {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You cannot view this station's notifications")
		return
	}

	query := `
		select id, comanda_id, station, table_number, items, created_at, acknowledged
		from station_notifications
		where station = $1
	`
	if strings.TrimSpace(r.URL.Query().Get("all")) != "true" {
		query += ` and not acknowledged`
	}
	query += ` order by created_at asc`

	rows, err := h.DB.Query(ctx, query, string(station))
	if err != nil {
		h.Logger.Error("station notifications query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load notifications")
		return
	}
	defer rows.Close()

	out := make([]StationNotification, 0)
	for rows.Next() {
		var (
			n         StationNotification
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&n.ID, &n.ComandaID, &n.Station, &n.TableNumber, &n.Items, &createdAt, &n.Acknowledged); err != nil {
			h.Logger.Error("station notification scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load notifications")
			return
		}
		n.CreatedAt = createdAt.Time
		out = append(out, n)
	}

	response.Success(w, out)
}

// AcknowledgeStationNotification marks a ticket as seen on its station
// screen. Kitchen and bar staff can only acknowledge their own station's
// rows; for them the scope predicate turns mismatches into a 404.
func (h *Handler) AcknowledgeStationNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	notificationID, err := readPathInt64(r, "notificationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification id")
		return
	}

	scope := stationScopeForRole(authCtx.Role)
	tag, err := h.DB.Exec(ctx, `
		update station_notifications
		set acknowledged = true
		where id = $1 and ($2 = '' or station = $2)
	`, notificationID, scope)
	if err != nil {
		h.Logger.Error("notification ack failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to acknowledge notification")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Notification not found")
		return
	}

	response.Success(w, map[string]any{"id": notificationID, "acknowledged": true})
}
