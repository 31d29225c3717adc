package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sapori-restaurant-service/internal/comanda"
	"sapori-restaurant-service/internal/middleware"
	"sapori-restaurant-service/internal/queue"
	"sapori-restaurant-service/internal/utils"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type submitComandaRequest struct {
	TableID int64               `json:"tableId"`
	Lines   []submitComandaLine `json:"lines"`
}

type submitComandaLine struct {
	MenuItemID int64  `json:"menuItemId"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
}

type comandaResponse struct {
	ID          int64     `json:"id"`
	TableID     int64     `json:"tableId"`
	TableNumber int32     `json:"tableNumber"`
	Station     string    `json:"station"`
	Items       string    `json:"items"`
	Total       float64   `json:"total"`
	Status      string    `json:"status"`
	PlacedAt    time.Time `json:"placedAt"`
	Notes       *string   `json:"notes"`
}

// SubmitComanda validates the cart, splits it into station tickets and
// commits them atomically: comanda rows plus line items, the table flips
// to OCCUPIED, and the table's reservations for today are consumed.
// Station events are fanned out after the transaction commits.
func (h *Handler) SubmitComanda(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req submitComandaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	cart, comandaErr := h.loadCart(ctx, req.Lines)
	if comandaErr != nil {
		response.Error(w, comandaErr.StatusCode, string(comandaErr.Code), comandaErr.Message)
		return
	}

	input := comanda.SubmissionInput{
		TableID:  req.TableID,
		ServerID: authCtx.StaffID,
		Cart:     cart,
	}
	if validationErr := comanda.ValidateSubmission(input); validationErr != nil {
		response.Error(w, validationErr.StatusCode, string(validationErr.Code), validationErr.Message)
		return
	}

	tickets := comanda.Split(cart)

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("comanda tx begin failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to submit comanda")
		return
	}
	defer tx.Rollback(ctx)

	var tableNumber int32
	if err := tx.QueryRow(ctx, `select number from tables where id = $1 for update`, req.TableID).Scan(&tableNumber); err != nil {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
		return
	}

	created := make([]comandaResponse, 0, len(tickets))
	for _, ticket := range tickets {
		var (
			comandaID int64
			placedAt  time.Time
		)
		err := tx.QueryRow(ctx, `
			insert into comandas (table_id, items, total, station, status, server_id)
			values ($1, $2, $3, $4, 'PENDING', $5)
			returning id, placed_at
		`, req.TableID, ticket.Items, ticket.Total, string(ticket.Station), authCtx.StaffID).Scan(&comandaID, &placedAt)
		if err != nil {
			h.Logger.Error("comanda insert failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to submit comanda")
			return
		}

		for _, line := range ticket.Lines {
			subtotal := line.Item.Price * float64(line.Quantity)
			_, err := tx.Exec(ctx, `
				insert into comanda_items (comanda_id, menu_item_id, name, unit_price, quantity, subtotal)
				values ($1, $2, $3, $4, $5, $6)
			`, comandaID, line.Item.ID, line.Item.Name, line.Item.Price, line.Quantity, subtotal)
			if err != nil {
				h.Logger.Error("comanda item insert failed", zapError(err))
				response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to submit comanda")
				return
			}
		}

		created = append(created, comandaResponse{
			ID:          comandaID,
			TableID:     req.TableID,
			TableNumber: tableNumber,
			Station:     string(ticket.Station),
			Items:       ticket.Items,
			Total:       ticket.Total,
			Status:      string(comanda.StatusPending),
			PlacedAt:    placedAt,
		})
	}

	if _, err := tx.Exec(ctx, `update tables set status = 'OCCUPIED' where id = $1`, req.TableID); err != nil {
		h.Logger.Error("table occupy failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to submit comanda")
		return
	}

	dayStart, dayEnd := dayBounds(time.Now())
	if _, err := tx.Exec(ctx, `
		delete from reservations
		where table_id = $1 and reserved_at >= $2 and reserved_at < $3
	`, req.TableID, dayStart, dayEnd); err != nil {
		h.Logger.Error("reservation consume failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to submit comanda")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("comanda tx commit failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to submit comanda")
		return
	}

	for _, c := range created {
		h.fanOutTicket(ctx, queue.ComandaCreatedEvent{
			ComandaID:   c.ID,
			TableNumber: int64(c.TableNumber),
			Station:     c.Station,
			Items:       c.Items,
			PlacedAt:    c.PlacedAt,
		})
	}

	response.Created(w, map[string]any{
		"comandas":    created,
		"tableStatus": "OCCUPIED",
	})
}

// fanOutTicket publishes the station event, or persists the notification
// row directly when no broker is configured. Delivery is best-effort: a
// committed comanda is never rolled back over a notification failure.
func (h *Handler) fanOutTicket(ctx context.Context, evt queue.ComandaCreatedEvent) {
	if h.Queue != nil {
		if err := queue.PublishComandaCreated(ctx, h.Queue, evt); err != nil {
			h.Logger.Warn("station event publish failed",
				zap.Int64("comandaId", evt.ComandaID),
				zap.String("station", evt.Station),
				zapError(err))
		}
		return
	}

	evt.Type = queue.ComandaCreatedType
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := queue.ProcessEventToTickets(ctx, h.DB, body); err != nil {
		h.Logger.Warn("station notification insert failed",
			zap.Int64("comandaId", evt.ComandaID),
			zapError(err))
	}
}

// loadCart resolves the submitted lines against the catalog. Unknown or
// unavailable items abort the submission.
func (h *Handler) loadCart(ctx context.Context, lines []submitComandaLine) ([]comanda.CartLine, *comanda.Error) {
	if len(lines) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}

	rows, err := h.DB.Query(ctx, `
		select id, name, price, category, station, available
		from menu_items
		where id = any($1)
	`, ids)
	if err != nil {
		return nil, &comanda.Error{Code: "STORAGE_ERROR", Message: "Failed to load menu items", StatusCode: http.StatusInternalServerError}
	}
	defer rows.Close()

	type catalogItem struct {
		item      comanda.MenuItem
		available bool
	}
	catalog := make(map[int64]catalogItem, len(lines))
	for rows.Next() {
		var (
			entry   catalogItem
			price   pgtype.Numeric
			station string
		)
		if err := rows.Scan(&entry.item.ID, &entry.item.Name, &price, &entry.item.Category, &station, &entry.available); err != nil {
			return nil, &comanda.Error{Code: "STORAGE_ERROR", Message: "Failed to load menu items", StatusCode: http.StatusInternalServerError}
		}
		entry.item.Price = utils.NumericToFloat64(price)
		entry.item.Station = comanda.Station(station)
		catalog[entry.item.ID] = entry
	}

	cart := make([]comanda.CartLine, 0, len(lines))
	for _, line := range lines {
		entry, found := catalog[line.MenuItemID]
		if !found {
			return nil, comanda.ValidationError(comanda.ErrItemNotFound, "One of the ordered items does not exist.")
		}
		if !entry.available {
			return nil, comanda.ValidationError(comanda.ErrItemUnavailable, "One of the ordered items is not available.")
		}
		cart = append(cart, comanda.CartLine{
			Item:     entry.item,
			Quantity: line.Quantity,
			Notes:    strings.TrimSpace(line.Notes),
		})
	}
	return cart, nil
}

// StationComanda is one entry on a station screen's queue.
type StationComanda struct {
	ID          int64     `json:"id"`
	TableID     int64     `json:"tableId"`
	TableNumber int32     `json:"tableNumber"`
	Station     string    `json:"station"`
	Items       string    `json:"items"`
	Total       float64   `json:"total"`
	Status      string    `json:"status"`
	PlacedAt    time.Time `json:"placedAt"`
}

// FetchActiveStationComandas lists a station's unfinished tickets oldest
// first. Shared by the list endpoint and the station websocket feed.
func FetchActiveStationComandas(ctx context.Context, db *pgxpool.Pool, station comanda.Station) ([]StationComanda, error) {
	rows, err := db.Query(ctx, `
		select c.id, c.table_id, t.number, c.station, c.items, c.total, c.status, c.placed_at
		from comandas c
		join tables t on t.id = c.table_id
		where c.station = $1 and c.status in ('PENDING', 'IN_PROGRESS', 'READY')
		order by c.placed_at asc
	`, string(station))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StationComanda, 0)
	for rows.Next() {
		var (
			item  StationComanda
			total pgtype.Numeric
		)
		if err := rows.Scan(&item.ID, &item.TableID, &item.TableNumber, &item.Station, &item.Items, &total, &item.Status, &item.PlacedAt); err != nil {
			return nil, err
		}
		item.Total = utils.NumericToFloat64(total)
		out = append(out, item)
	}
	return out, nil
}

// ListComandas filters the ledger by station, status and table.
func (h *Handler) ListComandas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	sql := `
		select c.id, c.table_id, t.number, c.station, c.items, c.total, c.status, c.placed_at, c.notes
		from comandas c
		join tables t on t.id = c.table_id
	`
	args := []any{}
	conditions := []string{}

	if value := strings.ToUpper(strings.TrimSpace(query.Get("station"))); value != "" {
		station := comanda.Station(value)
		if station != comanda.StationKitchen && station != comanda.StationBar {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Station must be KITCHEN or BAR")
			return
		}
		args = append(args, value)
		conditions = append(conditions, "c.station = $"+intToString(len(args)))
	}
	if value := strings.ToUpper(strings.TrimSpace(query.Get("status"))); value != "" {
		if !comanda.ValidStatus(comanda.Status(value)) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown comanda status")
			return
		}
		args = append(args, value)
		conditions = append(conditions, "c.status = $"+intToString(len(args)))
	}
	if value := strings.TrimSpace(query.Get("tableId")); value != "" {
		tableID, err := parseStringToInt64(value)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
			return
		}
		args = append(args, tableID)
		conditions = append(conditions, "c.table_id = $"+intToString(len(args)))
	}
	if len(conditions) > 0 {
		sql += " where " + strings.Join(conditions, " and ")
	}
	sql += " order by c.placed_at asc"

	rows, err := h.DB.Query(ctx, sql, args...)
	if err != nil {
		h.Logger.Error("comanda list query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch comandas")
		return
	}
	defer rows.Close()

	out := make([]comandaResponse, 0)
	for rows.Next() {
		var (
			item  comandaResponse
			total pgtype.Numeric
			notes pgtype.Text
		)
		if err := rows.Scan(&item.ID, &item.TableID, &item.TableNumber, &item.Station, &item.Items, &total, &item.Status, &item.PlacedAt, &notes); err != nil {
			h.Logger.Error("comanda row scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch comandas")
			return
		}
		item.Total = utils.NumericToFloat64(total)
		item.Notes = textPtr(notes)
		out = append(out, item)
	}

	response.Success(w, out)
}

type updateComandaStatusRequest struct {
	Status string `json:"status"`
}

// UpdateComandaStatus advances a ticket through its lifecycle. Transitions
// only move forward, and PAID is reserved for settlement.
func (h *Handler) UpdateComandaStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comandaID, err := readPathInt64(r, "comandaId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid comanda id")
		return
	}

	var req updateComandaStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	target := comanda.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !comanda.ValidStatus(target) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown comanda status")
		return
	}
	if target == comanda.StatusPaid {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Comandas are marked paid through settlement")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("status tx begin failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update comanda")
		return
	}
	defer tx.Rollback(ctx)

	var current comanda.Status
	if err := tx.QueryRow(ctx, `select status from comandas where id = $1 for update`, comandaID).Scan(&current); err != nil {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Comanda not found")
		return
	}

	if !comanda.CanAdvance(current, target) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "A comanda status can only move forward")
		return
	}

	if _, err := tx.Exec(ctx, `update comandas set status = $1 where id = $2`, string(target), comandaID); err != nil {
		h.Logger.Error("status update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update comanda")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("status tx commit failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update comanda")
		return
	}

	response.Success(w, map[string]any{"id": comandaID, "status": string(target)})
}

// SweepOldComandas purges comandas placed before today along with their
// station notifications. Runs at startup and on manager login.
func (h *Handler) SweepOldComandas(ctx context.Context) (int64, error) {
	dayStart, _ := dayBounds(time.Now())

	if _, err := h.DB.Exec(ctx, `
		delete from station_notifications
		where comanda_id in (select id from comandas where placed_at < $1)
	`, dayStart); err != nil {
		return 0, err
	}

	tag, err := h.DB.Exec(ctx, `delete from comandas where placed_at < $1`, dayStart)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
