package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sapori-restaurant-service/internal/floor"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FloorTable is one table on the resolved floor map. Status is derived on
// every read and never written back.
type FloorTable struct {
	ID     int64   `json:"id"`
	Number int32   `json:"number"`
	Seats  int32   `json:"seats"`
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// FetchFloorSnapshot loads every table with its effective status for the
// day containing now. Shared by the floor endpoint and the floor websocket
// feed.
func FetchFloorSnapshot(ctx context.Context, db *pgxpool.Pool, now time.Time) ([]FloorTable, error) {
	rows, err := db.Query(ctx, `select id, number, seats, status, notes from tables order by number asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]FloorTable, 0)
	floorTables := make([]floor.Table, 0)
	for rows.Next() {
		var (
			table FloorTable
			notes pgtype.Text
		)
		if err := rows.Scan(&table.ID, &table.Number, &table.Seats, &table.Status, &notes); err != nil {
			return nil, err
		}
		table.Notes = textPtr(notes)
		out = append(out, table)
		floorTables = append(floorTables, floor.Table{
			ID:     table.ID,
			Number: table.Number,
			Status: floor.Status(table.Status),
			Seats:  table.Seats,
		})
	}
	rows.Close()

	dayStart, dayEnd := dayBounds(now)
	resRows, err := db.Query(ctx, `
		select id, table_id, reserved_at
		from reservations
		where reserved_at >= $1 and reserved_at < $2
	`, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer resRows.Close()

	reservations := make([]floor.Reservation, 0)
	for resRows.Next() {
		var (
			res     floor.Reservation
			tableID pgtype.Int8
		)
		if err := resRows.Scan(&res.ID, &tableID, &res.When); err != nil {
			return nil, err
		}
		res.TableID = int8Ptr(tableID)
		reservations = append(reservations, res)
	}
	resRows.Close()

	paidAfter := func(tableID int64, threshold time.Time) (bool, error) {
		var exists bool
		err := db.QueryRow(ctx, `
			select exists (
				select 1 from comandas
				where table_id = $1 and status = 'PAID' and placed_at >= $2
			)
		`, tableID, threshold).Scan(&exists)
		return exists, err
	}

	statuses, err := floor.Resolve(floorTables, reservations, paidAfter)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Status = string(statuses[out[i].ID])
	}
	return out, nil
}

// FloorMap returns the resolved status of every table in the sala.
func (h *Handler) FloorMap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tables, err := FetchFloorSnapshot(ctx, h.DB, time.Now())
	if err != nil {
		h.Logger.Error("floor snapshot failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to resolve floor map")
		return
	}

	response.Success(w, tables)
}

type tableRequest struct {
	Number int32   `json:"number"`
	Seats  int32   `json:"seats"`
	Notes  *string `json:"notes"`
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Number <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number must be positive")
		return
	}
	if req.Seats <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Seat count must be positive")
		return
	}

	var table FloorTable
	var notes pgtype.Text
	query := `
		insert into tables (number, seats, notes)
		values ($1, $2, $3)
		returning id, number, seats, status, notes
	`
	if err := h.DB.QueryRow(ctx, query, req.Number, req.Seats, req.Notes).Scan(&table.ID, &table.Number, &table.Seats, &table.Status, &notes); err != nil {
		if isUniqueViolation(err) {
			response.Error(w, http.StatusConflict, "TABLE_NUMBER_TAKEN", "A table with this number already exists")
			return
		}
		h.Logger.Error("table insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create table")
		return
	}
	table.Notes = textPtr(notes)

	response.Created(w, table)
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if req.Number <= 0 || req.Seats <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number and seat count must be positive")
		return
	}

	var table FloorTable
	var notes pgtype.Text
	query := `
		update tables
		set number = $1, seats = $2, notes = $3
		where id = $4
		returning id, number, seats, status, notes
	`
	if err := h.DB.QueryRow(ctx, query, req.Number, req.Seats, req.Notes, tableID).Scan(&table.ID, &table.Number, &table.Seats, &table.Status, &notes); err != nil {
		if isUniqueViolation(err) {
			response.Error(w, http.StatusConflict, "TABLE_NUMBER_TAKEN", "A table with this number already exists")
			return
		}
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
		return
	}
	table.Notes = textPtr(notes)

	response.Success(w, table)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	var unpaid int64
	if err := h.DB.QueryRow(ctx, `select count(*) from comandas where table_id = $1 and status <> 'PAID'`, tableID).Scan(&unpaid); err != nil {
		h.Logger.Error("table delete check failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete table")
		return
	}
	if unpaid > 0 {
		response.Error(w, http.StatusConflict, "TABLE_HAS_OPEN_COMANDAS", "Settle the table before deleting it")
		return
	}

	tag, err := h.DB.Exec(ctx, `delete from tables where id = $1`, tableID)
	if err != nil {
		// Settled comandas keep their table reference until the daily sweep.
		if isForeignKeyViolation(err) {
			response.Error(w, http.StatusConflict, "TABLE_HAS_COMANDAS", "Table still has comandas recorded against it")
			return
		}
		h.Logger.Error("table delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete table")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, map[string]any{"id": tableID, "deleted": true})
}

type updateTableStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTableStatus lets a manager force a table's stored state, e.g. to
// mark a walk-in party OCCUPIED or release a table after a no-show.
// RESERVED is display-only and cannot be stored.
func (h *Handler) UpdateTableStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	var req updateTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	status := floor.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != floor.StatusFree && status != floor.StatusOccupied {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Status must be FREE or OCCUPIED")
		return
	}

	tag, err := h.DB.Exec(ctx, `update tables set status = $1 where id = $2`, string(status), tableID)
	if err != nil {
		h.Logger.Error("table status update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update table")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, map[string]any{"id": tableID, "status": string(status)})
}
