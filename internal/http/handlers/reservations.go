package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type reservationResponse struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customerName"`
	Phone        *string   `json:"phone"`
	PartySize    int32     `json:"partySize"`
	ReservedAt   time.Time `json:"reservedAt"`
	TableID      *int64    `json:"tableId"`
	Notes        *string   `json:"notes"`
}

// ListReservations returns the book for one day, today by default.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := time.Now()
	if value := strings.TrimSpace(r.URL.Query().Get("date")); value != "" {
		parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	dayStart, dayEnd := dayBounds(day)

	rows, err := h.DB.Query(ctx, `
		select id, customer_name, phone, party_size, reserved_at, table_id, notes
		from reservations
		where reserved_at >= $1 and reserved_at < $2
		order by reserved_at asc
	`, dayStart, dayEnd)
	if err != nil {
		h.Logger.Error("reservation list query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch reservations")
		return
	}
	defer rows.Close()

	out := make([]reservationResponse, 0)
	for rows.Next() {
		var (
			res     reservationResponse
			phone   pgtype.Text
			tableID pgtype.Int8
			notes   pgtype.Text
		)
		if err := rows.Scan(&res.ID, &res.CustomerName, &phone, &res.PartySize, &res.ReservedAt, &tableID, &notes); err != nil {
			h.Logger.Error("reservation row scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch reservations")
			return
		}
		res.Phone = textPtr(phone)
		res.TableID = int8Ptr(tableID)
		res.Notes = textPtr(notes)
		out = append(out, res)
	}

	response.Success(w, out)
}

type reservationRequest struct {
	CustomerName string    `json:"customerName"`
	Phone        *string   `json:"phone"`
	PartySize    int32     `json:"partySize"`
	ReservedAt   time.Time `json:"reservedAt"`
	TableID      *int64    `json:"tableId"`
	Notes        *string   `json:"notes"`
}

func (req *reservationRequest) validate() (string, bool) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return "Customer name is required", false
	}
	if req.PartySize <= 0 {
		return "Party size must be positive", false
	}
	if req.ReservedAt.IsZero() {
		return "Reservation time is required", false
	}
	return "", true
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	if req.TableID != nil {
		var exists bool
		if err := h.DB.QueryRow(ctx, `select exists (select 1 from tables where id = $1)`, *req.TableID).Scan(&exists); err != nil || !exists {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Assigned table does not exist")
			return
		}
	}

	var reservationID int64
	query := `
		insert into reservations (customer_name, phone, party_size, reserved_at, table_id, notes)
		values ($1, $2, $3, $4, $5, $6)
		returning id
	`
	err := h.DB.QueryRow(ctx, query,
		strings.TrimSpace(req.CustomerName), req.Phone, req.PartySize,
		req.ReservedAt, req.TableID, req.Notes,
	).Scan(&reservationID)
	if err != nil {
		h.Logger.Error("reservation insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create reservation")
		return
	}

	response.Created(w, map[string]any{"id": reservationID})
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reservationID, err := readPathInt64(r, "reservationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	if req.TableID != nil {
		var exists bool
		if err := h.DB.QueryRow(ctx, `select exists (select 1 from tables where id = $1)`, *req.TableID).Scan(&exists); err != nil || !exists {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Assigned table does not exist")
			return
		}
	}

	query := `
		update reservations
		set customer_name = $1, phone = $2, party_size = $3, reserved_at = $4, table_id = $5, notes = $6
		where id = $7
	`
	tag, err := h.DB.Exec(ctx, query,
		strings.TrimSpace(req.CustomerName), req.Phone, req.PartySize,
		req.ReservedAt, req.TableID, req.Notes, reservationID,
	)
	if err != nil {
		h.Logger.Error("reservation update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update reservation")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Reservation not found")
		return
	}

	response.Success(w, map[string]any{"id": reservationID})
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reservationID, err := readPathInt64(r, "reservationId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id")
		return
	}

	tag, err := h.DB.Exec(ctx, `delete from reservations where id = $1`, reservationID)
	if err != nil {
		h.Logger.Error("reservation delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete reservation")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Reservation not found")
		return
	}

	response.Success(w, map[string]any{"id": reservationID, "deleted": true})
}
