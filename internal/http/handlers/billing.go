package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sapori-restaurant-service/internal/billing"
	"sapori-restaurant-service/internal/comanda"
	"sapori-restaurant-service/internal/utils"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

func (h *Handler) readSplitWays(r *http.Request) int {
	value := strings.TrimSpace(r.URL.Query().Get("split"))
	if value == "" {
		return billing.MinSplitWays
	}
	ways, err := parseStringToInt(value)
	if err != nil {
		return billing.MinSplitWays
	}
	return billing.ClampWays(ways)
}

func (h *Handler) loadBill(ctx context.Context, tableID int64, ways int) (billing.Bill, int32, error) {
	var tableNumber int32
	if err := h.DB.QueryRow(ctx, `select number from tables where id = $1`, tableID).Scan(&tableNumber); err != nil {
		return billing.Bill{}, 0, err
	}

	rows, err := h.DB.Query(ctx, `
		select id, station, items, total
		from comandas
		where table_id = $1 and status <> 'PAID'
		order by placed_at asc
	`, tableID)
	if err != nil {
		return billing.Bill{}, 0, err
	}
	defer rows.Close()

	lines := make([]billing.Line, 0)
	for rows.Next() {
		var (
			line  billing.Line
			total pgtype.Numeric
		)
		if err := rows.Scan(&line.ComandaID, &line.Station, &line.Items, &total); err != nil {
			return billing.Bill{}, 0, err
		}
		line.Subtotal = utils.NumericToFloat64(total)
		lines = append(lines, line)
	}

	return billing.Compute(tableID, lines, ways), tableNumber, nil
}

// writeBillError maps a loadBill failure to a response. Only the table
// lookup can yield pgx.ErrNoRows; anything else is a storage fault.
func writeBillError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
		return
	}
	logger.Error("bill load failed", zapError(err))
	response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load bill")
}

// TableBill aggregates a table's unpaid comandas, with an optional even
// split via ?split=N.
func (h *Handler) TableBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	bill, tableNumber, err := h.loadBill(ctx, tableID, h.readSplitWays(r))
	if err != nil {
		writeBillError(w, h.Logger, err)
		return
	}

	response.Success(w, map[string]any{
		"tableNumber": tableNumber,
		"bill":        bill,
	})
}

// TableBillReceipt renders the bill as a printable PDF.
func (h *Handler) TableBillReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	bill, tableNumber, err := h.loadBill(ctx, tableID, h.readSplitWays(r))
	if err != nil {
		writeBillError(w, h.Logger, err)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Sapori", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Table %d", tableNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, time.Now().Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Comandas", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range bill.Lines {
		pdf.CellFormat(0, 5, fmt.Sprintf("%s  EUR %.2f", line.Station, line.Subtotal), "", 1, "L", false, 0, "")
		pdf.MultiCell(0, 4, line.Items, "", "L", false)
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Total: EUR %.2f", bill.Total), "", 1, "L", false, 0, "")
	if bill.Ways > 1 {
		pdf.CellFormat(0, 5, fmt.Sprintf("Split %d ways: EUR %.2f each", bill.Ways, bill.PerHead), "", 1, "L", false, 0, "")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="table-%d-bill.pdf"`, tableNumber))
	if err := pdf.Output(w); err != nil {
		h.Logger.Error("receipt render failed", zapError(err))
	}
}

// SettleTable marks every unpaid comanda on the table PAID and frees the
// table, atomically.
func (h *Handler) SettleTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("settle tx begin failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to settle table")
		return
	}
	defer tx.Rollback(ctx)

	var tableNumber int32
	if err := tx.QueryRow(ctx, `select number from tables where id = $1 for update`, tableID).Scan(&tableNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
			return
		}
		h.Logger.Error("settle table lock failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to settle table")
		return
	}

	var settledTotal pgtype.Numeric
	if err := tx.QueryRow(ctx, `
		select coalesce(sum(total), 0)
		from comandas
		where table_id = $1 and status <> 'PAID'
	`, tableID).Scan(&settledTotal); err != nil {
		h.Logger.Error("settle total query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to settle table")
		return
	}

	tag, err := tx.Exec(ctx, `
		update comandas set status = $1
		where table_id = $2 and status <> $1
	`, string(comanda.StatusPaid), tableID)
	if err != nil {
		h.Logger.Error("settle update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to settle table")
		return
	}

	if _, err := tx.Exec(ctx, `update tables set status = 'FREE' where id = $1`, tableID); err != nil {
		h.Logger.Error("table free failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to settle table")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("settle tx commit failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to settle table")
		return
	}

	response.Success(w, map[string]any{
		"tableId":         tableID,
		"tableNumber":     tableNumber,
		"comandasSettled": tag.RowsAffected(),
		"total":           utils.NumericToFloat64(settledTotal),
		"tableStatus":     "FREE",
	})
}
