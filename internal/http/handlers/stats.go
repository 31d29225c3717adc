package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"sapori-restaurant-service/internal/comanda"
	"sapori-restaurant-service/internal/utils"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type bestSellerEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// BestSellers ranks items sold on a given day by re-reading the display
// strings of that day's paid comandas.
func (h *Handler) BestSellers(w http.ResponseWriter, r *http.Request) {
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

	limit := 5
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := parseStringToInt(value)
		if err != nil || parsed <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Limit must be a positive number")
			return
		}
		limit = parsed
	}

	dayStart, dayEnd := dayBounds(day)
	rows, err := h.DB.Query(ctx, `
		select items
		from comandas
		where status = 'PAID' and placed_at >= $1 and placed_at < $2
	`, dayStart, dayEnd)
	if err != nil {
		h.Logger.Error("best sellers query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to compute best sellers")
		return
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var items string
		if err := rows.Scan(&items); err != nil {
			h.Logger.Error("best sellers scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to compute best sellers")
			return
		}
		comanda.CountItems(counts, items)
	}

	ranked := make([]bestSellerEntry, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, bestSellerEntry{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	response.Success(w, map[string]any{
		"date":        dayStart.Format("2006-01-02"),
		"bestSellers": ranked,
	})
}

type dailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Count   int64   `json:"count"`
}

// Revenue reports today's paid total plus a rolling seven-day series.
// Only PAID comandas count; open tickets are not revenue yet.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	todayStart, todayEnd := dayBounds(time.Now())
	windowStart := todayStart.AddDate(0, 0, -6)

	rows, err := h.DB.Query(ctx, `
		select placed_at, total
		from comandas
		where status = 'PAID' and placed_at >= $1 and placed_at < $2
	`, windowStart, todayEnd)
	if err != nil {
		h.Logger.Error("revenue query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to compute revenue")
		return
	}
	defer rows.Close()

	byDay := make(map[string]*dailyRevenue)
	for offset := 0; offset < 7; offset++ {
		date := windowStart.AddDate(0, 0, offset).Format("2006-01-02")
		byDay[date] = &dailyRevenue{Date: date}
	}

	for rows.Next() {
		var (
			placedAt time.Time
			total    pgtype.Numeric
		)
		if err := rows.Scan(&placedAt, &total); err != nil {
			h.Logger.Error("revenue scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to compute revenue")
			return
		}
		entry, ok := byDay[placedAt.In(time.Local).Format("2006-01-02")]
		if !ok {
			continue
		}
		entry.Revenue += utils.NumericToFloat64(total)
		entry.Count++
	}

	series := make([]dailyRevenue, 0, 7)
	for offset := 0; offset < 7; offset++ {
		date := windowStart.AddDate(0, 0, offset).Format("2006-01-02")
		series = append(series, *byDay[date])
	}
	today := series[len(series)-1]

	response.Success(w, map[string]any{
		"today":    today,
		"last7":    series,
		"computed": time.Now().Format(time.RFC3339),
	})
}
