package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sapori-restaurant-service/internal/comanda"
	"sapori-restaurant-service/internal/utils"
	"sapori-restaurant-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type menuItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Station     string  `json:"station"`
	Available   bool    `json:"available"`
	Allergens   *string `json:"allergens"`
	ImageURL    *string `json:"imageUrl"`
}

// ListMenu returns the catalog. Station is the effective routing target:
// the stored tag when set, otherwise the category classification.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	sql := `
		select id, name, description, price, category, station, available, allergens, image_url
		from menu_items
	`
	args := []any{}
	conditions := []string{}
	if category := strings.TrimSpace(query.Get("category")); category != "" {
		args = append(args, category)
		conditions = append(conditions, "lower(category) = lower($1)")
	}
	if query.Get("available") == "true" {
		conditions = append(conditions, "available = true")
	}
	if len(conditions) > 0 {
		sql += " where " + strings.Join(conditions, " and ")
	}
	sql += " order by category asc, name asc"

	rows, err := h.DB.Query(ctx, sql, args...)
	if err != nil {
		h.Logger.Error("menu list query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch menu")
		return
	}
	defer rows.Close()

	items := make([]menuItemResponse, 0)
	for rows.Next() {
		var (
			item        menuItemResponse
			description pgtype.Text
			price       pgtype.Numeric
			station     string
			allergens   pgtype.Text
			imageURL    pgtype.Text
		)
		if err := rows.Scan(&item.ID, &item.Name, &description, &price, &item.Category, &station, &item.Available, &allergens, &imageURL); err != nil {
			h.Logger.Error("menu row scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch menu")
			return
		}
		item.Description = textPtr(description)
		item.Price = utils.NumericToFloat64(price)
		item.Allergens = textPtr(allergens)
		item.ImageURL = textPtr(imageURL)
		item.Station = string(comanda.StationFor(comanda.MenuItem{
			Name:     item.Name,
			Category: item.Category,
			Station:  comanda.Station(station),
		}))
		items = append(items, item)
	}

	response.Success(w, items)
}

type menuItemRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Station     string  `json:"station"`
	Available   *bool   `json:"available"`
	Allergens   *string `json:"allergens"`
}

func (req *menuItemRequest) validate() (string, bool) {
	if strings.TrimSpace(req.Name) == "" {
		return "Item name is required", false
	}
	if req.Price < 0 {
		return "Price must not be negative", false
	}
	if strings.TrimSpace(req.Category) == "" {
		return "Category is required", false
	}
	station := comanda.Station(strings.ToUpper(strings.TrimSpace(req.Station)))
	if req.Station != "" && station != comanda.StationKitchen && station != comanda.StationBar {
		return "Station must be KITCHEN or BAR", false
	}
	return "", true
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	station := strings.ToUpper(strings.TrimSpace(req.Station))

	var itemID int64
	query := `
		insert into menu_items (name, description, price, category, station, available, allergens)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id
	`
	err := h.DB.QueryRow(ctx, query,
		strings.TrimSpace(req.Name), req.Description, req.Price,
		strings.TrimSpace(req.Category), station, available, req.Allergens,
	).Scan(&itemID)
	if err != nil {
		h.Logger.Error("menu item insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create menu item")
		return
	}

	response.Created(w, map[string]any{"id": itemID})
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	station := strings.ToUpper(strings.TrimSpace(req.Station))

	query := `
		update menu_items
		set name = $1, description = $2, price = $3, category = $4, station = $5,
		    available = $6, allergens = $7, updated_at = now()
		where id = $8
	`
	tag, err := h.DB.Exec(ctx, query,
		strings.TrimSpace(req.Name), req.Description, req.Price,
		strings.TrimSpace(req.Category), station, available, req.Allergens, itemID,
	)
	if err != nil {
		h.Logger.Error("menu item update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update menu item")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
		return
	}

	response.Success(w, map[string]any{"id": itemID})
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}

	var imageURL pgtype.Text
	_ = h.DB.QueryRow(ctx, `select image_url from menu_items where id = $1`, itemID).Scan(&imageURL)

	tag, err := h.DB.Exec(ctx, `delete from menu_items where id = $1`, itemID)
	if err != nil {
		h.Logger.Error("menu item delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete menu item")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
		return
	}

	if h.Store != nil && imageURL.Valid && imageURL.String != "" {
		if delErr := h.Store.DeleteURL(ctx, imageURL.String); delErr != nil {
			h.Logger.Warn("menu image cleanup failed", zapError(delErr))
		}
	}

	response.Success(w, map[string]any{"id": itemID, "deleted": true})
}
