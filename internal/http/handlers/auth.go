package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sapori-restaurant-service/internal/auth"
	"sapori-restaurant-service/pkg/response"

	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type staffSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login exchanges staff credentials for a bearer token. A manager login
// also kicks off the day-boundary comanda sweep in the background.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	var (
		staff        staffSummary
		passwordHash string
		isActive     bool
	)
	query := `select id, name, email, password_hash, role, is_active from staff where lower(email) = $1`
	if err := h.DB.QueryRow(ctx, query, email).Scan(&staff.ID, &staff.Name, &staff.Email, &passwordHash, &staff.Role, &isActive); err != nil {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if !isActive {
		response.Error(w, http.StatusForbidden, "ACCOUNT_DISABLED", "This staff account is disabled")
		return
	}
	if !auth.CheckPassword(passwordHash, req.Password) {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	role := auth.StaffRole(staff.Role)
	expiry := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.SignAccessToken(staff.ID, role, staff.Name, h.Config.JWTSecret, expiry)
	if err != nil {
		h.Logger.Error("token signing failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign token")
		return
	}

	if role == auth.RoleManager {
		go func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			removed, sweepErr := h.SweepOldComandas(sweepCtx)
			if sweepErr != nil {
				h.Logger.Warn("comanda sweep on manager login failed", zapError(sweepErr))
				return
			}
			if removed > 0 {
				h.Logger.Info("comanda sweep on manager login", zap.Int64("removed", removed))
			}
		}()
	}

	response.Success(w, map[string]any{
		"token":     token,
		"expiresIn": h.Config.JWTExpirySeconds,
		"staff":     staff,
	})
}

type createStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := auth.StaffRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if name == "" || email == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name and email are required")
		return
	}
	if len(req.Password) < 8 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Password must be at least 8 characters")
		return
	}
	if !auth.ValidRole(role) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown staff role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Logger.Error("password hashing failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create staff")
		return
	}

	var staff staffSummary
	query := `
		insert into staff (name, email, password_hash, role)
		values ($1, $2, $3, $4)
		returning id, name, email, role
	`
	if err := h.DB.QueryRow(ctx, query, name, email, hash, string(role)).Scan(&staff.ID, &staff.Name, &staff.Email, &staff.Role); err != nil {
		if isUniqueViolation(err) {
			response.Error(w, http.StatusConflict, "EMAIL_TAKEN", "A staff account with this email already exists")
			return
		}
		h.Logger.Error("staff insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create staff")
		return
	}

	response.Created(w, staff)
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `select id, name, email, role, is_active from staff order by name asc`)
	if err != nil {
		h.Logger.Error("staff list query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch staff")
		return
	}
	defer rows.Close()

	type staffRow struct {
		staffSummary
		IsActive bool `json:"isActive"`
	}

	out := make([]staffRow, 0)
	for rows.Next() {
		var row staffRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.Role, &row.IsActive); err != nil {
			h.Logger.Error("staff row scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch staff")
			return
		}
		out = append(out, row)
	}

	response.Success(w, out)
}

type updateStaffActiveRequest struct {
	IsActive bool `json:"isActive"`
}

func (h *Handler) UpdateStaffActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staffID, err := readPathInt64(r, "staffId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid staff id")
		return
	}

	var req updateStaffActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tag, err := h.DB.Exec(ctx, `update staff set is_active = $1 where id = $2`, req.IsActive, staffID)
	if err != nil {
		h.Logger.Error("staff update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update staff")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Staff not found")
		return
	}

	response.Success(w, map[string]any{"id": staffID, "isActive": req.IsActive})
}
