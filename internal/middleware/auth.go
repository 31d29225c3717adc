package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"sapori-restaurant-service/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const authContextKey contextKey = "authContext"

// AuthContext is the explicit session object handed to every operation that
// needs to know who is acting. The comanda composer takes the server id
// from here; there is no process-global current user.
type AuthContext struct {
	StaffID int64
	Role    auth.StaffRole
	Name    string
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

// StaffAuth verifies the bearer token and checks the staff row is still
// active. An empty allowed set admits any role.
func StaffAuth(db *pgxpool.Pool, jwtSecret string, allowed ...auth.StaffRole) func(http.Handler) http.Handler {
	allowedSet := make(map[auth.StaffRole]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			if len(allowedSet) > 0 && !allowedSet[claims.Role] {
				writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
				return
			}

			var active bool
			if err := db.QueryRow(r.Context(), `select is_active from staff where id = $1`, claims.StaffID).Scan(&active); err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Staff account not found")
				return
			}
			if !active {
				writeAuthError(w, http.StatusForbidden, "Staff account is disabled")
				return
			}

			authCtx := &AuthContext{
				StaffID: claims.StaffID,
				Role:    claims.Role,
				Name:    claims.Name,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}
