package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"sapori-restaurant-service/internal/auth"
	"sapori-restaurant-service/internal/config"
	"sapori-restaurant-service/internal/http/handlers"
	"sapori-restaurant-service/internal/middleware"
	"sapori-restaurant-service/internal/queue"
	"sapori-restaurant-service/internal/storage"
	"sapori-restaurant-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, store *storage.ObjectStore, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{DB: db, Logger: logger, Config: cfg, Queue: queueClient, Store: store}

	anyStaff := middleware.StaffAuth(db, cfg.JWTSecret)
	managerOnly := middleware.StaffAuth(db, cfg.JWTSecret, auth.RoleManager)
	floorStaff := middleware.StaffAuth(db, cfg.JWTSecret, auth.RoleManager, auth.RoleServer)
	stationStaff := middleware.StaffAuth(db, cfg.JWTSecret, auth.RoleManager, auth.RoleKitchen, auth.RoleBar)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/login", h.Login)

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(managerOnly)
		r.Get("/", h.ListStaff)
		r.Post("/", h.CreateStaff)
		r.Put("/{staffId}/active", h.UpdateStaffActive)
	})

	r.Route("/api/menu", func(r chi.Router) {
		r.With(anyStaff).Get("/", h.ListMenu)
		r.With(managerOnly).Post("/", h.CreateMenuItem)
		r.With(managerOnly).Put("/{itemId}", h.UpdateMenuItem)
		r.With(managerOnly).Delete("/{itemId}", h.DeleteMenuItem)
		r.With(managerOnly).Post("/{itemId}/image", h.UploadMenuImage)
	})

	r.Route("/api/tables", func(r chi.Router) {
		r.With(anyStaff).Get("/", h.FloorMap)
		r.With(managerOnly).Post("/", h.CreateTable)
		r.With(managerOnly).Put("/{tableId}", h.UpdateTable)
		r.With(managerOnly).Delete("/{tableId}", h.DeleteTable)
		r.With(floorStaff).Put("/{tableId}/status", h.UpdateTableStatus)

		r.With(floorStaff).Get("/{tableId}/bill", h.TableBill)
		r.With(floorStaff).Get("/{tableId}/bill/receipt", h.TableBillReceipt)
		r.With(floorStaff).Post("/{tableId}/settle", h.SettleTable)
	})

	r.Route("/api/reservations", func(r chi.Router) {
		r.Use(floorStaff)
		r.Get("/", h.ListReservations)
		r.Post("/", h.CreateReservation)
		r.Put("/{reservationId}", h.UpdateReservation)
		r.Delete("/{reservationId}", h.DeleteReservation)
	})

	r.Route("/api/comandas", func(r chi.Router) {
		r.With(floorStaff).Post("/", h.SubmitComanda)
		r.With(anyStaff).Get("/", h.ListComandas)
		r.With(stationStaff).Put("/{comandaId}/status", h.UpdateComandaStatus)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(stationStaff)
		r.Get("/", h.ListStationNotifications)
		r.Put("/{notificationId}/ack", h.AcknowledgeStationNotification)
	})

	r.Route("/api/stats", func(r chi.Router) {
		r.Use(managerOnly)
		r.Get("/best-sellers", h.BestSellers)
		r.Get("/revenue", h.Revenue)
	})

	if wsServer != nil {
		r.Get("/ws/floor", wsServer.FloorWS)
		r.Get("/ws/station", wsServer.StationWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
