package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"sapori-restaurant-service/internal/auth"
	"sapori-restaurant-service/internal/comanda"
	"sapori-restaurant-service/internal/config"
	"sapori-restaurant-service/internal/http/handlers"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config

	floorRealtime   *floorRealtime
	stationRealtime *stationRealtime
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	srv := &Server{DB: db, Logger: logger, Config: cfg}
	srv.floorRealtime = newFloorRealtime(db, logger, cfg.WSFloorPollInterval)
	srv.stationRealtime = newStationRealtime(db, logger, cfg.WSStationPollInterval)
	return srv
}

type wsRealtimeClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsRealtimeClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

type floorRealtime struct {
	db       *pgxpool.Pool
	logger   *zap.Logger
	interval time.Duration

	started sync.Once
	mu      sync.RWMutex
	subs    map[*wsRealtimeClient]struct{}

	lastPayload []byte
}

func newFloorRealtime(db *pgxpool.Pool, logger *zap.Logger, interval time.Duration) *floorRealtime {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &floorRealtime{
		db:       db,
		logger:   logger,
		interval: interval,
		subs:     make(map[*wsRealtimeClient]struct{}),
	}
}

func (fr *floorRealtime) ensureStarted() {
	fr.started.Do(func() {
		go fr.pollLoop(context.Background())
	})
}

func (fr *floorRealtime) subscribe(client *wsRealtimeClient) (unsubscribe func()) {
	fr.mu.Lock()
	fr.subs[client] = struct{}{}
	fr.mu.Unlock()

	return func() {
		fr.mu.Lock()
		delete(fr.subs, client)
		fr.mu.Unlock()
	}
}

func (fr *floorRealtime) broadcast(message any) {
	fr.mu.RLock()
	clients := make([]*wsRealtimeClient, 0, len(fr.subs))
	for c := range fr.subs {
		clients = append(clients, c)
	}
	fr.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			fr.mu.Lock()
			delete(fr.subs, c)
			fr.mu.Unlock()
		}
	}
}

func (fr *floorRealtime) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(fr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		fr.mu.RLock()
		idle := len(fr.subs) == 0
		fr.mu.RUnlock()
		if idle {
			continue
		}

		tables, err := handlers.FetchFloorSnapshot(ctx, fr.db, time.Now())
		if err != nil {
			if fr.logger != nil {
				fr.logger.Warn("floor snapshot fetch failed", zap.Error(err))
			}
			continue
		}

		payload, err := json.Marshal(tables)
		if err != nil {
			continue
		}
		fr.mu.Lock()
		changed := !bytes.Equal(payload, fr.lastPayload)
		if changed {
			fr.lastPayload = payload
		}
		fr.mu.Unlock()
		if !changed {
			continue
		}

		fr.broadcast(map[string]any{"type": "floor.state", "data": tables, "updatedAt": time.Now()})
	}
}

type stationRealtime struct {
	db       *pgxpool.Pool
	logger   *zap.Logger
	interval time.Duration

	started sync.Once
	mu      sync.RWMutex
	subs    map[string]map[*wsRealtimeClient]struct{}

	lastPayloads map[string][]byte
}

func newStationRealtime(db *pgxpool.Pool, logger *zap.Logger, interval time.Duration) *stationRealtime {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &stationRealtime{
		db:           db,
		logger:       logger,
		interval:     interval,
		subs:         make(map[string]map[*wsRealtimeClient]struct{}),
		lastPayloads: make(map[string][]byte),
	}
}

func (sr *stationRealtime) ensureStarted() {
	sr.started.Do(func() {
		go sr.pollLoop(context.Background())
	})
}

func (sr *stationRealtime) subscribe(station string, client *wsRealtimeClient) (unsubscribe func()) {
	key := strings.ToUpper(strings.TrimSpace(station))
	if key == "" {
		return func() {}
	}

	sr.mu.Lock()
	if sr.subs[key] == nil {
		sr.subs[key] = make(map[*wsRealtimeClient]struct{})
	}
	sr.subs[key][client] = struct{}{}
	sr.mu.Unlock()

	return func() {
		sr.mu.Lock()
		clients := sr.subs[key]
		delete(clients, client)
		if len(clients) == 0 {
			delete(sr.subs, key)
			delete(sr.lastPayloads, key)
		}
		sr.mu.Unlock()
	}
}

func (sr *stationRealtime) broadcast(station string, message any) {
	sr.mu.RLock()
	clientsMap := sr.subs[station]
	clients := make([]*wsRealtimeClient, 0, len(clientsMap))
	for c := range clientsMap {
		clients = append(clients, c)
	}
	sr.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			sr.mu.Lock()
			if current := sr.subs[station]; current != nil {
				delete(current, c)
				if len(current) == 0 {
					delete(sr.subs, station)
					delete(sr.lastPayloads, station)
				}
			}
			sr.mu.Unlock()
		}
	}
}

func (sr *stationRealtime) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sr.mu.RLock()
		stations := make([]string, 0, len(sr.subs))
		for key := range sr.subs {
			stations = append(stations, key)
		}
		sr.mu.RUnlock()

		for _, station := range stations {
			items, err := handlers.FetchActiveStationComandas(ctx, sr.db, comanda.Station(station))
			if err != nil {
				if sr.logger != nil {
					sr.logger.Warn("station queue fetch failed", zap.String("station", station), zap.Error(err))
				}
				continue
			}

			payload, err := json.Marshal(items)
			if err != nil {
				continue
			}
			sr.mu.Lock()
			changed := !bytes.Equal(payload, sr.lastPayloads[station])
			if changed {
				sr.lastPayloads[station] = payload
			}
			sr.mu.Unlock()
			if !changed {
				continue
			}

			sr.broadcast(station, map[string]any{"type": "station.state", "data": items, "updatedAt": time.Now()})
		}
	}
}

// FloorWS streams the resolved floor map to authenticated staff.
func (s *Server) FloorWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if _, err := auth.VerifyAccessToken(token, s.Config.JWTSecret); err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	s.floorRealtime.ensureStarted()
	ctx := r.Context()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.floorRealtime.subscribe(client)
	defer unsubscribe()

	// Send initial snapshot immediately
	if tables, fetchErr := handlers.FetchFloorSnapshot(ctx, s.DB, time.Now()); fetchErr == nil {
		_ = client.writeJSON(map[string]any{"type": "floor.state", "data": tables, "updatedAt": time.Now()})
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	select {
	case <-clientClosed:
		return
	case <-ctx.Done():
		return
	}
}

// StationWS streams the active comanda queue for one station screen.
func (s *Server) StationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	claims, err := auth.VerifyAccessToken(token, s.Config.JWTSecret)
	if err != nil {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	station := comanda.Station(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("station"))))
	if station != comanda.StationKitchen && station != comanda.StationBar {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "invalid station"})
		return
	}

	// Kitchen staff may only watch the kitchen feed, bar staff the bar feed.
	switch claims.Role {
	case auth.RoleKitchen:
		if station != comanda.StationKitchen {
			_ = conn.WriteJSON(map[string]any{"type": "error", "message": "forbidden"})
			return
		}
	case auth.RoleBar:
		if station != comanda.StationBar {
			_ = conn.WriteJSON(map[string]any{"type": "error", "message": "forbidden"})
			return
		}
	}

	s.stationRealtime.ensureStarted()
	ctx := r.Context()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.stationRealtime.subscribe(string(station), client)
	defer unsubscribe()

	// Send initial queue snapshot immediately
	if items, fetchErr := handlers.FetchActiveStationComandas(ctx, s.DB, station); fetchErr == nil {
		_ = client.writeJSON(map[string]any{"type": "station.state", "data": items, "updatedAt": time.Now()})
	}

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	select {
	case <-clientClosed:
		return
	case <-ctx.Done():
		return
	}
}
