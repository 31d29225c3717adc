package handlers

import (
	"sapori-restaurant-service/internal/config"
	"sapori-restaurant-service/internal/queue"
	"sapori-restaurant-service/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
	Queue  *queue.Client
	Store  *storage.ObjectStore
}
