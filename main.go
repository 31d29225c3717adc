package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sapori-restaurant-service/internal/config"
	"sapori-restaurant-service/internal/db"
	httpapi "sapori-restaurant-service/internal/http"
	"sapori-restaurant-service/internal/http/handlers"
	"sapori-restaurant-service/internal/logger"
	"sapori-restaurant-service/internal/queue"
	"sapori-restaurant-service/internal/storage"
	"sapori-restaurant-service/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; station tickets fall back to direct writes", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureStationTicketsTopology(ctx, qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; station tickets fall back to direct writes", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("station ticket consumer enabled", zap.String("queue", queue.StationTicketsQueue))
				go func() {
					err := queueClient.ConsumeWithRetry(ctx, queue.StationTicketsQueue, log, func(ctx context.Context, body []byte) error {
						return queue.ProcessEventToTickets(ctx, pool, body)
					})
					if err != nil && ctx.Err() == nil {
						log.Error("station ticket consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("station ticket consumer disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("station ticket broker disabled (RABBITMQ_URL is empty)")
	}

	var store *storage.ObjectStore
	if cfg.ObjectStoreEndpoint != "" {
		store, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
		})
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("object store init failed", zap.Error(err))
			}
			log.Warn("object store init failed; menu images disabled", zap.Error(err))
			store = nil
		}
	} else {
		log.Info("menu image storage disabled (OBJECT_STORE_ENDPOINT is empty)")
	}

	sweeper := &handlers.Handler{DB: pool, Logger: log, Config: cfg}
	if removed, err := sweeper.SweepOldComandas(ctx); err != nil {
		log.Warn("startup comanda sweep failed", zap.Error(err))
	} else if removed > 0 {
		log.Info("startup comanda sweep", zap.Int64("removed", removed))
	}

	wsServer := ws.New(pool, log, cfg)
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(pool, log, cfg, queueClient, store, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("restaurant api ready", zap.String("base", "/api"))
		log.Info("realtime feeds ready", zap.String("base", "/ws"))
		log.Info("restaurant service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
