package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	mcache "github.com/numdraw/bet-platform/internal/market-service/cache"
	mhttp "github.com/numdraw/bet-platform/internal/market-service/http"
	kpub "github.com/numdraw/bet-platform/internal/market-service/producer"
	"github.com/numdraw/bet-platform/internal/market-service/pubsub"
	"github.com/numdraw/bet-platform/internal/market-service/repo"
	"github.com/numdraw/bet-platform/internal/market-service/ws"
	"github.com/numdraw/bet-platform/internal/shared/cache"
	"github.com/numdraw/bet-platform/internal/shared/config"
	"github.com/numdraw/bet-platform/internal/shared/db"
	"github.com/numdraw/bet-platform/internal/shared/kafka"
	"github.com/numdraw/bet-platform/internal/shared/logger"
	"github.com/numdraw/bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	resultWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicResultDeclared)
	defer resultWriter.Close()
	tossWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTossResultDeclared)
	defer tossWriter.Close()

	store := repo.NewPostgres(pg)
	statusCache := mcache.New(rdb)
	publ := kpub.NewKafkaPublisher(resultWriter, tossWriter)
	bcast := pubsub.NewRedisBroadcaster(rdb)

	// WebSocket fan-out: hub + Redis Pub/Sub bridge so updates reach clients
	// connected to any instance
	hub := ws.NewHub(func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(context.Background(), rdb, hub)

	api := mhttp.NewServer(log, store, statusCache, publ, bcast, hub.HandleWS)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	log.Info("market-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
