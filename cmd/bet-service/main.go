package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/bet-service/catalog"
	bhttp "github.com/numdraw/bet-platform/internal/bet-service/http"
	"github.com/numdraw/bet-platform/internal/bet-service/notify"
	kpub "github.com/numdraw/bet-platform/internal/bet-service/producer"
	"github.com/numdraw/bet-platform/internal/bet-service/repo"
	"github.com/numdraw/bet-platform/internal/bet-service/wallet"
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

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	repository := repo.NewPostgres(pg)
	cat := catalog.NewClient(rdb) // status/bounds mirror fed by market-service
	wcli := wallet.New(cfg.WalletURL)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicBetPlaced)
	notes := notify.NewReader(rdb)

	api := bhttp.NewServer(log, repository, cat, wcli, publ, notes)
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

	log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
