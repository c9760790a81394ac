package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/shared/config"
	"github.com/numdraw/bet-platform/internal/shared/db"
	"github.com/numdraw/bet-platform/internal/shared/logger"
	"github.com/numdraw/bet-platform/internal/shared/metrics"
	whttp "github.com/numdraw/bet-platform/internal/wallet-service/http"
	"github.com/numdraw/bet-platform/internal/wallet-service/repo"
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

	api := whttp.NewServer(log, repo.NewPostgres(pg))
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	})

	log.Info("wallet-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
