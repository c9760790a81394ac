package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	scheduler "github.com/numdraw/bet-platform/internal/market-scheduler"
	"github.com/numdraw/bet-platform/internal/market-service/repo"
	"github.com/numdraw/bet-platform/internal/shared/config"
	"github.com/numdraw/bet-platform/internal/shared/db"
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

	swept := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scheduler_markets_swept_total", Help: "markets flipped by the sweep"}, []string{"action"})
	prometheus.MustRegister(swept)

	sweeper := &scheduler.Sweeper{
		Log:     log,
		Repo:    repo.NewPostgres(pg),
		Market:  scheduler.NewMarketClient(cfg.MarketURL),
		OnSwept: func(action string) { swept.WithLabelValues(action).Inc() },
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := cron.New()
	if _, err := c.AddFunc(cfg.SchedulerSpec, func() { sweeper.Sweep(ctx) }); err != nil {
		log.Fatal("cron spec", zap.String("spec", cfg.SchedulerSpec), zap.Error(err))
	}
	c.Start()

	// sweep once on boot so markets overdue during downtime are caught up
	sweeper.Sweep(ctx)

	log.Info("market-scheduler started", zap.String("spec", cfg.SchedulerSpec))
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("market-scheduler stopped")
}
