package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/settlement/consumer"
	"github.com/numdraw/bet-platform/internal/settlement/notify"
	kpub "github.com/numdraw/bet-platform/internal/settlement/producer"
	"github.com/numdraw/bet-platform/internal/settlement/repo"
	"github.com/numdraw/bet-platform/internal/settlement/settler"
	"github.com/numdraw/bet-platform/internal/settlement/wallet"
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

	resultReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicResultDeclared, "settlement-worker")
	defer resultReader.Close()
	tossReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicTossResultDeclared, "settlement-worker")
	defer tossReader.Close()

	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicResultDeclaredDLQ)
	defer dlqWriter.Close()

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "result events consumed"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "bets settled by outcome"}, []string{"status"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "errors by stage"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, errorsBy)

	s := &settler.Settler{
		Log:       log,
		Repo:      repo.NewPostgres(pg),
		Wallet:    wallet.New(cfg.WalletURL),
		Notifier:  &notify.RedisNotifier{R: rdb},
		Publ:      kpub.NewKafkaPublisher(settledWriter),
		OnSettled: func(status string) { settled.WithLabelValues(status).Inc() },
	}

	resultLoop := &consumer.Loop{
		Log:        log,
		Reader:     resultReader,
		Settler:    s,
		DLQ:        dlqWriter,
		OnConsumed: func() { consumed.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	tossLoop := &consumer.Loop{
		Log:        log,
		Reader:     tossReader,
		Settler:    s,
		DLQ:        dlqWriter,
		Toss:       true,
		OnConsumed: func() { consumed.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := tossLoop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("toss loop stopped", zap.Error(err))
		}
	}()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicResultDeclared),
		zap.String("publish", cfg.TopicBetSettled),
	)
	if err := resultLoop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("consumer stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
