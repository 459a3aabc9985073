package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/catalog"
	"github.com/vogiaan1904/ticketbottle-booking/internal/coupon"
	httpDelivery "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/http"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-booking/internal/provider"
	repo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	pkgKafka "github.com/vogiaan1904/ticketbottle-booking/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(redisCli)

	invRepo := repo.NewRedisInventoryRepository(redisCli, l)
	bkRepo := repo.NewRedisBookingRepository(redisCli, l)
	pmRepo := repo.NewRedisPaymentRepository(redisCli, l)

	// Kafka is optional in local setups; events are dropped when disabled.
	prod := producer.NewNopProducer(l)
	if cfg.Kafka.Enabled {
		kSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kSyncProd, l)
	}
	defer prod.Close()

	ctlg := catalog.NewHTTPCatalog(cfg.Catalog, l)

	prov, err := provider.New(cfg.Payment, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize payment provider: %v", err)
	}

	coupons := coupon.ParseTable(cfg.Payment.CouponTable)

	invSvc := service.NewInventoryService(invRepo, ctlg, l)
	bkSvc := service.NewBookingService(bkRepo, invSvc, prod, l, cfg.Booking)
	pmSvc := service.NewPaymentService(pmRepo, bkSvc, ctlg, prov, prod, coupons, l, cfg.Payment)

	sweeper := service.NewHoldSweeper(bkRepo, bkSvc, l, cfg.Booking)
	if err := sweeper.Start(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start hold sweeper: %v", err)
	}

	if cfg.Kafka.Enabled {
		kConsGrCli, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			ClientID: cfg.Kafka.ClientID,
			GroupID:  cfg.Kafka.ConsumerGroupID,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}

		cons := consumer.NewConsumer(kConsGrCli, pmSvc, l)
		if err := cons.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
		defer cons.Close()
	}

	handler := httpDelivery.NewHTTPHandler(bkSvc, pmSvc, invSvc, sweeper, l)
	router := httpDelivery.NewRouter(handler, cfg.JWT, l)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
		case <-gCtx.Done():
			return gCtx.Err()
		}

		l.Info(ctx, "Server shutting down...")

		if err := sweeper.Stop(); err != nil {
			l.Errorf(ctx, "Failed to stop hold sweeper: %v", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Errorf(ctx, "HTTP server shutdown: %v", err)
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		l.Errorf(ctx, "Server error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
