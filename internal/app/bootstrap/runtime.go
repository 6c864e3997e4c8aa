package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/Samuel871933/buylav2-sub001/internal/adapters/cache"
	eventadapter "github.com/Samuel871933/buylav2-sub001/internal/adapters/events"
	grpcadapter "github.com/Samuel871933/buylav2-sub001/internal/adapters/grpc"
	httpadapter "github.com/Samuel871933/buylav2-sub001/internal/adapters/http"
	"github.com/Samuel871933/buylav2-sub001/internal/adapters/postgres"
	"github.com/Samuel871933/buylav2-sub001/internal/application"
	"github.com/Samuel871933/buylav2-sub001/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	tiers      *eventadapter.TierWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	attributionStore := cache.NewRedisAttributionStore(redisClient)

	domainPublisher := ports.DomainPublisher(eventadapter.NewLoggingPublisher(logger))
	opsPublisher := ports.OpsPublisher(eventadapter.NewLoggingPublisher(logger))
	dlqPublisher := ports.DLQPublisher(eventadapter.NewLoggingDLQPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	var closers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, topicMap(cfg), cfg.KafkaTopicDLQ)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			domainPublisher = kafkaPublisher
			opsPublisher = kafkaPublisher
			dlqPublisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{cfg.KafkaTopicOrderRecorded, cfg.KafkaTopicOrderSettled, cfg.KafkaTopicOrderRefunded, cfg.KafkaTopicPayoutCompleted},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:           cfg.ServiceID,
			DefaultCurrency:       cfg.DefaultCurrency,
			SponsorL1Rate:         cfg.SponsorL1Rate,
			SponsorL2Rate:         cfg.SponsorL2Rate,
			SponsorL1WindowMonths: cfg.SponsorL1WindowMonths,
			SponsorL2WindowMonths: cfg.SponsorL2WindowMonths,
			EventDedupTTL:         cfg.EventDedupTTL,
			OutboxFlushBatchSize:  cfg.OutboxBatchSize,
			ConsumerPollInterval:  cfg.ConsumerPollInterval,
		},
		Programs:     repos.Programs,
		Clicks:       repos.Clicks,
		Attribution:  attributionStore,
		Ambassadors:  repos.Ambassadors,
		Conversions:  repos.Conversions,
		Ledger:       repos.Ledger,
		EventDedup:   repos.EventDedup,
		Outbox:       repos.Outbox,
		DomainEvents: domainPublisher,
		Ops:          opsPublisher,
		DLQ:          dlqPublisher,
	})

	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(logger, handler, cfg.JWTSecret)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewAttributionInternalServer(service))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	outbox := eventadapter.NewOutboxWorker(logger, service, cfg.OutboxPollInterval)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, dlqPublisher, cfg.KafkaTopicDLQ, cfg.ConsumerPollInterval)
	tiers := eventadapter.NewTierWorker(logger, service, cfg.TierRecomputeEvery)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		consumer:   consumer,
		tiers:      tiers,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func topicMap(cfg Config) map[string]string {
	return map[string]string{
		"affiliate.click.tracked": cfg.KafkaTopicDomainEvents,
		"conversion.created":      cfg.KafkaTopicDomainEvents,
		"conversion.confirmed":    cfg.KafkaTopicDomainEvents,
		"conversion.paid":         cfg.KafkaTopicDomainEvents,
		"conversion.cancelled":    cfg.KafkaTopicDomainEvents,
		"cashback.earned":         cfg.KafkaTopicDomainEvents,
		"cashback.clawback":       cfg.KafkaTopicDomainEvents,
		"commission.config_alert": cfg.KafkaTopicOpsEvents,
	}
}

func Build(ctx context.Context, configPath string) (*Runtime, error) {
	return NewRuntime(ctx, configPath)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 3)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.tiers.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}
