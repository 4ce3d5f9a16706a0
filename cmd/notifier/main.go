package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/example/pos-notifier/internal/api"
	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/common"
	"github.com/example/pos-notifier/internal/dispatch"
	"github.com/example/pos-notifier/internal/email"
	"github.com/example/pos-notifier/internal/events"
	"github.com/example/pos-notifier/internal/notify"
	"github.com/example/pos-notifier/internal/record"
	"github.com/example/pos-notifier/internal/render"
	"github.com/example/pos-notifier/internal/sms"
	"github.com/example/pos-notifier/internal/vocabulary"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := common.LoadConfig("notifier")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := common.NewLogger(cfg.ServiceName, cfg.LogLevel)
	shutdown, err := common.SetupOTel(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise telemetry")
	}
	defer common.ShutdownTelemetry(context.Background(), shutdown)

	metricsSrv := common.StartMetricsServer(cfg.MetricsPort, logger)
	defer metricsSrv.Shutdown(context.Background())

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL must be provided")
	}
	pool, err := connectPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	records, err := record.MustStore(pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("record store")
	}

	var directory business.Directory = business.NewPostgresDirectory(pool)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		directory = business.NewCachedDirectory(directory, rdb, cfg.BusinessCacheTTL, common.Component(logger, "business-cache"))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Topic:    cfg.OutcomeTopic,
			Balancer: &kafka.Hash{},
		}
		defer writer.Close()
		publisher = events.NewKafkaPublisher(writer)
	}

	serviceMailbox := business.EmailSettings{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPass,
		FromAddress: cfg.SMTPFrom,
	}
	mailer := email.NewSender(cfg.DefaultMailDriver, serviceMailbox, common.Component(logger, "email"),
		&email.SMTPProvider{Fallback: serviceMailbox},
		&email.SESProvider{Endpoint: cfg.SESEndpoint, APIKey: cfg.SESAPIKey},
		&email.SendGridProvider{Endpoint: cfg.SendGridEndpoint, APIKey: cfg.SendGridAPIKey},
	)

	svc := notify.NewService(
		vocabulary.Default(),
		render.NewResolver(records, directory, cfg.AssetBaseURL),
		dispatch.NewRouter(mailer, &sms.Gateway{}, logger),
		notify.NewPostgresTemplateStore(pool),
		publisher,
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           api.NewHandler(svc, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("notifier listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// connectPostgres retries the initial ping so the service can start before
// the database is ready.
func connectPostgres(ctx context.Context, url string, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	op := backoff.NewExponentialBackOff()
	op.MaxElapsedTime = 30 * time.Second
	err = backoff.RetryNotify(func() error {
		return pool.Ping(ctx)
	}, backoff.WithContext(op, ctx), func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("postgres not ready")
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
