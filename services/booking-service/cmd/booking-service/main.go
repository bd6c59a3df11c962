package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicslots/libs/otel"
	"github.com/md-rashed-zaman/clinicslots/libs/runtime"
	"github.com/md-rashed-zaman/clinicslots/migrations"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/memstore"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/notify"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	fallback := directory.NewStatic(directory.DemoDoctors()...)
	dir, closeDir, err := directory.Dial(ctx, logger, config.String("DIRECTORY_GRPC_ADDR", ""),
		config.Duration("DIRECTORY_CACHE_TTL", time.Minute), fallback)
	if err != nil {
		logger.Error("directory init failed", "err", err)
		panic(err)
	}
	defer func() { _ = closeDir() }()

	var (
		windows  scheduling.WindowStore
		bookings scheduling.BookingStore
		notifier scheduling.Notifier
		checks   []runtime.ReadyCheck
	)
	switch mode := strings.ToLower(config.String("STORE", "postgres")); mode {
	case "memory":
		store := memstore.New()
		windows, bookings = store, store
		notifier = notify.NewLog(logger)
		logger.Warn("running with in-memory store; data is lost on restart")
	case "postgres":
		pool, err := openDatabase(ctx, logger)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		windows = storage.NewWindowRepository(pool)
		bookings = storage.NewBookingRepository(pool)
		outboxRepo := outbox.NewRepository(pool)
		notifier = notify.NewOutbox(outboxRepo)

		brokers := config.String("KAFKA_BROKERS", "")
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)

		checks = append(checks,
			runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
			runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
		)
	default:
		panic("STORE must be memory or postgres, got " + mode)
	}

	engine := scheduling.NewEngine(windows, bookings, dir, notifier, logger, scheduling.Config{
		Capacity:      config.Int("SLOT_CAPACITY", scheduling.DefaultCapacity),
		NotifyTimeout: config.Duration("NOTIFY_TIMEOUT", 10*time.Second),
	})
	defer engine.Drain()

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux, engine, logger)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 64<<10))),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}

func openDatabase(ctx context.Context, logger *slog.Logger) (*db.Pool, error) {
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(config.Int("DB_MAX_CONNS", 10))})
	if err != nil {
		return nil, err
	}
	if config.Bool("MIGRATE_ON_START", false) {
		n, err := db.NewMigrator(pool, migrations.FS, "booking", logger).Up(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("migrations complete", "applied", n)
	}
	return pool, nil
}
