package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicslots/libs/otel"
	"github.com/md-rashed-zaman/clinicslots/libs/runtime"
	"github.com/md-rashed-zaman/clinicslots/migrations"
	"github.com/md-rashed-zaman/clinicslots/services/analytics-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicslots/services/analytics-service/internal/reports"
	"github.com/md-rashed-zaman/clinicslots/services/analytics-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "analytics-service")
	port, err := config.Port("PORT", "8086")
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

	loc, err := config.Location("CLINIC_TZ", "UTC")
	if err != nil {
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()
	if config.Bool("MIGRATE_ON_START", false) {
		if _, err := db.NewMigrator(pool, migrations.FS, "analytics", logger).Up(ctx); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}
	repo := storage.NewRepository(pool)

	brokers := config.String("KAFKA_BROKERS", "")
	if brokers == "" {
		logger.Warn("no kafka brokers configured; booked events are not consumed")
	} else {
		// Repository.Count dedupes by event id.
		consumer := kafkax.NewConsumer(logger, nil, kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "analytics-service"),
			Topic:   kafkax.TopicAppointmentBooked,
		}, reports.BookedHandler(repo, logger))
		go consumer.Run(ctx)
	}

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux, reports.NewService(repo, loc), logger)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "analytics")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}
