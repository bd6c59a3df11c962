package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	otelx "github.com/md-rashed-zaman/clinicslots/libs/otel"
	"github.com/md-rashed-zaman/clinicslots/libs/runtime"
	"github.com/md-rashed-zaman/clinicslots/migrations"
	"github.com/md-rashed-zaman/clinicslots/services/auth-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicslots/services/auth-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "auth-service")
	port, err := config.Port("PORT", "8081")
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

	secret, err := config.RequiredString("JWT_SECRET")
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
		if _, err := db.NewMigrator(pool, migrations.FS, "auth", logger).Up(ctx); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	admins := storage.NewAdminRepository(pool)
	if err := bootstrapAdmin(ctx, admins, logger); err != nil {
		logger.Error("admin bootstrap failed", "err", err)
		panic(err)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
	)
	handlers.NewAuthHandler(admins, secret, config.Duration("JWT_TTL", 8*time.Hour), logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(16<<10),
	)
	handler = otelhttp.NewHandler(handler, "auth")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}

// bootstrapAdmin creates ADMIN_EMAIL on first start. An existing admin keeps its password.
func bootstrapAdmin(ctx context.Context, admins *storage.AdminRepository, logger *slog.Logger) error {
	email := config.String("ADMIN_EMAIL", "")
	password := config.String("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD unset; no admin bootstrapped")
		return nil
	}
	hash, err := handlers.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := admins.Ensure(ctx, email, hash)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", "email", email)
	}
	return nil
}
