package main

import (
	"context"
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
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/confirm"
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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
		if _, err := db.NewMigrator(pool, migrations.FS, "notification", logger).Up(ctx); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}
	repo := storage.NewRepository(pool)

	emailSender := email.NewSMTPSender(email.SMTPConfig{
		Host:     config.String("SMTP_HOST", "mailpit"),
		Port:     config.String("SMTP_PORT", "1025"),
		From:     config.String("SMTP_FROM", "no-reply@clinicslots.local"),
		Username: config.String("SMTP_USERNAME", ""),
		Password: config.String("SMTP_PASSWORD", ""),
	})

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(sms.WebhookConfig{
			URL:         config.String("SMS_WEBHOOK_URL", ""),
			Token:       config.String("SMS_WEBHOOK_TOKEN", ""),
			SenderID:    config.String("SMS_SENDER_ID", ""),
			CountryCode: config.String("SMS_COUNTRY_CODE", "91"),
			Timeout:     config.Duration("SMS_TIMEOUT", 5*time.Second),
		})
	default:
		smsSender = sms.NewNoopSender()
	}

	brokers := config.String("KAFKA_BROKERS", "")
	processor := confirm.NewProcessor(emailSender, smsSender, repo, logger)
	if brokers == "" {
		logger.Warn("no kafka brokers configured; confirmations are not consumed")
	} else {
		consumer := kafkax.NewConsumer(logger, repo, kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   config.String("KAFKA_CONSUME_TOPIC", kafkax.TopicAppointmentBooked),
		}, processor.Handle)
		go consumer.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}
