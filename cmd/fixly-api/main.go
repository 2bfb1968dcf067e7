// README: Entry point; loads config, wires the engine, starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixly/internal/chat"
	"fixly/internal/config"
	httptransport "fixly/internal/http"
	"fixly/internal/infra"
	"fixly/internal/modules/availability"
	"fixly/internal/modules/booking"
	"fixly/internal/notify"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db init", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.RedisAddr)

	var dispatcher notify.Dispatcher = notify.NewRedisDispatcher(redisClient)
	if cfg.AMQPURL != "" {
		ch, err := infra.NewAMQPChannel(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("amqp init", "error", err)
			os.Exit(1)
		}
		dispatcher = notify.NewAMQPDispatcher(ch, cfg.AMQPExchange)
	}

	store := booking.NewPostgresStore(dbPool)
	contacts := booking.NewPostgresContacts(dbPool)
	mailer := notify.NewResendMailer(cfg.MailAPIKey, cfg.MailFrom, logger)
	teardown := chat.NewTeardown(redisClient)

	availabilityStore := availability.NewStore(redisClient)
	availabilitySvc := availability.NewService(availabilityStore, cfg.OfferRadiusKm, logger)

	bookingSvc := booking.NewService(store, availabilitySvc, dispatcher, logger, cfg.OfferFanout)
	arbiter := booking.NewArbiter(store, dispatcher, logger)
	lifecycle := booking.NewLifecycle(store, dispatcher, teardown, logger, cfg.CancelLeadWindow)
	gate := booking.NewGate(store, mailer, contacts, dispatcher, logger, cfg.OTPTTL)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Bookings:     bookingSvc,
		Arbiter:      arbiter,
		Lifecycle:    lifecycle,
		Gate:         gate,
		Availability: availabilitySvc,
		Logger:       logger,
		JWTSecret:    cfg.JWTSecret,
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}
