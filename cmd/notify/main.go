package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lakayhq/lakay-bookings/internal/notify"
	"github.com/lakayhq/lakay-bookings/pkg/config"
	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	var mailer notify.Mailer
	if cfg.Email.DevMode {
		mailer = notify.DevMailer{}
		logger.Info("Notify worker using dev mailer")
	} else {
		m, err := notify.NewMailerSendMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
		if err != nil {
			logger.Error("Failed to configure mailer", "error", err)
			os.Exit(1)
		}
		mailer = m
	}

	consumer := notify.NewConsumer(eventBus, mailer)
	if err := consumer.Start(); err != nil {
		logger.Error("Failed to subscribe", "error", err)
		os.Exit(1)
	}

	logger.Info("Notify worker started")
	<-ctx.Done()
	logger.Info("Notify worker stopped")
}
