package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/config"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
	"github.com/oksasatya/galactic-postbox/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify-worker", cfg.Env)

	if !cfg.NotifyEnabled {
		logger.Info("NOTIFY_ENABLED=false; notify worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQNotifyQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	log := logger.WithField("queue", cfg.RabbitMQNotifyQueue)

	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.WithError(err).Warnf("dial failed; retrying in %s", backoff)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		log.Info("notify worker listening")
		if err := consume(ctx, conn, cfg.RabbitMQNotifyQueue, mg, logger); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("consume loop ended; reconnecting")
		}
		_ = conn.Close()
	}
	logger.Info("notify worker stopped")
}

func consume(ctx context.Context, conn *amqp.Connection, queue string, sender mailer.Sender, logger *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	if err := helpers.DeclareQueue(ch, queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			err := mailer.Handle(ctx, sender, d.Body)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, mailer.ErrMalformedJob):
				logger.WithError(err).Warn("dropping notification")
				_ = d.Nack(false, false)
			default:
				logger.WithError(err).Error("notification send failed; requeueing")
				_ = d.Nack(false, true)
			}
		}
	}
}
