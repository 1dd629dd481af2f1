package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keychain-connect/backend/internal/config"
	"github.com/keychain-connect/backend/internal/db"
	"github.com/keychain-connect/backend/internal/events"
	"github.com/keychain-connect/backend/internal/webhook"
	"go.uber.org/zap"
)

// Event webhook relays approval events from Redis to an HTTP endpoint.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.EventWebhookURL == "" {
		log.Fatal("EVENT_WEBHOOK_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	forwarder := webhook.NewForwarder(cfg.EventWebhookURL, cfg.EventWebhookSecret, cfg.EventWebhookTimeout, cfg.EventWebhookRPS, log)

	err = subscriber.Subscribe(ctx, events.ChannelApprovals, func(event events.Event) {
		if err := forwarder.Forward(ctx, event); err != nil {
			log.Warn("failed to forward event", zap.String("type", event.Type), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	log.Info("event-webhook started", zap.String("url", cfg.EventWebhookURL))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down event-webhook")
	cancel()
}
