package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/models"
)

// RedisPublisher publishes consent changes to a Redis pub/sub channel for
// downstream consumers (analytics hooks, cache invalidation). Publishing is
// best-effort like every other listener.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher from the notifier configuration.
// Returns nil without error when no Redis URL is configured.
func NewRedisPublisher(cfg config.NotifierConfig, logger *logrus.Logger) (*RedisPublisher, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.WithField("channel", cfg.Channel).Info("Consent change notifier connected to Redis")

	return &RedisPublisher{
		client:  client,
		channel: cfg.Channel,
	}, nil
}

// notificationPayload is the message shape published on the channel.
type notificationPayload struct {
	Event EventName                  `json:"event"`
	Old   *models.ConsentPreferences `json:"old"`
	New   *models.ConsentPreferences `json:"new"`
}

// OnConsentChanged implements the Listener interface
func (p *RedisPublisher) OnConsentChanged(ctx context.Context, event ConsentChangedEvent) error {
	payload, err := json.Marshal(notificationPayload{
		Event: event.Name,
		Old:   event.Old,
		New:   event.New,
	})
	if err != nil {
		return fmt.Errorf("marshal consent notification: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish consent notification: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
