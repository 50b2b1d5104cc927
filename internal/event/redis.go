package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

type redisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher fans events out through a redis channel so every API
// instance relays them to its own clients. Run Relay on each instance.
func NewRedisPublisher(client *redis.Client, channel string) Publisher {
	return &redisPublisher{client: client, channel: channel}
}

func (p *redisPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Event, err)
	}
	return nil
}

// Relay subscribes to channel and delivers every event to sink until ctx is
// done.
func Relay(ctx context.Context, client *redis.Client, channel string, sink Sink) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	log.WithField("channel", channel).Info("event relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
				log.WithError(err).Warn("dropping malformed event")
				continue
			}
			if err := deliver(sink, e); err != nil {
				log.WithError(err).Warn("event delivery failed")
			}
		}
	}
}
