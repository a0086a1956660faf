package feed

import (
	"context"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

// Notifier announces that an order changed. It is called after commit.
type Notifier interface {
	Publish(ctx context.Context, orderID uuid.UUID) error
}

// LocalNotifier triggers an in-process feed directly.
type LocalNotifier struct {
	feed *Feed
}

func NewLocalNotifier(feed *Feed) *LocalNotifier {
	return &LocalNotifier{feed: feed}
}

func (n *LocalNotifier) Publish(context.Context, uuid.UUID) error {
	if n != nil && n.feed != nil {
		n.feed.Trigger()
	}
	return nil
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

type redisSubscriber interface {
	Subscribe(ctx context.Context, channel string) (*goredis.PubSub, error)
}

// RedisNotifier broadcasts change notifications to every process listening on
// the channel.
type RedisNotifier struct {
	client  redisPublisher
	channel string
}

func NewRedisNotifier(client redisPublisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Publish(ctx context.Context, orderID uuid.UUID) error {
	return n.client.Publish(ctx, n.channel, orderID.String())
}

// ListenRedis triggers feed on every message published to channel until ctx
// is done or the subscription closes.
func ListenRedis(ctx context.Context, client redisSubscriber, channel string, feed *Feed, logg *logger.Logger) error {
	ps, err := client.Subscribe(ctx, channel)
	if err != nil {
		return err
	}
	defer func() { _ = ps.Close() }()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if logg != nil {
				logg.Debug(logg.WithField(ctx, "order_id", msg.Payload), "order change notification received")
			}
			feed.Trigger()
		}
	}
}

// NopNotifier discards notifications; the resync ticker still refreshes subscribers.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, uuid.UUID) error { return nil }

// UsesRedis reports whether the configured backend fans out through Redis.
func UsesRedis(cfg config.FeedConfig) bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Backend), config.FeedBackendRedis)
}
