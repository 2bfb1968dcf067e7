// README: Redis pub/sub dispatcher; one pub/sub channel per notification channel.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

type RedisDispatcher struct {
	client *redis.Client
}

func NewRedisDispatcher(client *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{client: client}
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (d *RedisDispatcher) Publish(ctx context.Context, channel, event string, payload any) error {
	msg, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return d.client.Publish(ctx, channel, msg).Err()
}
