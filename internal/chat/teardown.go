// README: Best-effort teardown of the booking-scoped real-time chat session.
package chat

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fixly/internal/types"
)

// Teardown removes the chat session keys tied to a booking. DEL on missing
// keys is a no-op, so repeated calls are idempotent.
type Teardown struct {
	client *redis.Client
}

func NewTeardown(client *redis.Client) *Teardown {
	return &Teardown{client: client}
}

func (t *Teardown) EndSessionFor(ctx context.Context, bookingID types.ID) error {
	keys := []string{
		fmt.Sprintf("chat:booking:%s:session", bookingID),
		fmt.Sprintf("chat:booking:%s:members", bookingID),
		fmt.Sprintf("chat:booking:%s:messages", bookingID),
	}
	return t.client.Del(ctx, keys...).Err()
}
