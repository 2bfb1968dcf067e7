// README: RabbitMQ dispatcher; events published to a topic exchange with the
// event name as routing key and the target channel in the envelope.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type AMQPDispatcher struct {
	ch       *amqp.Channel
	exchange string
}

func NewAMQPDispatcher(ch *amqp.Channel, exchange string) *AMQPDispatcher {
	return &AMQPDispatcher{ch: ch, exchange: exchange}
}

type amqpEnvelope struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Data    any    `json:"data"`
}

func (d *AMQPDispatcher) Publish(ctx context.Context, channel, event string, payload any) error {
	body, err := json.Marshal(amqpEnvelope{Channel: channel, Event: event, Data: payload})
	if err != nil {
		return err
	}
	err = d.ch.PublishWithContext(ctx, d.exchange, event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}
