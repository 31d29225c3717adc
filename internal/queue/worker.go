package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxDeliveryAttempts = 3

// HandlerFunc processes one delivery. A non-nil error triggers a retry
// until maxDeliveryAttempts, after which the message is rejected into
// the queue's dead-letter exchange.
type HandlerFunc func(ctx context.Context, body []byte) error

// ConsumeWithRetry consumes queueName until ctx is cancelled. Each failed
// delivery is re-published with an incremented x-retry-count header.
func (c *Client) ConsumeWithRetry(ctx context.Context, queueName string, logger *zap.Logger, handler HandlerFunc) error {
	if err := c.ch.Qos(10, 0, false); err != nil {
		return err
	}
	deliveries, err := c.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			if err := handler(ctx, msg.Body); err != nil {
				attempts := getRetryCount(msg.Headers) + 1
				if attempts >= maxDeliveryAttempts {
					logger.Error("message exhausted retries, dead-lettering",
						zap.String("queue", queueName),
						zap.Int("attempts", attempts),
						zap.Error(err))
					_ = msg.Nack(false, false)
					continue
				}
				logger.Warn("message processing failed, retrying",
					zap.String("queue", queueName),
					zap.Int("attempt", attempts),
					zap.Error(err))
				headers := amqp.Table{}
				for k, v := range msg.Headers {
					headers[k] = v
				}
				headers["x-retry-count"] = int32(attempts)
				requeueErr := c.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
					ContentType: msg.ContentType,
					Body:        msg.Body,
					Headers:     headers,
					Timestamp:   time.Now(),
				})
				if requeueErr != nil {
					logger.Error("failed to requeue message", zap.Error(requeueErr))
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

func getRetryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
