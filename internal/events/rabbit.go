// Package events publishes catalog and cart events to a RabbitMQ topic
// exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys.
const (
	CatalogLoaded      = "catalog.loaded"
	CatalogUnavailable = "catalog.unavailable"
)

type CatalogLoadedEvent struct {
	Books    int       `json:"books"`
	LoadedAt time.Time `json:"loaded_at"`
}

type CatalogUnavailableEvent struct {
	Reason string `json:"reason"`
}

// Publisher is safe to use as a nil pointer: with no broker configured every
// Publish is a no-op.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	appID    string
}

// Dial connects and declares a durable topic exchange. An empty url means
// events are disabled and returns (nil, nil).
func Dial(url, exchange, appID string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange, appID: appID}, nil
}

// Publish sends v as JSON under key. Each message gets a fresh MessageId.
func (p *Publisher) Publish(ctx context.Context, key string, v any) error {
	if p == nil || p.ch == nil {
		return nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        p.appID,
		Type:         key,
		Body:         body,
		Timestamp:    time.Now(),
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
