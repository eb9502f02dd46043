// Package consumer empties a customer's cart once their checkout completes.
// The order pipeline publishes completion events to Kafka; from the cart's
// point of view a completed checkout is an explicit clear.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/hanaflu/techzone/internal/notify"
	"github.com/hanaflu/techzone/internal/service"
)

type checkoutCompletedEvent struct {
	CheckoutID string `json:"checkout_id"`
	CustomerID string `json:"customer_id"`
}

type Consumer struct {
	service *service.CartService
	bus     *notify.Broadcaster
	reader  *kafka.Reader
}

func NewConsumer(service *service.CartService, bus *notify.Broadcaster, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "cart-backend",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{service: service, bus: bus, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading checkout event: %v", err)
		return
	}

	c.handle(ctx, m.Value)
}

// handle clears the customer's cart for one checkout-completed payload.
func (c *Consumer) handle(ctx context.Context, value []byte) {
	var event checkoutCompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("error parsing checkout event: %v", err)
		return
	}
	if event.CustomerID == "" {
		log.Printf("checkout event %s has no customer_id, skipping", event.CheckoutID)
		return
	}

	if err := c.service.ClearCart(ctx, event.CustomerID); err != nil {
		log.Printf("failed to clear cart for %s after checkout %s: %v", event.CustomerID, event.CheckoutID, err)
		return
	}
	c.bus.Broadcast()
}
