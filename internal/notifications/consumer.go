package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/chocandle/cho-candle-backend/pkg/db/models"
	"github.com/chocandle/cho-candle-backend/pkg/enums"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/idempotency"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/payloads"
	"github.com/chocandle/cho-candle-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns order status transitions into targeted notifications for the buyer.
type Consumer struct {
	repo         creator
	subscription receiver
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo creator, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	return newConsumer(repo, subscription, manager, logg)
}

func newConsumer(repo creator, subscription receiver, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderStatusChanged, outbox.CurrentEnvelopeVersion, registry.JSONDecoder[payloads.OrderStatusChangedEvent]())
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		decoders:     decoders,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderStatusChanged) {
		c.logg.Debug(logCtx, "skipping event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	decoded, err := c.decoders.Decode(enums.EventOrderStatusChanged, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	payload := decoded.(*payloads.OrderStatusChangedEvent)
	logCtx = c.logg.WithOrderID(logCtx, payload.OrderID.String())

	err = c.idempotency.Process(ctx, orderNotificationConsumer, eventID, func(ctx context.Context) error {
		return c.notifyOwner(ctx, *payload)
	})
	switch {
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	case err != nil:
		c.logg.Error(logCtx, "notification handling failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "buyer notified of order status")
	return processResult{ack: true}
}

func (c *Consumer) notifyOwner(ctx context.Context, payload payloads.OrderStatusChangedEvent) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("order owner missing")
	}
	title, body := orderMessage(payload)
	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	owner := payload.UserID
	return c.repo.Create(ctx, &models.Notification{
		Title:    title,
		Body:     body,
		Type:     enums.NotificationTypeOrder,
		IsGlobal: false,
		UserID:   &owner,
		Link:     &link,
	})
}

func orderMessage(payload payloads.OrderStatusChangedEvent) (string, string) {
	ref := shortOrderRef(payload.OrderID)
	switch payload.To {
	case enums.OrderStatusPreparing:
		return "Order confirmed", fmt.Sprintf("We're preparing order #%s.", ref)
	case enums.OrderStatusShipped:
		return "Order shipped", fmt.Sprintf("Order #%s is on its way.", ref)
	case enums.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Order #%s has been delivered. Let us know it arrived safely.", ref)
	case enums.OrderStatusCancelled:
		return "Order cancelled", fmt.Sprintf("Order #%s was cancelled.", ref)
	case enums.OrderStatusRefundRequested:
		return "Refund requested", fmt.Sprintf("We received your refund request for order #%s.", ref)
	case enums.OrderStatusLost:
		return "Order lost in transit", fmt.Sprintf("Order #%s was reported lost. Our team will contact you.", ref)
	default:
		return "Order updated", fmt.Sprintf("Order #%s is now %s.", ref, payload.To)
	}
}

func shortOrderRef(id uuid.UUID) string {
	return id.String()[:8]
}
