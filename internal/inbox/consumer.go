package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/pubsub"
	"github.com/mentorhub/mentorhub-backend/pkg/redis"
)

const inviteConsumerScope = "inbox-invites"

type deliverer interface {
	Deliver(ctx context.Context, item models.InboxItem) (syncpkg.Outcome[models.InboxItem], error)
}

// Consumer turns invite lifecycle events into inbox items.
type Consumer struct {
	store        deliverer
	subscription *gcppubsub.Subscriber
	idempotency  redis.IdempotencyStore
	ttl          time.Duration
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer builds the invite inbox consumer.
func NewConsumer(store deliverer, subscription *gcppubsub.Subscriber, idempotency redis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) (*Consumer, error) {
	if store == nil {
		return nil, fmt.Errorf("inbox store required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("invite subscription required")
	}
	if idempotency == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		store:        store,
		subscription: subscription,
		idempotency:  idempotency,
		ttl:          ttl,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
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

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventInviteIssued) {
		c.logg.Info(logCtx, "skipping non-invite event")
		return processResult{ack: true}
	}

	var event pubsub.InviteIssuedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode invite event", err)
		return processResult{ack: true}
	}
	if event.EventID == "" || event.Code == "" {
		c.logg.Error(logCtx, "invite event missing required fields", fmt.Errorf("eventId=%q code present=%t", event.EventID, event.Code != ""))
		return processResult{ack: true}
	}

	key := c.idempotency.IdempotencyKey(inviteConsumerScope, event.EventID)
	fresh, err := c.idempotency.SetNX(ctx, key, c.now().UTC().Format(time.RFC3339), c.ttl)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.deliver(ctx, event); err != nil {
		c.logg.Error(logCtx, "inbox delivery failed", err)
		// Release the marker so a redelivery can retry.
		_ = c.idempotency.Del(ctx, key)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) deliver(ctx context.Context, event pubsub.InviteIssuedEvent) error {
	recipient := event.RecipientEmail
	title := "You have been invited"
	message := fmt.Sprintf("%s sent you an invitation code.", event.CreatorEmail)
	if recipient == "" {
		// Self-issued codes land in the issuer's own inbox as a record.
		recipient = event.CreatorEmail
		title = "Invitation code issued"
		message = "Your invitation code is ready to share."
	}

	code := event.Code
	item := models.InboxItem{
		ID:             event.EventID,
		RecipientEmail: recipient,
		Type:           enums.InboxItemTypeInvitationCode,
		Title:          title,
		Message:        message,
		InvitationCode: &code,
		Read:           false,
		CreatedAt:      c.now().UTC(),
	}
	_, err := c.store.Deliver(ctx, item)
	return err
}
