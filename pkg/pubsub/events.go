package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
)

// InviteIssuedEvent is the payload published when a member issues an
// invitation code. The inbox worker consumes it to deliver the code.
type InviteIssuedEvent struct {
	EventID        string    `json:"eventId"`
	Code           string    `json:"code"`
	CreatorEmail   string    `json:"creatorEmail"`
	RecipientEmail string    `json:"recipientEmail"`
	IssuedAt       time.Time `json:"issuedAt"`
}

// PublishInviteIssued publishes the event on the invite topic and waits for
// the server ack.
func (c *Client) PublishInviteIssued(ctx context.Context, event InviteIssuedEvent) error {
	publisher := c.InvitePublisher()
	if publisher == nil {
		return fmt.Errorf("invite topic not configured")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding invite event: %w", err)
	}
	result := publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": string(enums.EventInviteIssued),
			"event_id":   event.EventID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing invite event: %w", err)
	}
	return nil
}
