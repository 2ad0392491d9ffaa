package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/pubsub"
	"github.com/rs/zerolog"
)

type fakeDeliverer struct {
	delivered []models.InboxItem
	deliverFn func(ctx context.Context, item models.InboxItem) (syncpkg.Outcome[models.InboxItem], error)
}

func (f *fakeDeliverer) Deliver(ctx context.Context, item models.InboxItem) (syncpkg.Outcome[models.InboxItem], error) {
	f.delivered = append(f.delivered, item)
	if f.deliverFn != nil {
		return f.deliverFn(ctx, item)
	}
	return syncpkg.LocalOnly(item), nil
}

type fakeIdempotency struct {
	seen     map[string]bool
	deleted  []string
	setNXErr error
}

func (f *fakeIdempotency) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (f *fakeIdempotency) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotency) IdempotencyKey(scope, id string) string {
	return "mh:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotency) Del(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	for _, key := range keys {
		delete(f.seen, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, store deliverer, idem *fakeIdempotency) *Consumer {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{
		ServiceName: "inbox-worker-test",
		Level:       zerolog.DebugLevel,
		Output:      &buf,
	})
	return &Consumer{
		store:       store,
		idempotency: idem,
		ttl:         time.Hour,
		logg:        logg,
		now:         func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func inviteMessage(t *testing.T, event pubsub.InviteIssuedEvent) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &gcppubsub.Message{
		ID:   "msg-1",
		Data: data,
		Attributes: map[string]string{
			"event_type": string(enums.EventInviteIssued),
			"event_id":   event.EventID,
		},
	}
}

func TestProcessDeliversInvitationItem(t *testing.T) {
	store := &fakeDeliverer{}
	consumer := newTestConsumer(t, store, &fakeIdempotency{})

	event := pubsub.InviteIssuedEvent{
		EventID:        "evt-1",
		Code:           "ABCDEFGH",
		CreatorEmail:   "issuer@x.com",
		RecipientEmail: "friend@x.com",
	}
	result := consumer.process(context.Background(), inviteMessage(t, event))
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(store.delivered) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(store.delivered))
	}
	item := store.delivered[0]
	if item.RecipientEmail != "friend@x.com" || item.Type != enums.InboxItemTypeInvitationCode {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.InvitationCode == nil || *item.InvitationCode != "ABCDEFGH" {
		t.Fatalf("code payload missing: %v", item.InvitationCode)
	}
}

func TestProcessSelfIssuedLandsInIssuerInbox(t *testing.T) {
	store := &fakeDeliverer{}
	consumer := newTestConsumer(t, store, &fakeIdempotency{})

	event := pubsub.InviteIssuedEvent{
		EventID:      "evt-2",
		Code:         "ABCDEFGH",
		CreatorEmail: "issuer@x.com",
	}
	result := consumer.process(context.Background(), inviteMessage(t, event))
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if store.delivered[0].RecipientEmail != "issuer@x.com" {
		t.Fatalf("expected issuer inbox, got %s", store.delivered[0].RecipientEmail)
	}
}

func TestProcessIsIdempotentPerEvent(t *testing.T) {
	store := &fakeDeliverer{}
	consumer := newTestConsumer(t, store, &fakeIdempotency{})

	event := pubsub.InviteIssuedEvent{
		EventID:        "evt-3",
		Code:           "ABCDEFGH",
		CreatorEmail:   "issuer@x.com",
		RecipientEmail: "friend@x.com",
	}
	msg := inviteMessage(t, event)
	for i := 0; i < 3; i++ {
		if result := consumer.process(context.Background(), msg); !result.ack {
			t.Fatalf("expected ack on attempt %d", i)
		}
	}
	if len(store.delivered) != 1 {
		t.Fatalf("expected a single delivery across redeliveries, got %d", len(store.delivered))
	}
}

func TestProcessSkipsForeignEvents(t *testing.T) {
	store := &fakeDeliverer{}
	consumer := newTestConsumer(t, store, &fakeIdempotency{})

	msg := &gcppubsub.Message{
		ID:         "msg-9",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": "something_else"},
	}
	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for foreign event, got %+v", result)
	}
	if len(store.delivered) != 0 {
		t.Fatal("foreign events must not deliver")
	}
}

func TestProcessNacksOnIdempotencyFailure(t *testing.T) {
	store := &fakeDeliverer{}
	consumer := newTestConsumer(t, store, &fakeIdempotency{setNXErr: errors.New("redis down")})

	event := pubsub.InviteIssuedEvent{EventID: "evt-4", Code: "ABCDEFGH", CreatorEmail: "issuer@x.com"}
	result := consumer.process(context.Background(), inviteMessage(t, event))
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}
}

func TestProcessReleasesMarkerOnDeliveryFailure(t *testing.T) {
	store := &fakeDeliverer{
		deliverFn: func(ctx context.Context, item models.InboxItem) (syncpkg.Outcome[models.InboxItem], error) {
			return syncpkg.Outcome[models.InboxItem]{}, errors.New("local store closed")
		},
	}
	idem := &fakeIdempotency{}
	consumer := newTestConsumer(t, store, idem)

	event := pubsub.InviteIssuedEvent{EventID: "evt-5", Code: "ABCDEFGH", CreatorEmail: "issuer@x.com"}
	result := consumer.process(context.Background(), inviteMessage(t, event))
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}
	if len(idem.deleted) != 1 {
		t.Fatalf("expected the idempotency marker to be released, got %v", idem.deleted)
	}
}
