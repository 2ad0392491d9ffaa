package messaging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type fakeMirror struct {
	upsertConversationCalls int
	createMessageCalls      int

	createMessageFn func(ctx context.Context, message *models.Message) error
	listMessagesFn  func(ctx context.Context, conversationID string) ([]models.Message, error)
}

func (f *fakeMirror) UpsertConversation(ctx context.Context, conversation *models.Conversation) error {
	f.upsertConversationCalls++
	return nil
}

func (f *fakeMirror) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return nil, nil
}

func (f *fakeMirror) ListConversations(ctx context.Context, email string) ([]models.Conversation, error) {
	return nil, errors.New("not wired in this fake")
}

func (f *fakeMirror) CreateMessage(ctx context.Context, message *models.Message) error {
	f.createMessageCalls++
	if f.createMessageFn != nil {
		return f.createMessageFn(ctx, message)
	}
	return nil
}

func (f *fakeMirror) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if f.listMessagesFn != nil {
		return f.listMessagesFn(ctx, conversationID)
	}
	return nil, nil
}

func (f *fakeMirror) MarkMessagesRead(ctx context.Context, conversationID, readerEmail string) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T, mirror Mirror) (Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{
		ServiceName: "messaging-test",
		Level:       zerolog.DebugLevel,
		Output:      &buf,
	})
	local, err := localstore.Open(context.Background(), config.LocalStoreConfig{Path: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	store, err := NewStore(local, mirror, nil, nil, logg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, &buf
}

func sendInput(sender, receiver, text string) SendInput {
	return SendInput{
		SenderEmail:   sender,
		SenderName:    "Sender",
		ReceiverEmail: receiver,
		ReceiverName:  "Receiver",
		Text:          text,
	}
}

func TestConversationIDCommutative(t *testing.T) {
	a := ConversationID("b@x.com", "a@x.com")
	b := ConversationID("a@x.com", "b@x.com")
	if a != b {
		t.Fatalf("conversation id not commutative: %q vs %q", a, b)
	}
	if a != "a@x.com_b@x.com" {
		t.Fatalf("unexpected id %q", a)
	}
	if again := ConversationID("b@x.com", "a@x.com"); again != a {
		t.Fatalf("conversation id unstable: %q vs %q", again, a)
	}
}

func TestSendCreatesConversationBookkeeping(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	outcome, err := svc.Send(ctx, sendInput("a@x.com", "b@x.com", "  hello  "))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if outcome.Local.Text != "hello" {
		t.Fatalf("expected trimmed text, got %q", outcome.Local.Text)
	}

	conversations, err := svc.ListConversations(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	conv := conversations[0]
	if conv.ID != ConversationID("a@x.com", "b@x.com") {
		t.Fatalf("unexpected conversation id %q", conv.ID)
	}
	if conv.UnreadCounts["b@x.com"] != 1 || conv.UnreadCounts["a@x.com"] != 0 {
		t.Fatalf("unexpected unread counts %+v", conv.UnreadCounts)
	}
	if conv.LastMessageText == nil || *conv.LastMessageText != "hello" {
		t.Fatalf("unexpected preview %+v", conv.LastMessageText)
	}
	if conv.ParticipantNames["a@x.com"] != "Sender" {
		t.Fatalf("participant names not recorded: %+v", conv.ParticipantNames)
	}
}

func TestSendIncrementsUnreadAcrossMessages(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.Send(ctx, sendInput("a@x.com", "b@x.com", text)); err != nil {
			t.Fatalf("send %q: %v", text, err)
		}
	}

	if got := svc.UnreadCount(ctx, "b@x.com"); got != 3 {
		t.Fatalf("expected 3 unread, got %d", got)
	}
	if got := svc.UnreadCount(ctx, "a@x.com"); got != 0 {
		t.Fatalf("expected 0 unread for sender, got %d", got)
	}
}

func TestMarkReadResetsCounterAndFlagsMessages(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Send(ctx, sendInput("a@x.com", "b@x.com", "hi")); err != nil {
		t.Fatalf("send: %v", err)
	}
	conversationID := ConversationID("a@x.com", "b@x.com")

	outcome, err := svc.MarkRead(ctx, conversationID, "b@x.com")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if outcome.Local != 1 {
		t.Fatalf("expected 1 flagged message, got %d", outcome.Local)
	}

	messages, err := svc.ListMessages(ctx, conversationID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 1 || !messages[0].Read {
		t.Fatalf("message not flagged read: %+v", messages)
	}
	if got := svc.UnreadCount(ctx, "b@x.com"); got != 0 {
		t.Fatalf("expected counter reset, got %d", got)
	}
}

func TestSendMirrorsMessageAndConversation(t *testing.T) {
	mirror := &fakeMirror{}
	svc, _ := newTestService(t, mirror)

	outcome, err := svc.Send(context.Background(), sendInput("a@x.com", "b@x.com", "hi"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !outcome.RemoteSynced {
		t.Fatalf("expected synced outcome %+v", outcome)
	}
	if mirror.createMessageCalls != 1 || mirror.upsertConversationCalls != 1 {
		t.Fatalf("expected 1 message + 1 conversation mirror write, got %d/%d",
			mirror.createMessageCalls, mirror.upsertConversationCalls)
	}
}

func TestSendToleratesMirrorFailureWithOneWarning(t *testing.T) {
	mirror := &fakeMirror{
		createMessageFn: func(ctx context.Context, message *models.Message) error {
			return errors.New("permission denied")
		},
	}
	svc, buf := newTestService(t, mirror)

	outcome, err := svc.Send(context.Background(), sendInput("a@x.com", "b@x.com", "hi"))
	if err != nil {
		t.Fatalf("send must not fail on mirror error: %v", err)
	}
	if outcome.RemoteSynced {
		t.Fatal("failed mirror reported synced")
	}
	if got := strings.Count(buf.String(), `"level":"warn"`); got != 1 {
		t.Fatalf("expected exactly 1 warning, got %d: %s", got, buf.String())
	}
}

func TestUnreadCountFailsSoft(t *testing.T) {
	svc := newTestServiceWithClosedStore(t)

	if got := svc.UnreadCount(context.Background(), "a@x.com"); got != 0 {
		t.Fatalf("expected fail-soft zero, got %d", got)
	}
}

func newTestServiceWithClosedStore(t *testing.T) Service {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{
		ServiceName: "messaging-test",
		Level:       zerolog.DebugLevel,
		Output:      &buf,
	})
	local, err := localstore.Open(context.Background(), config.LocalStoreConfig{Path: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	// Closing up front makes every local read fail; unread counts must
	// still report zero instead of erroring.
	_ = local.Close()

	store, err := NewStore(local, nil, nil, nil, logg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSubscribeMessagesLocalOnlyFiresOnce(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Send(ctx, sendInput("a@x.com", "b@x.com", "snapshot me")); err != nil {
		t.Fatalf("send: %v", err)
	}
	conversationID := ConversationID("a@x.com", "b@x.com")

	var deliveries [][]models.Message
	unsubscribe, err := svc.SubscribeMessages(ctx, conversationID, func(rows []models.Message) {
		deliveries = append(deliveries, rows)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if len(deliveries) != 1 {
		t.Fatalf("expected exactly one snapshot delivery, got %d", len(deliveries))
	}
	if len(deliveries[0]) != 1 || deliveries[0][0].Text != "snapshot me" {
		t.Fatalf("unexpected snapshot %+v", deliveries[0])
	}

	// Local-only unsubscribe is a no-op and must not panic.
	unsubscribe()
}
