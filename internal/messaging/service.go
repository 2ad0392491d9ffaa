package messaging

import (
	"context"
	"strings"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	dbtypes "github.com/mentorhub/mentorhub-backend/pkg/db/types"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service defines messaging operations.
type Service interface {
	Send(ctx context.Context, input SendInput) (syncpkg.Outcome[models.Message], error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	ListConversations(ctx context.Context, email string) ([]models.Conversation, error)
	MarkRead(ctx context.Context, conversationID, readerEmail string) (syncpkg.Outcome[int64], error)
	UnreadCount(ctx context.Context, email string) int64
	SubscribeMessages(ctx context.Context, conversationID string, fn func([]models.Message)) (func(), error)
}

// SendInput carries one outgoing chat message.
type SendInput struct {
	SenderEmail   string `json:"senderEmail" validate:"required,email"`
	SenderName    string `json:"senderName" validate:"required"`
	ReceiverEmail string `json:"receiverEmail" validate:"required,email"`
	ReceiverName  string `json:"receiverName" validate:"required"`
	Text          string `json:"text" validate:"required"`
}

type service struct {
	store *Store
	now   func() time.Time
}

// NewService wires messaging dependencies.
func NewService(store *Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messaging store required")
	}
	return &service{store: store, now: time.Now}, nil
}

// Send creates the message and its conversation bookkeeping: participant
// names, last-message preview, and the receiver's unread counter.
func (s *service) Send(ctx context.Context, input SendInput) (syncpkg.Outcome[models.Message], error) {
	var zero syncpkg.Outcome[models.Message]
	if input.SenderEmail == "" || input.ReceiverEmail == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "sender and receiver emails required")
	}
	if input.SenderEmail == input.ReceiverEmail {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "message text required")
	}

	conversationID := ConversationID(input.SenderEmail, input.ReceiverEmail)
	now := s.now().UTC()

	message := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderEmail:    input.SenderEmail,
		SenderName:     input.SenderName,
		ReceiverEmail:  input.ReceiverEmail,
		ReceiverName:   input.ReceiverName,
		Text:           text,
		CreatedAt:      now,
	}

	conversation, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return zero, err
	}
	if conversation == nil {
		conversation = &models.Conversation{
			ID:               conversationID,
			Participants:     dbtypes.StringArray{input.SenderEmail, input.ReceiverEmail},
			ParticipantNames: dbtypes.StringMap{},
			UnreadCounts:     dbtypes.IntMap{},
			CreatedAt:        now,
		}
	}
	if conversation.ParticipantNames == nil {
		conversation.ParticipantNames = dbtypes.StringMap{}
	}
	if conversation.UnreadCounts == nil {
		conversation.UnreadCounts = dbtypes.IntMap{}
	}
	conversation.ParticipantNames[input.SenderEmail] = input.SenderName
	conversation.ParticipantNames[input.ReceiverEmail] = input.ReceiverName
	conversation.UnreadCounts[input.ReceiverEmail]++
	conversation.LastMessageText = &text
	conversation.LastMessageAt = &now
	conversation.UpdatedAt = now

	return s.store.Append(ctx, message, *conversation)
}

func (s *service) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if conversationID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id required")
	}
	return s.store.ListMessages(ctx, conversationID)
}

func (s *service) ListConversations(ctx context.Context, email string) ([]models.Conversation, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.ListConversations(ctx, email)
}

func (s *service) MarkRead(ctx context.Context, conversationID, readerEmail string) (syncpkg.Outcome[int64], error) {
	if conversationID == "" || readerEmail == "" {
		return syncpkg.Outcome[int64]{}, pkgerrors.New(pkgerrors.CodeValidation, "conversation id and reader email required")
	}
	return s.store.MarkRead(ctx, conversationID, readerEmail)
}

func (s *service) UnreadCount(ctx context.Context, email string) int64 {
	return s.store.UnreadCount(ctx, email)
}

func (s *service) SubscribeMessages(ctx context.Context, conversationID string, fn func([]models.Message)) (func(), error) {
	if conversationID == "" || fn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id and callback required")
	}
	return s.store.SubscribeMessages(ctx, conversationID, fn)
}
