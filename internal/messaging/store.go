package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	dbtypes "github.com/mentorhub/mentorhub-backend/pkg/db/types"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
)

const (
	messagesCollection      = "messages"
	conversationsCollection = "conversations"
)

// Mirror is the remote side of the messaging dual-write. Nil means local-only.
type Mirror interface {
	UpsertConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, email string) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerEmail string) (int64, error)
}

// ChangeFeed carries collection change notifications between processes.
type ChangeFeed interface {
	PublishChange(ctx context.Context, collection string) error
	WatchChanges(ctx context.Context, collection string) (<-chan struct{}, func() error, error)
}

// Store is the dual-write accessor for messages and conversations.
type Store struct {
	local  *localstore.Store
	mirror Mirror
	feed   ChangeFeed
	sync   *metrics.SyncMetrics
	logg   *logger.Logger
}

// NewStore wires the messaging store. mirror and feed may be nil.
func NewStore(local *localstore.Store, mirror Mirror, feed ChangeFeed, syncMetrics *metrics.SyncMetrics, logg *logger.Logger) (*Store, error) {
	if local == nil {
		return nil, fmt.Errorf("local store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{
		local:  local,
		mirror: mirror,
		feed:   feed,
		sync:   syncMetrics,
		logg:   logg,
	}, nil
}

// Append writes the message and its updated conversation locally, then
// mirrors both in one best-effort attempt.
func (s *Store) Append(ctx context.Context, message models.Message, conversation models.Conversation) (syncpkg.Outcome[models.Message], error) {
	ctx = s.logg.WithConversationID(ctx, message.ConversationID)

	allMessages, err := s.localMessages(ctx)
	if err != nil {
		return syncpkg.Outcome[models.Message]{}, err
	}
	allMessages = append(allMessages, message)
	if err := s.writeMessages(ctx, allMessages); err != nil {
		return syncpkg.Outcome[models.Message]{}, err
	}

	allConversations, err := s.localConversations(ctx)
	if err != nil {
		return syncpkg.Outcome[models.Message]{}, err
	}
	allConversations = replaceConversation(allConversations, conversation)
	if err := s.writeConversations(ctx, allConversations); err != nil {
		return syncpkg.Outcome[models.Message]{}, err
	}
	s.announce(ctx, messagesCollection)
	s.announce(ctx, conversationsCollection)

	if s.mirror == nil {
		return syncpkg.LocalOnly(message), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		c := conversation
		if err := s.mirror.UpsertConversation(ctx, &c); err != nil {
			return err
		}
		m := message
		return s.mirror.CreateMessage(ctx, &m)
	})
	s.sync.ObserveMirrorDuration(messagesCollection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(messagesCollection)
		s.warnRemote(ctx, "message mirror write failed", remoteErr)
		return syncpkg.Unsynced(message, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(messagesCollection)
	return syncpkg.Synced(message), nil
}

// ListMessages returns the conversation's messages, remote-first.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	ctx = s.logg.WithConversationID(ctx, conversationID)

	if s.mirror != nil {
		var remote []models.Message
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.ListMessages(ctx, conversationID)
			remote = rows
			return err
		})
		if remoteErr == nil {
			if err := s.refreshMessages(ctx, conversationID, remote); err != nil {
				return nil, err
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(messagesCollection)
		s.warnRemote(ctx, "message mirror list failed, serving local", remoteErr)
	}

	all, err := s.localMessages(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Message
	for _, m := range all {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListConversations returns the conversations the user participates in,
// remote-first. The local fallback replaces array-contains with a slice scan.
func (s *Store) ListConversations(ctx context.Context, email string) ([]models.Conversation, error) {
	if s.mirror != nil {
		var remote []models.Conversation
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.ListConversations(ctx, email)
			remote = rows
			return err
		})
		if remoteErr == nil {
			if err := s.refreshConversations(ctx, email, remote); err != nil {
				return nil, err
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(conversationsCollection)
		s.warnRemote(ctx, "conversation mirror list failed, serving local", remoteErr)
	}

	all, err := s.localConversations(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Conversation
	for _, c := range all {
		if slices.Contains(c.Participants, email) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetConversation resolves a conversation by id from the local collection.
// Writes go through Append/SaveConversation, so the local copy is current.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	all, err := s.localConversations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// MarkRead flags the reader's received messages and resets their unread
// counter, locally first with a best-effort mirror.
func (s *Store) MarkRead(ctx context.Context, conversationID, readerEmail string) (syncpkg.Outcome[int64], error) {
	ctx = s.logg.WithConversationID(ctx, conversationID)

	allMessages, err := s.localMessages(ctx)
	if err != nil {
		return syncpkg.Outcome[int64]{}, err
	}
	var flagged int64
	for i := range allMessages {
		m := &allMessages[i]
		if m.ConversationID == conversationID && m.ReceiverEmail == readerEmail && !m.Read {
			m.Read = true
			flagged++
		}
	}
	if err := s.writeMessages(ctx, allMessages); err != nil {
		return syncpkg.Outcome[int64]{}, err
	}

	allConversations, err := s.localConversations(ctx)
	if err != nil {
		return syncpkg.Outcome[int64]{}, err
	}
	var patched *models.Conversation
	for i := range allConversations {
		if allConversations[i].ID == conversationID {
			if allConversations[i].UnreadCounts == nil {
				allConversations[i].UnreadCounts = dbtypes.IntMap{}
			}
			allConversations[i].UnreadCounts[readerEmail] = 0
			patched = &allConversations[i]
		}
	}
	if err := s.writeConversations(ctx, allConversations); err != nil {
		return syncpkg.Outcome[int64]{}, err
	}
	s.announce(ctx, messagesCollection)
	s.announce(ctx, conversationsCollection)

	if s.mirror == nil {
		return syncpkg.LocalOnly(flagged), nil
	}

	remoteErr := syncpkg.Attempt(func() error {
		if _, err := s.mirror.MarkMessagesRead(ctx, conversationID, readerEmail); err != nil {
			return err
		}
		if patched != nil {
			c := *patched
			return s.mirror.UpsertConversation(ctx, &c)
		}
		return nil
	})
	if remoteErr != nil {
		s.sync.IncMirrorFailure(conversationsCollection)
		s.warnRemote(ctx, "read-state mirror write failed", remoteErr)
		return syncpkg.Unsynced(flagged, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(conversationsCollection)
	return syncpkg.Synced(flagged), nil
}

// UnreadCount sums the user's unread counters across conversations. Defined
// to fail soft: any failure yields zero, never an error.
func (s *Store) UnreadCount(ctx context.Context, email string) int64 {
	conversations, err := s.ListConversations(ctx, email)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "unread count unavailable, reporting zero")
		return 0
	}
	var total int64
	for _, c := range conversations {
		total += int64(c.UnreadCounts[email])
	}
	return total
}

// SubscribeMessages delivers the conversation's full message set on every
// change. In local-only mode the callback fires once with the current
// snapshot and the returned unsubscribe is a logging no-op.
func (s *Store) SubscribeMessages(ctx context.Context, conversationID string, fn func([]models.Message)) (func(), error) {
	if s.mirror == nil || s.feed == nil {
		snapshot, err := s.ListMessages(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		fn(snapshot)
		return func() {
			s.logg.Info(ctx, "message unsubscribe is a no-op in local-only mode")
		}, nil
	}

	notify, stop, err := s.feed.WatchChanges(ctx, messagesCollection)
	if err != nil {
		return nil, err
	}

	go func() {
		s.deliverMessages(ctx, conversationID, fn)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notify:
				if !ok {
					return
				}
				s.deliverMessages(ctx, conversationID, fn)
			}
		}
	}()

	return func() {
		if err := stop(); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "message unsubscribe failed")
		}
	}, nil
}

func (s *Store) deliverMessages(ctx context.Context, conversationID string, fn func([]models.Message)) {
	rows, err := s.ListMessages(ctx, conversationID)
	if err != nil {
		s.logg.Error(ctx, "message subscription query failed", err)
		return
	}
	fn(rows)
}

func (s *Store) localMessages(ctx context.Context) ([]models.Message, error) {
	return readLocalList[models.Message](ctx, s, localstore.KeyMessages)
}

func (s *Store) localConversations(ctx context.Context) ([]models.Conversation, error) {
	return readLocalList[models.Conversation](ctx, s, localstore.KeyConversations)
}

func readLocalList[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, found, err := s.local.Get(ctx, key)
	if err != nil {
		s.logg.Error(ctx, "local read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logg.Error(ctx, "failed to decode persisted collection", err)
		return nil, nil
	}
	return out, nil
}

func (s *Store) writeMessages(ctx context.Context, all []models.Message) error {
	return writeLocalList(ctx, s, localstore.KeyMessages, all)
}

func (s *Store) writeConversations(ctx context.Context, all []models.Conversation) error {
	return writeLocalList(ctx, s, localstore.KeyConversations, all)
}

func writeLocalList[T any](ctx context.Context, s *Store, key string, all []T) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, key, string(raw)); err != nil {
		s.logg.Error(ctx, "local write failed", err)
		return err
	}
	return nil
}

// refreshMessages replaces the local copy of one conversation's messages
// with the remote result set, keeping other conversations untouched.
func (s *Store) refreshMessages(ctx context.Context, conversationID string, remote []models.Message) error {
	all, err := s.localMessages(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Message, 0, len(all)+len(remote))
	for _, m := range all {
		if m.ConversationID != conversationID {
			kept = append(kept, m)
		}
	}
	kept = append(kept, remote...)
	return s.writeMessages(ctx, kept)
}

func (s *Store) refreshConversations(ctx context.Context, email string, remote []models.Conversation) error {
	all, err := s.localConversations(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Conversation, 0, len(all)+len(remote))
	for _, c := range all {
		if !slices.Contains(c.Participants, email) {
			kept = append(kept, c)
		}
	}
	kept = append(kept, remote...)
	return s.writeConversations(ctx, kept)
}

func (s *Store) announce(ctx context.Context, collection string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.PublishChange(ctx, collection); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "change publish failed")
	}
}

func (s *Store) warnRemote(ctx context.Context, msg string, err error) {
	s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), msg)
}

func replaceConversation(all []models.Conversation, conversation models.Conversation) []models.Conversation {
	for i := range all {
		if all[i].ID == conversation.ID {
			all[i] = conversation
			return all
		}
	}
	return append(all, conversation)
}
