package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
)

const collection = "inbox"

// Mirror is the remote side of the inbox dual-write. Nil means local-only.
type Mirror interface {
	Upsert(ctx context.Context, item *models.InboxItem) error
	ListByRecipient(ctx context.Context, email string, cursor *pagination.Cursor, limit int) ([]models.InboxItem, error)
	MarkRead(ctx context.Context, id, recipientEmail string) (bool, error)
	CountUnread(ctx context.Context, email string) (int64, error)
}

type changePublisher interface {
	PublishChange(ctx context.Context, collection string) error
}

// Store is the dual-write accessor for inbox items.
type Store struct {
	local   *localstore.Store
	mirror  Mirror
	publish changePublisher
	sync    *metrics.SyncMetrics
	logg    *logger.Logger
}

// NewStore wires the inbox store. mirror and publish may be nil.
func NewStore(local *localstore.Store, mirror Mirror, publish changePublisher, syncMetrics *metrics.SyncMetrics, logg *logger.Logger) (*Store, error) {
	if local == nil {
		return nil, fmt.Errorf("local store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{
		local:   local,
		mirror:  mirror,
		publish: publish,
		sync:    syncMetrics,
		logg:    logg,
	}, nil
}

// Deliver appends the item locally and mirrors it best-effort.
func (s *Store) Deliver(ctx context.Context, item models.InboxItem) (syncpkg.Outcome[models.InboxItem], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[models.InboxItem]{}, err
	}
	all = replaceByID(all, item)
	if err := s.writeAll(ctx, all); err != nil {
		return syncpkg.Outcome[models.InboxItem]{}, err
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(item), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		i := item
		return s.mirror.Upsert(ctx, &i)
	})
	s.sync.ObserveMirrorDuration(collection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "inbox mirror write failed", remoteErr)
		return syncpkg.Unsynced(item, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(item), nil
}

// List returns a page of the recipient's inbox, newest first, remote-first.
func (s *Store) List(ctx context.Context, email string, cursor *pagination.Cursor, limit int) ([]models.InboxItem, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var remote []models.InboxItem
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.ListByRecipient(ctx, email, cursor, limit)
			if err != nil {
				return err
			}
			remote = rows
			return nil
		})
		if remoteErr == nil {
			// Only the first page refreshes the cache; later pages would
			// evict rows the cursor already walked past.
			if cursor == nil {
				if err := s.refreshCache(ctx, email, remote); err != nil {
					return nil, err
				}
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "inbox mirror list failed, serving local", remoteErr)
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return pageLocal(all, email, cursor, limit), nil
}

// MarkRead flips the read flag on the caller's item.
func (s *Store) MarkRead(ctx context.Context, id, recipientEmail string) (syncpkg.Outcome[models.InboxItem], error) {
	ctx = s.logg.WithCollection(ctx, collection)
	var zero syncpkg.Outcome[models.InboxItem]

	all, err := s.readAll(ctx)
	if err != nil {
		return zero, err
	}
	var updated *models.InboxItem
	for i := range all {
		if all[i].ID == id && all[i].RecipientEmail == recipientEmail {
			all[i].Read = true
			updated = &all[i]
			break
		}
	}
	if updated == nil {
		return zero, pkgerrors.New(pkgerrors.CodeNotFound, "inbox item not found")
	}
	if err := s.writeAll(ctx, all); err != nil {
		return zero, err
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(*updated), nil
	}
	remoteErr := syncpkg.Attempt(func() error {
		_, err := s.mirror.MarkRead(ctx, id, recipientEmail)
		return err
	})
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "inbox mirror read-flag write failed", remoteErr)
		return syncpkg.Unsynced(*updated, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(*updated), nil
}

// UnreadCount is a fail-soft aggregate: any failure yields zero, never an error.
func (s *Store) UnreadCount(ctx context.Context, email string) int64 {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var count int64
		remoteErr := syncpkg.Attempt(func() error {
			n, err := s.mirror.CountUnread(ctx, email)
			if err != nil {
				return err
			}
			count = n
			return nil
		})
		if remoteErr == nil {
			return count
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "inbox mirror count failed, counting locally", remoteErr)
	}

	all, err := s.readAll(ctx)
	if err != nil {
		s.warnRemote(ctx, "local inbox count failed, reporting zero", err)
		return 0
	}
	var count int64
	for _, item := range all {
		if item.RecipientEmail == email && !item.Read {
			count++
		}
	}
	return count
}

func (s *Store) refreshCache(ctx context.Context, email string, remote []models.InboxItem) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.InboxItem, 0, len(all)+len(remote))
	for _, item := range all {
		if item.RecipientEmail != email {
			kept = append(kept, item)
		}
	}
	kept = append(kept, remote...)
	return s.writeAll(ctx, kept)
}

func (s *Store) readAll(ctx context.Context) ([]models.InboxItem, error) {
	raw, found, err := s.local.Get(ctx, localstore.KeyInbox)
	if err != nil {
		s.logg.Error(ctx, "local inbox read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var out []models.InboxItem
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logg.Error(ctx, "failed to decode persisted inbox items", err)
		return nil, nil
	}
	return out, nil
}

func (s *Store) writeAll(ctx context.Context, all []models.InboxItem) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, localstore.KeyInbox, string(raw)); err != nil {
		s.logg.Error(ctx, "local inbox write failed", err)
		return err
	}
	return nil
}

func (s *Store) announce(ctx context.Context) {
	if s.publish == nil {
		return
	}
	if err := s.publish.PublishChange(ctx, collection); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "change publish failed")
	}
}

func (s *Store) warnRemote(ctx context.Context, msg string, err error) {
	s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), msg)
}

// pageLocal applies the remote query's shape to the local cache: recipient
// filter, newest first, strict cursor, limit.
func pageLocal(all []models.InboxItem, email string, cursor *pagination.Cursor, limit int) []models.InboxItem {
	var mine []models.InboxItem
	for _, item := range all {
		if item.RecipientEmail == email {
			mine = append(mine, item)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})

	var page []models.InboxItem
	for _, item := range mine {
		if cursor != nil {
			if item.CreatedAt.After(cursor.CreatedAt) {
				continue
			}
			if item.CreatedAt.Equal(cursor.CreatedAt) && item.ID >= cursor.ID {
				continue
			}
		}
		page = append(page, item)
		if limit > 0 && len(page) == limit {
			break
		}
	}
	return page
}

func replaceByID(all []models.InboxItem, item models.InboxItem) []models.InboxItem {
	for i := range all {
		if all[i].ID == item.ID {
			all[i] = item
			return all
		}
	}
	return append(all, item)
}
