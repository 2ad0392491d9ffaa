package meetings

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const collection = "meetings"

// Mirror is the remote side of the meetings dual-write. Nil means local-only.
type Mirror interface {
	Upsert(ctx context.Context, meeting *models.Meeting) error
	ListByOrganizer(ctx context.Context, email string) ([]models.Meeting, error)
	ListByParticipant(ctx context.Context, email string) ([]models.Meeting, error)
}

// ChangeFeed carries collection change notifications between processes.
type ChangeFeed interface {
	PublishChange(ctx context.Context, collection string) error
	WatchChanges(ctx context.Context, collection string) (<-chan struct{}, func() error, error)
}

// Store is the dual-write accessor for meetings.
type Store struct {
	local  *localstore.Store
	mirror Mirror
	feed   ChangeFeed
	sync   *metrics.SyncMetrics
	logg   *logger.Logger
}

// NewStore wires the meeting store. mirror and feed may be nil.
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

// Save inserts or replaces the meeting locally and mirrors it best-effort.
func (s *Store) Save(ctx context.Context, meeting models.Meeting) (syncpkg.Outcome[models.Meeting], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[models.Meeting]{}, err
	}
	all = replaceByID(all, meeting)
	if err := s.writeAll(ctx, all); err != nil {
		return syncpkg.Outcome[models.Meeting]{}, err
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(meeting), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		m := meeting
		return s.mirror.Upsert(ctx, &m)
	})
	s.sync.ObserveMirrorDuration(collection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "meeting mirror write failed", remoteErr)
		return syncpkg.Unsynced(meeting, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(meeting), nil
}

// ListForUser returns meetings where the user is organizer or participant,
// remote-first. The two remote queries are merged and deduplicated.
func (s *Store) ListForUser(ctx context.Context, email string) ([]models.Meeting, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var organized, invited []models.Meeting
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.ListByOrganizer(ctx, email)
			if err != nil {
				return err
			}
			organized = rows
			rows, err = s.mirror.ListByParticipant(ctx, email)
			if err != nil {
				return err
			}
			invited = rows
			return nil
		})
		if remoteErr == nil {
			merged := mergeMeetings(organized, invited)
			if err := s.refreshCache(ctx, email, merged); err != nil {
				return nil, err
			}
			return merged, nil
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "meeting mirror list failed, serving local", remoteErr)
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterForUser(all, email), nil
}

// FindLocal returns the locally stored meeting by id, if any.
func (s *Store) FindLocal(ctx context.Context, id string) (*models.Meeting, error) {
	all, err := s.readAll(ctx)
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

// Subscribe delivers the user's full meeting set on every change. Two
// independent queries (organizer-side and participant-side) back one logical
// subscription; the merged callback fires only once both sides have
// delivered at least one snapshot, so the first delivery is never partial.
// In local-only mode the callback fires once and unsubscribe is a no-op.
func (s *Store) Subscribe(ctx context.Context, email string, fn func([]models.Meeting)) (func(), error) {
	if s.mirror == nil || s.feed == nil {
		snapshot, err := s.ListForUser(ctx, email)
		if err != nil {
			return nil, err
		}
		fn(snapshot)
		return func() {
			s.logg.Info(ctx, "meeting unsubscribe is a no-op in local-only mode")
		}, nil
	}

	organizerNotify, organizerStop, err := s.feed.WatchChanges(ctx, collection)
	if err != nil {
		return nil, err
	}
	participantNotify, participantStop, err := s.feed.WatchChanges(ctx, collection)
	if err != nil {
		_ = organizerStop()
		return nil, err
	}

	merge := newMeetingMerge(fn)
	go s.watchSide(ctx, organizerNotify, email, sideOrganizer, merge)
	go s.watchSide(ctx, participantNotify, email, sideParticipant, merge)

	return func() {
		if err := multierr.Append(organizerStop(), participantStop()); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "meeting unsubscribe failed")
		}
	}, nil
}

type meetingSide int

const (
	sideOrganizer meetingSide = iota
	sideParticipant
)

// meetingMerge coalesces the two query sides into one callback stream.
type meetingMerge struct {
	mu    gosync.Mutex
	sides [2]struct {
		rows  []models.Meeting
		ready bool
	}
	fn func([]models.Meeting)
}

func newMeetingMerge(fn func([]models.Meeting)) *meetingMerge {
	return &meetingMerge{fn: fn}
}

func (m *meetingMerge) deliver(side meetingSide, rows []models.Meeting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sides[side].rows = rows
	m.sides[side].ready = true
	if !m.sides[sideOrganizer].ready || !m.sides[sideParticipant].ready {
		return
	}
	m.fn(mergeMeetings(m.sides[sideOrganizer].rows, m.sides[sideParticipant].rows))
}

func (s *Store) watchSide(ctx context.Context, notify <-chan struct{}, email string, side meetingSide, merge *meetingMerge) {
	s.querySide(ctx, email, side, merge)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-notify:
			if !ok {
				return
			}
			s.querySide(ctx, email, side, merge)
		}
	}
}

func (s *Store) querySide(ctx context.Context, email string, side meetingSide, merge *meetingMerge) {
	var rows []models.Meeting
	err := syncpkg.Attempt(func() error {
		var queryErr error
		if side == sideOrganizer {
			rows, queryErr = s.mirror.ListByOrganizer(ctx, email)
		} else {
			rows, queryErr = s.mirror.ListByParticipant(ctx, email)
		}
		return queryErr
	})
	if err != nil {
		s.warnRemote(ctx, "meeting subscription query failed", err)
		return
	}
	merge.deliver(side, rows)
}

func (s *Store) readAll(ctx context.Context) ([]models.Meeting, error) {
	raw, found, err := s.local.Get(ctx, localstore.KeyMeetings)
	if err != nil {
		s.logg.Error(ctx, "local meeting read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var out []models.Meeting
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logg.Error(ctx, "failed to decode persisted meetings", err)
		return nil, nil
	}
	return out, nil
}

func (s *Store) writeAll(ctx context.Context, all []models.Meeting) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, localstore.KeyMeetings, string(raw)); err != nil {
		s.logg.Error(ctx, "local meeting write failed", err)
		return err
	}
	return nil
}

func (s *Store) refreshCache(ctx context.Context, email string, remote []models.Meeting) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Meeting, 0, len(all)+len(remote))
	for _, m := range all {
		if m.OrganizerEmail != email && m.ParticipantEmail != email {
			kept = append(kept, m)
		}
	}
	kept = append(kept, remote...)
	return s.writeAll(ctx, kept)
}

func (s *Store) announce(ctx context.Context) {
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

func mergeMeetings(a, b []models.Meeting) []models.Meeting {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]models.Meeting, 0, len(a)+len(b))
	for _, m := range append(a, b...) {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

func filterForUser(all []models.Meeting, email string) []models.Meeting {
	var out []models.Meeting
	for _, m := range all {
		if m.OrganizerEmail == email || m.ParticipantEmail == email {
			out = append(out, m)
		}
	}
	return out
}

func replaceByID(all []models.Meeting, meeting models.Meeting) []models.Meeting {
	for i := range all {
		if all[i].ID == meeting.ID {
			all[i] = meeting
			return all
		}
	}
	return append(all, meeting)
}
