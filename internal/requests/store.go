package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-backend/internal/schema"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
)

const collection = "mentorshipRequests"

// Mirror is the remote side of the requests dual-write. Nil means local-only.
type Mirror interface {
	Create(ctx context.Context, request *models.MentorshipRequest) error
	ListInvolving(ctx context.Context, email string) ([]models.MentorshipRequest, error)
	Respond(ctx context.Context, id string, status enums.RequestStatus, responseNote *string, respondedAt time.Time) (bool, error)
}

type changePublisher interface {
	PublishChange(ctx context.Context, collection string) error
}

// Store is the dual-write accessor for mentorship requests.
type Store struct {
	local   *localstore.Store
	mirror  Mirror
	publish changePublisher
	sync    *metrics.SyncMetrics
	logg    *logger.Logger
}

// NewStore wires the request store. mirror and publish may be nil.
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

// Create appends the request locally and mirrors it best-effort.
func (s *Store) Create(ctx context.Context, request models.MentorshipRequest) (syncpkg.Outcome[models.MentorshipRequest], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[models.MentorshipRequest]{}, err
	}
	all = append(all, request)
	if err := s.writeAll(ctx, all); err != nil {
		return syncpkg.Outcome[models.MentorshipRequest]{}, err
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(request), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		r := request
		return s.mirror.Create(ctx, &r)
	})
	s.sync.ObserveMirrorDuration(collection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "request mirror write failed", remoteErr)
		return syncpkg.Unsynced(request, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(request), nil
}

// ListForUser returns every request the user participates in, remote-first.
func (s *Store) ListForUser(ctx context.Context, email string) ([]models.MentorshipRequest, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var remote []models.MentorshipRequest
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.ListInvolving(ctx, email)
			remote = rows
			return err
		})
		if remoteErr == nil {
			if err := s.refreshCache(ctx, email, remote); err != nil {
				return nil, err
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "request mirror list failed, serving local", remoteErr)
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterInvolving(all, email), nil
}

// Respond updates the stored request locally and mirrors the conditional
// status flip. The caller has already enforced the pending-state rule.
func (s *Store) Respond(ctx context.Context, updated models.MentorshipRequest) (syncpkg.Outcome[models.MentorshipRequest], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[models.MentorshipRequest]{}, err
	}
	for i := range all {
		if all[i].ID == updated.ID {
			all[i] = updated
		}
	}
	if err := s.writeAll(ctx, all); err != nil {
		return syncpkg.Outcome[models.MentorshipRequest]{}, err
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(updated), nil
	}

	respondedAt := time.Now().UTC()
	if updated.RespondedAt != nil {
		respondedAt = *updated.RespondedAt
	}
	remoteErr := syncpkg.Attempt(func() error {
		_, err := s.mirror.Respond(ctx, updated.ID, updated.Status, updated.ResponseNote, respondedAt)
		return err
	})
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "request mirror update failed", remoteErr)
		return syncpkg.Unsynced(updated, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(updated), nil
}

// FindLocal returns the locally stored request by id, if any.
func (s *Store) FindLocal(ctx context.Context, id string) (*models.MentorshipRequest, error) {
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

// refreshCache merges the remote rows for one user into the local
// collection, keeping rows that involve other users untouched.
func (s *Store) refreshCache(ctx context.Context, email string, remote []models.MentorshipRequest) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.MentorshipRequest, 0, len(all)+len(remote))
	for _, r := range all {
		if r.RequesterEmail != email && r.MentorEmail != email {
			kept = append(kept, r)
		}
	}
	kept = append(kept, remote...)
	return s.writeAll(ctx, kept)
}

func (s *Store) readAll(ctx context.Context) ([]models.MentorshipRequest, error) {
	raw, found, err := s.local.Get(ctx, localstore.KeyRequests)
	if err != nil {
		s.logg.Error(ctx, "local request read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return schema.ParseJSONList(ctx, s.logg, raw, schema.DecodeMentorshipRequest), nil
}

func (s *Store) writeAll(ctx context.Context, all []models.MentorshipRequest) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, localstore.KeyRequests, string(raw)); err != nil {
		s.logg.Error(ctx, "local request write failed", err)
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

func filterInvolving(all []models.MentorshipRequest, email string) []models.MentorshipRequest {
	var out []models.MentorshipRequest
	for _, r := range all {
		if r.RequesterEmail == email || r.MentorEmail == email {
			out = append(out, r)
		}
	}
	return out
}
