package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mentorhub/mentorhub-backend/internal/schema"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
)

const collection = "profiles"

// Mirror is the remote side of the profiles dual-write. A nil mirror means
// the system runs local-only; the store checks capability exactly once here.
type Mirror interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	Get(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Delete(ctx context.Context, email string) error
}

type changePublisher interface {
	PublishChange(ctx context.Context, collection string) error
}

// Store is the dual-write profile accessor: every write lands locally first
// and is mirrored best-effort. Remote profile writes additionally require
// the acting identity to match the profile email.
type Store struct {
	local   *localstore.Store
	mirror  Mirror
	publish changePublisher
	sync    *metrics.SyncMetrics
	logg    *logger.Logger
}

// NewStore wires the profile store. mirror and publish may be nil.
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

// Save writes the profile locally (own slot plus the all-profiles cache) and
// mirrors it when the acting identity owns the profile. The operation fails
// only if the local write failed.
func (s *Store) Save(ctx context.Context, identity string, profile models.Profile) (syncpkg.Outcome[models.Profile], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[models.Profile]{}, err
	}
	all = replaceByEmail(all, profile)
	if err := s.writeAll(ctx, all); err != nil {
		return syncpkg.Outcome[models.Profile]{}, err
	}
	if identity == profile.Email {
		if err := s.writeOne(ctx, localstore.KeyProfile, profile); err != nil {
			return syncpkg.Outcome[models.Profile]{}, err
		}
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(profile), nil
	}
	if identity != profile.Email {
		// Never push writes under someone else's profile identity.
		s.logg.Warn(s.logg.WithUserEmail(ctx, identity), "skipping remote profile write for foreign identity")
		return syncpkg.LocalOnly(profile), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		p := profile
		return s.mirror.Upsert(ctx, &p)
	})
	s.sync.ObserveMirrorDuration(collection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "profile mirror write failed", remoteErr)
		return syncpkg.Unsynced(profile, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(profile), nil
}

// Get resolves a profile by email, remote-first. A remote miss is a nil
// profile without error; remote failure falls back to the local caches.
func (s *Store) Get(ctx context.Context, email string) (*models.Profile, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var remote *models.Profile
		remoteErr := syncpkg.Attempt(func() error {
			found, err := s.mirror.Get(ctx, email)
			remote = found
			return err
		})
		if remoteErr == nil {
			if remote != nil {
				if err := s.cacheOne(ctx, *remote); err != nil {
					return nil, err
				}
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "profile mirror read failed, serving local", remoteErr)
	}

	return s.LookupLocal(ctx, email)
}

// List returns every known profile, remote-first with local fallback.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var remote []models.Profile
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.List(ctx)
			remote = rows
			return err
		})
		if remoteErr == nil {
			if err := s.writeAll(ctx, remote); err != nil {
				return nil, err
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "profile mirror list failed, serving local", remoteErr)
	}

	return s.readAll(ctx)
}

// Delete removes the profile from both local slots and mirrors the delete
// when the acting identity owns the profile.
func (s *Store) Delete(ctx context.Context, identity, email string) (syncpkg.Outcome[string], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[string]{}, err
	}
	filtered := all[:0]
	for _, p := range all {
		if p.Email != email {
			filtered = append(filtered, p)
		}
	}
	if err := s.writeAll(ctx, filtered); err != nil {
		return syncpkg.Outcome[string]{}, err
	}
	if identity == email {
		if err := s.local.Remove(ctx, localstore.KeyProfile); err != nil {
			return syncpkg.Outcome[string]{}, err
		}
	}
	s.announce(ctx)

	if s.mirror == nil || identity != email {
		return syncpkg.LocalOnly(email), nil
	}

	remoteErr := syncpkg.Attempt(func() error {
		return s.mirror.Delete(ctx, email)
	})
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "profile mirror delete failed", remoteErr)
		return syncpkg.Unsynced(email, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(email), nil
}

// LookupLocal checks the all-profiles cache first, then the per-email test
// profile slot. Absence of either source is tolerated.
func (s *Store) LookupLocal(ctx context.Context, email string) (*models.Profile, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Email == email {
			return &all[i], nil
		}
	}

	raw, found, err := s.local.Get(ctx, localstore.TestProfileKey(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	profile, decodeErr := schema.DecodeProfile([]byte(raw))
	if decodeErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", decodeErr.Error()), "ignoring malformed test profile slot")
		return nil, nil
	}
	return &profile, nil
}

func (s *Store) readAll(ctx context.Context) ([]models.Profile, error) {
	raw, found, err := s.local.Get(ctx, localstore.KeyAllProfiles)
	if err != nil {
		s.logg.Error(ctx, "local profile read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return schema.ParseJSONList(ctx, s.logg, raw, schema.DecodeProfile), nil
}

func (s *Store) writeAll(ctx context.Context, all []models.Profile) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, localstore.KeyAllProfiles, string(raw)); err != nil {
		s.logg.Error(ctx, "local profile write failed", err)
		return err
	}
	return nil
}

func (s *Store) writeOne(ctx context.Context, key string, profile models.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, key, string(raw)); err != nil {
		s.logg.Error(ctx, "local profile write failed", err)
		return err
	}
	return nil
}

// cacheOne refreshes the local all-profiles cache with one remote result.
func (s *Store) cacheOne(ctx context.Context, profile models.Profile) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	return s.writeAll(ctx, replaceByEmail(all, profile))
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

func replaceByEmail(all []models.Profile, profile models.Profile) []models.Profile {
	for i := range all {
		if all[i].Email == profile.Email {
			all[i] = profile
			return all
		}
	}
	return append(all, profile)
}
