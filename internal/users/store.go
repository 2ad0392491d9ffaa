package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
)

const collection = "users"

// Mirror is the remote side of the users dual-write. Nil means local-only.
type Mirror interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is the dual-write accessor for auth users.
type Store struct {
	local  *localstore.Store
	mirror Mirror
	sync   *metrics.SyncMetrics
	logg   *logger.Logger
}

// NewStore wires the user store. mirror may be nil.
func NewStore(local *localstore.Store, mirror Mirror, syncMetrics *metrics.SyncMetrics, logg *logger.Logger) (*Store, error) {
	if local == nil {
		return nil, fmt.Errorf("local store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{local: local, mirror: mirror, sync: syncMetrics, logg: logg}, nil
}

// Create registers a new user. Email uniqueness is enforced against the
// local collection before any remote attempt.
func (s *Store) Create(ctx context.Context, user models.User) (syncpkg.Outcome[models.User], error) {
	ctx = s.logg.WithCollection(ctx, collection)
	var zero syncpkg.Outcome[models.User]

	all, err := s.readAll(ctx)
	if err != nil {
		return zero, err
	}
	for _, existing := range all {
		if strings.EqualFold(existing.Email, user.Email) {
			return zero, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
	}
	all = append(all, user)
	if err := s.writeAll(ctx, all); err != nil {
		return zero, err
	}

	if s.mirror == nil {
		return syncpkg.LocalOnly(user), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		u := user
		return s.mirror.Create(ctx, &u)
	})
	s.sync.ObserveMirrorDuration(collection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "user mirror write failed", remoteErr)
		return syncpkg.Unsynced(user, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(user), nil
}

// FindByEmail resolves a user remote-first with a local cache refresh.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var remote *models.User
		remoteErr := syncpkg.Attempt(func() error {
			u, err := s.mirror.GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			remote = u
			return nil
		})
		if remoteErr == nil {
			if remote != nil {
				if err := s.cacheOne(ctx, *remote); err != nil {
					return nil, err
				}
				return remote, nil
			}
			// Not known remotely; a locally registered user may still exist.
		} else {
			s.sync.IncFallbackRead(collection)
			s.warnRemote(ctx, "user mirror lookup failed, serving local", remoteErr)
		}
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Email, email) {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *Store) cacheOne(ctx context.Context, user models.User) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if strings.EqualFold(all[i].Email, user.Email) {
			all[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, user)
	}
	return s.writeAll(ctx, all)
}

func (s *Store) readAll(ctx context.Context) ([]models.User, error) {
	raw, found, err := s.local.Get(ctx, localstore.KeyUsers)
	if err != nil {
		s.logg.Error(ctx, "local user read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var out []models.User
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logg.Error(ctx, "failed to decode persisted users", err)
		return nil, nil
	}
	return out, nil
}

func (s *Store) writeAll(ctx context.Context, all []models.User) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, localstore.KeyUsers, string(raw)); err != nil {
		s.logg.Error(ctx, "local user write failed", err)
		return err
	}
	return nil
}

func (s *Store) warnRemote(ctx context.Context, msg string, err error) {
	s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), msg)
}
