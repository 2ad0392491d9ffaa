package invites

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
)

const collection = "invitationCodes"

// Mirror is the remote side of the invitation code dual-write. Nil means local-only.
type Mirror interface {
	Upsert(ctx context.Context, code *models.InvitationCode) error
	GetByCode(ctx context.Context, code string) (*models.InvitationCode, error)
	ListByCreator(ctx context.Context, email string) ([]models.InvitationCode, error)
	Redeem(ctx context.Context, code, usedBy string, usedAt time.Time) (bool, error)
}

type changePublisher interface {
	PublishChange(ctx context.Context, collection string) error
}

// Store is the dual-write accessor for invitation codes.
type Store struct {
	local   *localstore.Store
	mirror  Mirror
	publish changePublisher
	sync    *metrics.SyncMetrics
	logg    *logger.Logger
}

// NewStore wires the invitation code store. mirror and publish may be nil.
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

// Create inserts the freshly issued code locally and mirrors it best-effort.
func (s *Store) Create(ctx context.Context, code models.InvitationCode) (syncpkg.Outcome[models.InvitationCode], error) {
	ctx = s.logg.WithCollection(ctx, collection)

	all, err := s.readAll(ctx)
	if err != nil {
		return syncpkg.Outcome[models.InvitationCode]{}, err
	}
	all = append(all, code)
	if err := s.writeAll(ctx, all); err != nil {
		return syncpkg.Outcome[models.InvitationCode]{}, err
	}
	s.announce(ctx)

	if s.mirror == nil {
		return syncpkg.LocalOnly(code), nil
	}

	start := time.Now()
	remoteErr := syncpkg.Attempt(func() error {
		c := code
		return s.mirror.Upsert(ctx, &c)
	})
	s.sync.ObserveMirrorDuration(collection, time.Since(start))
	if remoteErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "invitation code mirror write failed", remoteErr)
		return syncpkg.Unsynced(code, remoteErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(code), nil
}

// ListMine returns codes issued by the given member, remote-first.
func (s *Store) ListMine(ctx context.Context, email string) ([]models.InvitationCode, error) {
	ctx = s.logg.WithCollection(ctx, collection)

	if s.mirror != nil {
		var remote []models.InvitationCode
		remoteErr := syncpkg.Attempt(func() error {
			rows, err := s.mirror.ListByCreator(ctx, email)
			if err != nil {
				return err
			}
			remote = rows
			return nil
		})
		if remoteErr == nil {
			if err := s.refreshCache(ctx, email, remote); err != nil {
				return nil, err
			}
			return remote, nil
		}
		s.sync.IncFallbackRead(collection)
		s.warnRemote(ctx, "invitation code mirror list failed, serving local", remoteErr)
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	var mine []models.InvitationCode
	for _, c := range all {
		if c.CreatorEmail == email {
			mine = append(mine, c)
		}
	}
	return mine, nil
}

// Redeem spends an invitation code exactly once. When the mirror is
// reachable its copy is authoritative: the flip happens under a conditional
// update so two racing redeemers cannot both succeed, and the local cache is
// patched afterwards. When the mirror has no record of the code (the remote
// lags behind an offline issuance) or is unreachable, redemption falls back
// to the local unused-code list.
func (s *Store) Redeem(ctx context.Context, code, usedBy string, usedAt time.Time) (syncpkg.Outcome[models.InvitationCode], error) {
	ctx = s.logg.WithCollection(ctx, collection)
	var zero syncpkg.Outcome[models.InvitationCode]

	var remoteErr error
	if s.mirror != nil {
		var remote *models.InvitationCode
		attemptErr := syncpkg.Attempt(func() error {
			row, err := s.mirror.GetByCode(ctx, code)
			if err != nil {
				return err
			}
			remote = row
			return nil
		})
		switch {
		case attemptErr != nil:
			s.sync.IncFallbackRead(collection)
			s.warnRemote(ctx, "invitation code mirror lookup failed, redeeming locally", attemptErr)
			remoteErr = attemptErr
		case remote != nil:
			return s.redeemRemote(ctx, *remote, usedBy, usedAt)
		default:
			// Remote has never seen this code; the local list decides.
		}
	}

	redeemed, err := s.redeemLocal(ctx, code, usedBy, usedAt)
	if err != nil {
		return zero, err
	}

	if s.mirror == nil {
		return syncpkg.LocalOnly(*redeemed), nil
	}
	if remoteErr != nil {
		return syncpkg.Unsynced(*redeemed, remoteErr), nil
	}

	// The mirror lagged behind; push the redeemed state so it catches up.
	patchErr := syncpkg.Attempt(func() error {
		c := *redeemed
		return s.mirror.Upsert(ctx, &c)
	})
	if patchErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "invitation code mirror patch failed", patchErr)
		return syncpkg.Unsynced(*redeemed, patchErr), nil
	}
	s.sync.IncMirrorSuccess(collection)
	return syncpkg.Synced(*redeemed), nil
}

func (s *Store) redeemRemote(ctx context.Context, remote models.InvitationCode, usedBy string, usedAt time.Time) (syncpkg.Outcome[models.InvitationCode], error) {
	var zero syncpkg.Outcome[models.InvitationCode]
	if remote.IsUsed {
		return zero, pkgerrors.New(pkgerrors.CodeStateConflict, "invitation code already used")
	}

	var flipped bool
	attemptErr := syncpkg.Attempt(func() error {
		ok, err := s.mirror.Redeem(ctx, remote.Code, usedBy, usedAt)
		if err != nil {
			return err
		}
		flipped = ok
		return nil
	})
	if attemptErr != nil {
		s.sync.IncMirrorFailure(collection)
		s.warnRemote(ctx, "invitation code mirror redeem failed, redeeming locally", attemptErr)
		redeemed, err := s.redeemLocal(ctx, remote.Code, usedBy, usedAt)
		if err != nil {
			return zero, err
		}
		return syncpkg.Unsynced(*redeemed, attemptErr), nil
	}
	if !flipped {
		// A concurrent redeemer won the conditional update.
		return zero, pkgerrors.New(pkgerrors.CodeStateConflict, "invitation code already used")
	}
	s.sync.IncMirrorSuccess(collection)

	remote.IsUsed = true
	remote.UsedBy = &usedBy
	remote.UsedAt = &usedAt
	if err := s.patchLocal(ctx, remote); err != nil {
		return zero, err
	}
	s.announce(ctx)
	return syncpkg.Synced(remote), nil
}

func (s *Store) redeemLocal(ctx context.Context, code, usedBy string, usedAt time.Time) (*models.InvitationCode, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Code != code {
			continue
		}
		if all[i].IsUsed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invitation code already used")
		}
		all[i].IsUsed = true
		all[i].UsedBy = &usedBy
		all[i].UsedAt = &usedAt
		if err := s.writeAll(ctx, all); err != nil {
			return nil, err
		}
		s.announce(ctx)
		redeemed := all[i]
		return &redeemed, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invitation code not found")
}

func (s *Store) patchLocal(ctx context.Context, code models.InvitationCode) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == code.ID || all[i].Code == code.Code {
			all[i] = code
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, code)
	}
	return s.writeAll(ctx, all)
}

func (s *Store) refreshCache(ctx context.Context, email string, remote []models.InvitationCode) error {
	all, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.InvitationCode, 0, len(all)+len(remote))
	for _, c := range all {
		if c.CreatorEmail != email {
			kept = append(kept, c)
		}
	}
	kept = append(kept, remote...)
	return s.writeAll(ctx, kept)
}

func (s *Store) readAll(ctx context.Context) ([]models.InvitationCode, error) {
	raw, found, err := s.local.Get(ctx, localstore.KeyInvitationCodes)
	if err != nil {
		s.logg.Error(ctx, "local invitation code read failed", err)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var out []models.InvitationCode
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.logg.Error(ctx, "failed to decode persisted invitation codes", err)
		return nil, nil
	}
	return out, nil
}

func (s *Store) writeAll(ctx context.Context, all []models.InvitationCode) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := s.local.Set(ctx, localstore.KeyInvitationCodes, string(raw)); err != nil {
		s.logg.Error(ctx, "local invitation code write failed", err)
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
