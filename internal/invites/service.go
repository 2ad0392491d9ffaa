package invites

import (
	"context"
	"strings"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/pubsub"
	"github.com/mentorhub/mentorhub-backend/pkg/security"
	"github.com/google/uuid"
)

// CodeLength is the fixed invitation code length.
const CodeLength = 8

// EventPublisher pushes invite lifecycle events onto the event bus.
// Nil means eventing is disabled; issuance still succeeds.
type EventPublisher interface {
	PublishInviteIssued(ctx context.Context, event pubsub.InviteIssuedEvent) error
}

// Service defines invitation code operations.
type Service interface {
	Issue(ctx context.Context, identity string, input IssueInput) (syncpkg.Outcome[models.InvitationCode], error)
	ListMine(ctx context.Context, email string) ([]models.InvitationCode, error)
	Redeem(ctx context.Context, identity string, input RedeemInput) (syncpkg.Outcome[models.InvitationCode], error)
}

// IssueInput carries a new invitation to mint.
type IssueInput struct {
	RecipientEmail string `json:"recipientEmail" validate:"omitempty,email"`
}

// RedeemInput carries a redemption attempt.
type RedeemInput struct {
	Code string `json:"code" validate:"required,len=8"`
}

type service struct {
	store  *Store
	events EventPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires invitation code dependencies. events may be nil.
func NewService(store *Store, events EventPublisher, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invitation store required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{store: store, events: events, logg: logg, now: time.Now}, nil
}

func (s *service) Issue(ctx context.Context, identity string, input IssueInput) (syncpkg.Outcome[models.InvitationCode], error) {
	var zero syncpkg.Outcome[models.InvitationCode]
	if strings.TrimSpace(identity) == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "issuer email required")
	}

	raw, err := security.GenerateInviteCode(CodeLength)
	if err != nil {
		return zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating invitation code")
	}

	code := models.InvitationCode{
		ID:           uuid.NewString(),
		Code:         raw,
		CreatorEmail: identity,
		CreatedAt:    s.now().UTC(),
	}
	outcome, err := s.store.Create(ctx, code)
	if err != nil {
		return zero, err
	}

	// Event delivery is best-effort; issuance already committed locally.
	if s.events != nil {
		event := pubsub.InviteIssuedEvent{
			EventID:        uuid.NewString(),
			Code:           code.Code,
			CreatorEmail:   code.CreatorEmail,
			RecipientEmail: strings.TrimSpace(input.RecipientEmail),
			IssuedAt:       code.CreatedAt,
		}
		if err := s.events.PublishInviteIssued(ctx, event); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "invite event publish failed")
		}
	}
	return outcome, nil
}

func (s *service) ListMine(ctx context.Context, email string) ([]models.InvitationCode, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.ListMine(ctx, email)
}

func (s *service) Redeem(ctx context.Context, identity string, input RedeemInput) (syncpkg.Outcome[models.InvitationCode], error) {
	var zero syncpkg.Outcome[models.InvitationCode]
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if len(code) != CodeLength {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "invitation code must be 8 characters")
	}
	if strings.TrimSpace(identity) == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "redeemer email required")
	}
	return s.store.Redeem(ctx, code, identity, s.now().UTC())
}
