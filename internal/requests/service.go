package requests

import (
	"context"
	"strings"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/google/uuid"
)

// Service defines mentorship request operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (syncpkg.Outcome[models.MentorshipRequest], error)
	Categorize(ctx context.Context, email string) (*Categorized, error)
	Respond(ctx context.Context, identity string, input RespondInput) (syncpkg.Outcome[models.MentorshipRequest], error)
	ListAccepted(ctx context.Context, email string) ([]models.MentorshipRequest, error)
}

// CreateInput carries a new mentorship ask.
type CreateInput struct {
	RequesterEmail string `json:"requesterEmail" validate:"required,email"`
	RequesterName  string `json:"requesterName" validate:"required"`
	MentorEmail    string `json:"mentorEmail" validate:"required,email"`
	MentorName     string `json:"mentorName" validate:"required"`
	Note           string `json:"note"`
}

// RespondInput carries a mentor's accept/decline decision.
type RespondInput struct {
	RequestID    string `json:"requestId" validate:"required"`
	Accept       bool   `json:"accept"`
	ResponseNote string `json:"responseNote"`
}

// Categorized splits a user's requests by role and resolution.
type Categorized struct {
	Incoming  []models.MentorshipRequest `json:"incoming"`
	Outgoing  []models.MentorshipRequest `json:"outgoing"`
	Processed []models.MentorshipRequest `json:"processed"`
}

type service struct {
	store *Store
	now   func() time.Time
}

// NewService wires request dependencies.
func NewService(store *Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "request store required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (syncpkg.Outcome[models.MentorshipRequest], error) {
	var zero syncpkg.Outcome[models.MentorshipRequest]
	if input.RequesterEmail == "" || input.MentorEmail == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "requester and mentor emails required")
	}
	if input.RequesterEmail == input.MentorEmail {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "cannot request mentorship from yourself")
	}

	existing, err := s.store.ListForUser(ctx, input.RequesterEmail)
	if err != nil {
		return zero, err
	}
	for _, r := range existing {
		if r.RequesterEmail == input.RequesterEmail && r.MentorEmail == input.MentorEmail && r.Status == enums.RequestStatusPending {
			return zero, pkgerrors.New(pkgerrors.CodeConflict, "a pending request already exists")
		}
	}

	request := models.MentorshipRequest{
		ID:             uuid.NewString(),
		RequesterEmail: input.RequesterEmail,
		RequesterName:  input.RequesterName,
		MentorEmail:    input.MentorEmail,
		MentorName:     input.MentorName,
		Note:           input.Note,
		Status:         enums.RequestStatusPending,
		CreatedAt:      s.now().UTC(),
	}
	return s.store.Create(ctx, request)
}

func (s *service) Categorize(ctx context.Context, email string) (*Categorized, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	all, err := s.store.ListForUser(ctx, email)
	if err != nil {
		return nil, err
	}

	out := &Categorized{}
	for _, r := range all {
		switch {
		case r.Status.IsResolved():
			out.Processed = append(out.Processed, r)
		case r.MentorEmail == email:
			out.Incoming = append(out.Incoming, r)
		case r.RequesterEmail == email:
			out.Outgoing = append(out.Outgoing, r)
		}
	}
	return out, nil
}

func (s *service) Respond(ctx context.Context, identity string, input RespondInput) (syncpkg.Outcome[models.MentorshipRequest], error) {
	var zero syncpkg.Outcome[models.MentorshipRequest]
	if input.RequestID == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	request, err := s.store.FindLocal(ctx, input.RequestID)
	if err != nil {
		return zero, err
	}
	if request == nil {
		return zero, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	if request.MentorEmail != identity {
		return zero, pkgerrors.New(pkgerrors.CodeForbidden, "only the mentor can respond")
	}
	if request.Status != enums.RequestStatusPending {
		return zero, pkgerrors.New(pkgerrors.CodeStateConflict, "request already resolved")
	}

	if input.Accept {
		request.Status = enums.RequestStatusAccepted
	} else {
		request.Status = enums.RequestStatusDeclined
	}

	// Empty and whitespace-only notes are stored as absent, never "".
	note := strings.TrimSpace(input.ResponseNote)
	if note == "" {
		request.ResponseNote = nil
	} else {
		request.ResponseNote = &note
	}

	respondedAt := s.now().UTC()
	request.RespondedAt = &respondedAt

	return s.store.Respond(ctx, *request)
}

func (s *service) ListAccepted(ctx context.Context, email string) ([]models.MentorshipRequest, error) {
	all, err := s.store.ListForUser(ctx, email)
	if err != nil {
		return nil, err
	}
	var accepted []models.MentorshipRequest
	for _, r := range all {
		if r.Status == enums.RequestStatusAccepted {
			accepted = append(accepted, r)
		}
	}
	return accepted, nil
}
