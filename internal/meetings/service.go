package meetings

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

// Service defines meeting scheduling operations.
type Service interface {
	Create(ctx context.Context, identity string, input CreateInput) (syncpkg.Outcome[models.Meeting], error)
	ListForUser(ctx context.Context, email string) ([]models.Meeting, error)
	Respond(ctx context.Context, identity string, input RespondInput) (syncpkg.Outcome[models.Meeting], error)
	Reschedule(ctx context.Context, identity string, input RescheduleInput) (syncpkg.Outcome[models.Meeting], error)
	Subscribe(ctx context.Context, email string, fn func([]models.Meeting)) (func(), error)
}

// CreateInput carries a new meeting proposal from the organizer.
type CreateInput struct {
	OrganizerEmail   string `json:"organizerEmail" validate:"required,email"`
	OrganizerName    string `json:"organizerName" validate:"required"`
	ParticipantEmail string `json:"participantEmail" validate:"required,email"`
	ParticipantName  string `json:"participantName" validate:"required"`
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description"`
	Date             string `json:"date" validate:"required"`
	Time             string `json:"time" validate:"required"`
	DurationMinutes  int    `json:"durationMinutes" validate:"required,gt=0"`
	Location         string `json:"location" validate:"required"`
	LocationType     string `json:"locationType" validate:"required"`
	MeetingLink      string `json:"meetingLink"`
}

// RespondInput carries the participant's accept/decline decision.
type RespondInput struct {
	MeetingID string `json:"meetingId" validate:"required"`
	Accept    bool   `json:"accept"`
}

// RescheduleInput carries the organizer's new date/time proposal.
type RescheduleInput struct {
	MeetingID string `json:"meetingId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
}

type service struct {
	store *Store
	now   func() time.Time
}

// NewService wires meeting dependencies.
func NewService(store *Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "meeting store required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, identity string, input CreateInput) (syncpkg.Outcome[models.Meeting], error) {
	var zero syncpkg.Outcome[models.Meeting]
	if identity != input.OrganizerEmail {
		return zero, pkgerrors.New(pkgerrors.CodeForbidden, "only the organizer can create a meeting")
	}
	if input.OrganizerEmail == input.ParticipantEmail {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "cannot schedule a meeting with yourself")
	}
	if strings.TrimSpace(input.Title) == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.DurationMinutes <= 0 {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "duration must be positive")
	}
	locationType, err := enums.ParseLocationType(input.LocationType)
	if err != nil {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown location type")
	}

	now := s.now().UTC()
	meeting := models.Meeting{
		ID:               uuid.NewString(),
		OrganizerEmail:   input.OrganizerEmail,
		OrganizerName:    input.OrganizerName,
		ParticipantEmail: input.ParticipantEmail,
		ParticipantName:  input.ParticipantName,
		Title:            strings.TrimSpace(input.Title),
		Date:             input.Date,
		Time:             input.Time,
		DurationMinutes:  input.DurationMinutes,
		Location:         input.Location,
		LocationType:     locationType,
		Status:           enums.MeetingStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		meeting.Description = &desc
	}
	if link := strings.TrimSpace(input.MeetingLink); link != "" {
		meeting.MeetingLink = &link
	}
	return s.store.Save(ctx, meeting)
}

func (s *service) ListForUser(ctx context.Context, email string) ([]models.Meeting, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.ListForUser(ctx, email)
}

func (s *service) Respond(ctx context.Context, identity string, input RespondInput) (syncpkg.Outcome[models.Meeting], error) {
	var zero syncpkg.Outcome[models.Meeting]
	if input.MeetingID == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "meeting id required")
	}

	meeting, err := s.store.FindLocal(ctx, input.MeetingID)
	if err != nil {
		return zero, err
	}
	if meeting == nil {
		return zero, pkgerrors.New(pkgerrors.CodeNotFound, "meeting not found")
	}
	if meeting.ParticipantEmail != identity {
		return zero, pkgerrors.New(pkgerrors.CodeForbidden, "only the participant can respond")
	}
	if meeting.Status != enums.MeetingStatusPending {
		return zero, pkgerrors.New(pkgerrors.CodeStateConflict, "meeting already resolved")
	}

	if input.Accept {
		meeting.Status = enums.MeetingStatusAccepted
	} else {
		meeting.Status = enums.MeetingStatusDeclined
	}
	meeting.UpdatedAt = s.now().UTC()
	return s.store.Save(ctx, *meeting)
}

func (s *service) Reschedule(ctx context.Context, identity string, input RescheduleInput) (syncpkg.Outcome[models.Meeting], error) {
	var zero syncpkg.Outcome[models.Meeting]
	if input.MeetingID == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "meeting id required")
	}
	if strings.TrimSpace(input.Date) == "" || strings.TrimSpace(input.Time) == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "date and time required")
	}

	meeting, err := s.store.FindLocal(ctx, input.MeetingID)
	if err != nil {
		return zero, err
	}
	if meeting == nil {
		return zero, pkgerrors.New(pkgerrors.CodeNotFound, "meeting not found")
	}
	if meeting.OrganizerEmail != identity {
		return zero, pkgerrors.New(pkgerrors.CodeForbidden, "only the organizer can reschedule")
	}

	// A reschedule reopens the decision: the participant confirms anew.
	meeting.Date = input.Date
	meeting.Time = input.Time
	meeting.Status = enums.MeetingStatusPending
	meeting.UpdatedAt = s.now().UTC()
	return s.store.Save(ctx, *meeting)
}

func (s *service) Subscribe(ctx context.Context, email string, fn func([]models.Meeting)) (func(), error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.Subscribe(ctx, email, fn)
}
