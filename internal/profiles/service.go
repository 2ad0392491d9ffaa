package profiles

import (
	"context"
	"strings"
	"time"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
)

// Service defines profile lifecycle operations.
type Service interface {
	Create(ctx context.Context, identity string, input ProfileInput) (syncpkg.Outcome[models.Profile], error)
	Update(ctx context.Context, identity string, input ProfileInput) (syncpkg.Outcome[models.Profile], error)
	Get(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Delete(ctx context.Context, identity, email string) (syncpkg.Outcome[string], error)
}

// ProfileInput carries the writable profile fields.
type ProfileInput struct {
	Email          string  `json:"email" validate:"required,contains=@"`
	Name           string  `json:"name" validate:"required"`
	Expertise      string  `json:"expertise" validate:"required"`
	ExpertiseYears float64 `json:"expertiseYears" validate:"gte=0"`
	Interest       string  `json:"interest" validate:"required"`
	InterestYears  float64 `json:"interestYears" validate:"gte=0"`
	PhoneNumber    string  `json:"phoneNumber" validate:"required"`
	Location       *string `json:"location,omitempty"`
}

type service struct {
	store *Store
	now   func() time.Time
}

// NewService wires profile dependencies.
func NewService(store *Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile store required")
	}
	return &service{store: store, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, identity string, input ProfileInput) (syncpkg.Outcome[models.Profile], error) {
	profile, err := buildProfile(input)
	if err != nil {
		return syncpkg.Outcome[models.Profile]{}, err
	}
	now := s.now().UTC()
	profile.CreatedAt = &now
	profile.UpdatedAt = &now
	return s.store.Save(ctx, identity, profile)
}

func (s *service) Update(ctx context.Context, identity string, input ProfileInput) (syncpkg.Outcome[models.Profile], error) {
	profile, err := buildProfile(input)
	if err != nil {
		return syncpkg.Outcome[models.Profile]{}, err
	}

	existing, err := s.store.Get(ctx, profile.Email)
	if err != nil {
		return syncpkg.Outcome[models.Profile]{}, err
	}
	if existing == nil {
		return syncpkg.Outcome[models.Profile]{}, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}

	profile.CreatedAt = existing.CreatedAt
	now := s.now().UTC()
	profile.UpdatedAt = &now
	return s.store.Save(ctx, identity, profile)
}

func (s *service) Get(ctx context.Context, email string) (*models.Profile, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.Get(ctx, email)
}

func (s *service) List(ctx context.Context) ([]models.Profile, error) {
	return s.store.List(ctx)
}

func (s *service) Delete(ctx context.Context, identity, email string) (syncpkg.Outcome[string], error) {
	if strings.TrimSpace(email) == "" {
		return syncpkg.Outcome[string]{}, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.Delete(ctx, identity, email)
}

func buildProfile(input ProfileInput) (models.Profile, error) {
	var zero models.Profile
	if strings.TrimSpace(input.Name) == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !strings.Contains(input.Email, "@") {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "email must contain @")
	}
	if input.Expertise == "" || input.Interest == "" || input.PhoneNumber == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "expertise, interest and phone number required")
	}
	if input.ExpertiseYears < 0 || input.InterestYears < 0 {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "years must be >= 0")
	}
	return models.Profile{
		Email:          input.Email,
		Name:           strings.TrimSpace(input.Name),
		Expertise:      input.Expertise,
		ExpertiseYears: input.ExpertiseYears,
		Interest:       input.Interest,
		InterestYears:  input.InterestYears,
		PhoneNumber:    input.PhoneNumber,
		Location:       input.Location,
	}, nil
}
