package connections

import (
	"context"
	"strings"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
)

// acceptedLister yields the accepted requests a user participates in.
type acceptedLister interface {
	ListAccepted(ctx context.Context, email string) ([]models.MentorshipRequest, error)
}

// profileResolver resolves counterpart profiles from the local caches.
type profileResolver interface {
	LookupLocal(ctx context.Context, email string) (*models.Profile, error)
}

// Service derives a user's mentorship connections from the accepted set.
type Service interface {
	GetAccepted(ctx context.Context, email string) (*Connections, error)
}

// Connection pairs an accepted request with the counterpart's profile, when
// one can be resolved. A missing profile is tolerated, not an error.
type Connection struct {
	Request models.MentorshipRequest `json:"request"`
	Email   string                   `json:"email"`
	Name    string                   `json:"name"`
	Profile *models.Profile          `json:"profile,omitempty"`
}

// Connections groups the user's mentors and mentees.
type Connections struct {
	Mentors []Connection `json:"mentors"`
	Mentees []Connection `json:"mentees"`
}

type service struct {
	requests acceptedLister
	profiles profileResolver
}

// NewService wires connection derivation dependencies.
func NewService(requests acceptedLister, profiles profileResolver) (Service, error) {
	if requests == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "request service required")
	}
	if profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile store required")
	}
	return &service{requests: requests, profiles: profiles}, nil
}

// GetAccepted places each accepted request by the caller's role: mentors are
// the people the caller asked; mentees are the people who asked the caller.
func (s *service) GetAccepted(ctx context.Context, email string) (*Connections, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	accepted, err := s.requests.ListAccepted(ctx, email)
	if err != nil {
		return nil, err
	}

	out := &Connections{}
	for _, request := range accepted {
		switch email {
		case request.RequesterEmail:
			out.Mentors = append(out.Mentors, s.connection(ctx, request, request.MentorEmail, request.MentorName))
		case request.MentorEmail:
			out.Mentees = append(out.Mentees, s.connection(ctx, request, request.RequesterEmail, request.RequesterName))
		}
	}
	return out, nil
}

func (s *service) connection(ctx context.Context, request models.MentorshipRequest, email, name string) Connection {
	conn := Connection{
		Request: request,
		Email:   email,
		Name:    name,
	}
	// Best-effort profile resolution; the connection stands without it.
	if profile, err := s.profiles.LookupLocal(ctx, email); err == nil && profile != nil {
		conn.Profile = profile
		if profile.Name != "" {
			conn.Name = profile.Name
		}
	}
	return conn
}
