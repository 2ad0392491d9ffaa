package connections

import (
	"context"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
)

type fakeRequests struct {
	accepted []models.MentorshipRequest
	err      error
}

func (f *fakeRequests) ListAccepted(ctx context.Context, email string) ([]models.MentorshipRequest, error) {
	return f.accepted, f.err
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
}

func (f *fakeProfiles) LookupLocal(ctx context.Context, email string) (*models.Profile, error) {
	return f.profiles[email], nil
}

func acceptedRequest(requester, mentor, mentorName string) models.MentorshipRequest {
	responded := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return models.MentorshipRequest{
		ID:             "req-" + requester + "-" + mentor,
		RequesterEmail: requester,
		RequesterName:  "Requester",
		MentorEmail:    mentor,
		MentorName:     mentorName,
		Note:           "hi",
		Status:         enums.RequestStatusAccepted,
		CreatedAt:      responded.Add(-time.Hour),
		RespondedAt:    &responded,
	}
}

func TestGetAcceptedPlacesRequesterUnderMentors(t *testing.T) {
	requests := &fakeRequests{accepted: []models.MentorshipRequest{
		acceptedRequest("me@x.com", "mentor@x.com", "Mentor B"),
	}}
	svc, err := NewService(requests, &fakeProfiles{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.GetAccepted(context.Background(), "me@x.com")
	if err != nil {
		t.Fatalf("get accepted: %v", err)
	}
	if len(got.Mentors) != 1 || len(got.Mentees) != 0 {
		t.Fatalf("expected 1 mentor / 0 mentees, got %d/%d", len(got.Mentors), len(got.Mentees))
	}
	if got.Mentors[0].Email != "mentor@x.com" || got.Mentors[0].Name != "Mentor B" {
		t.Fatalf("unexpected mentor %+v", got.Mentors[0])
	}
}

func TestGetAcceptedPlacesMentorUnderMentees(t *testing.T) {
	requests := &fakeRequests{accepted: []models.MentorshipRequest{
		acceptedRequest("mentee@x.com", "me@x.com", "Me"),
	}}
	svc, err := NewService(requests, &fakeProfiles{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.GetAccepted(context.Background(), "me@x.com")
	if err != nil {
		t.Fatalf("get accepted: %v", err)
	}
	if len(got.Mentees) != 1 || len(got.Mentors) != 0 {
		t.Fatalf("expected 1 mentee / 0 mentors, got %d/%d", len(got.Mentees), len(got.Mentors))
	}
	if got.Mentees[0].Email != "mentee@x.com" {
		t.Fatalf("unexpected mentee %+v", got.Mentees[0])
	}
}

func TestGetAcceptedResolvesCounterpartProfile(t *testing.T) {
	requests := &fakeRequests{accepted: []models.MentorshipRequest{
		acceptedRequest("me@x.com", "mentor@x.com", "Old Name"),
	}}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"mentor@x.com": {Email: "mentor@x.com", Name: "Fresh Name", Expertise: "Go", PhoneNumber: "+1"},
	}}
	svc, err := NewService(requests, profiles)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.GetAccepted(context.Background(), "me@x.com")
	if err != nil {
		t.Fatalf("get accepted: %v", err)
	}
	mentor := got.Mentors[0]
	if mentor.Profile == nil || mentor.Profile.Expertise != "Go" {
		t.Fatalf("profile not resolved: %+v", mentor)
	}
	if mentor.Name != "Fresh Name" {
		t.Fatalf("expected profile name to win, got %q", mentor.Name)
	}
}

func TestGetAcceptedToleratesMissingProfiles(t *testing.T) {
	requests := &fakeRequests{accepted: []models.MentorshipRequest{
		acceptedRequest("me@x.com", "mentor@x.com", "Mentor B"),
	}}
	svc, err := NewService(requests, &fakeProfiles{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.GetAccepted(context.Background(), "me@x.com")
	if err != nil {
		t.Fatalf("get accepted: %v", err)
	}
	if got.Mentors[0].Profile != nil {
		t.Fatalf("expected nil profile, got %+v", got.Mentors[0].Profile)
	}
}

func TestGetAcceptedEmptySet(t *testing.T) {
	svc, err := NewService(&fakeRequests{}, &fakeProfiles{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.GetAccepted(context.Background(), "me@x.com")
	if err != nil {
		t.Fatalf("get accepted: %v", err)
	}
	if len(got.Mentors) != 0 || len(got.Mentees) != 0 {
		t.Fatalf("expected empty connections, got %+v", got)
	}
}
