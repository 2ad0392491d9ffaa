package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mentorhub/mentorhub-backend/api/middleware"
	"github.com/mentorhub/mentorhub-backend/internal/requests"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
)

type stubRequestService struct {
	outcome     syncpkg.Outcome[models.MentorshipRequest]
	categorized *requests.Categorized
	err         error

	createCalls []requests.CreateInput
}

func (s *stubRequestService) Create(ctx context.Context, input requests.CreateInput) (syncpkg.Outcome[models.MentorshipRequest], error) {
	s.createCalls = append(s.createCalls, input)
	return s.outcome, s.err
}

func (s *stubRequestService) Categorize(ctx context.Context, email string) (*requests.Categorized, error) {
	return s.categorized, s.err
}

func (s *stubRequestService) Respond(ctx context.Context, identity string, input requests.RespondInput) (syncpkg.Outcome[models.MentorshipRequest], error) {
	return s.outcome, s.err
}

func (s *stubRequestService) ListAccepted(ctx context.Context, email string) ([]models.MentorshipRequest, error) {
	return nil, s.err
}

func identityRequest(method, target string, body []byte, email string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := middleware.WithIdentity(req.Context(), "user-1", email, "Alex")
	return req.WithContext(ctx)
}

func TestRequestCreateRejectsForeignRequester(t *testing.T) {
	svc := &stubRequestService{}
	handler := RequestCreate(svc, nil)

	body := []byte(`{"requesterEmail":"other@example.com","requesterName":"Other","mentorEmail":"mentor@example.com","mentorName":"Mentor"}`)
	req := identityRequest(http.MethodPost, "/api/v1/requests", body, "me@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if len(svc.createCalls) != 0 {
		t.Fatal("expected service untouched on identity mismatch")
	}
}

func TestRequestCreateSuccess(t *testing.T) {
	svc := &stubRequestService{outcome: syncpkg.Synced(models.MentorshipRequest{ID: "req-1"})}
	handler := RequestCreate(svc, nil)

	body := []byte(`{"requesterEmail":"me@example.com","requesterName":"Me","mentorEmail":"mentor@example.com","mentorName":"Mentor","note":"please"}`)
	req := identityRequest(http.MethodPost, "/api/v1/requests", body, "me@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Local        models.MentorshipRequest `json:"local"`
			RemoteSynced bool                     `json:"remoteSynced"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Local.ID != "req-1" || !envelope.Data.RemoteSynced {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestRequestListReturnsBuckets(t *testing.T) {
	svc := &stubRequestService{categorized: &requests.Categorized{
		Incoming: []models.MentorshipRequest{{ID: "in-1"}},
		Outgoing: []models.MentorshipRequest{{ID: "out-1"}},
	}}
	handler := RequestList(svc, nil)

	req := identityRequest(http.MethodGet, "/api/v1/requests", nil, "me@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data requests.Categorized `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Incoming) != 1 || envelope.Data.Incoming[0].ID != "in-1" {
		t.Fatalf("unexpected incoming bucket: %+v", envelope.Data.Incoming)
	}
}

func TestRequestRespondInvalidPayload(t *testing.T) {
	handler := RequestRespond(&stubRequestService{}, nil)

	req := identityRequest(http.MethodPost, "/api/v1/requests/respond", []byte(`{"accept":true}`), "mentor@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
