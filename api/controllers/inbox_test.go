package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mentorhub/mentorhub-backend/internal/inbox"
	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
)

type stubInboxService struct {
	page    *inbox.Page
	outcome syncpkg.Outcome[models.InboxItem]
	count   int64
	err     error

	listParams []pagination.Params
	marked     []string
}

func (s *stubInboxService) List(ctx context.Context, email string, params pagination.Params) (*inbox.Page, error) {
	s.listParams = append(s.listParams, params)
	return s.page, s.err
}

func (s *stubInboxService) MarkRead(ctx context.Context, identity, itemID string) (syncpkg.Outcome[models.InboxItem], error) {
	s.marked = append(s.marked, itemID)
	return s.outcome, s.err
}

func (s *stubInboxService) UnreadCount(ctx context.Context, email string) int64 {
	return s.count
}

func TestInboxListPassesCursorAndLimit(t *testing.T) {
	svc := &stubInboxService{page: &inbox.Page{
		Items:      []models.InboxItem{{ID: "item-1"}},
		NextCursor: "next",
	}}
	handler := InboxList(svc, nil)

	req := identityRequest(http.MethodGet, "/api/v1/inbox?limit=10&cursor=abc", nil, "me@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.listParams) != 1 {
		t.Fatalf("expected one list call, got %d", len(svc.listParams))
	}
	if svc.listParams[0].Limit != 10 || svc.listParams[0].Cursor != "abc" {
		t.Fatalf("unexpected params: %+v", svc.listParams[0])
	}

	var envelope struct {
		Data inbox.Page `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.NextCursor != "next" {
		t.Fatalf("expected next cursor in payload got %+v", envelope.Data)
	}
}

func TestInboxListRejectsOversizeLimit(t *testing.T) {
	handler := InboxList(&stubInboxService{}, nil)

	req := identityRequest(http.MethodGet, "/api/v1/inbox?limit=5000", nil, "me@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestInboxMarkReadUsesPathParam(t *testing.T) {
	svc := &stubInboxService{outcome: syncpkg.Synced(models.InboxItem{ID: "item-7", Read: true})}

	router := chi.NewRouter()
	router.Post("/api/v1/inbox/{itemId}/read", InboxMarkRead(svc, nil))

	req := identityRequest(http.MethodPost, "/api/v1/inbox/item-7/read", nil, "me@example.com")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.marked) != 1 || svc.marked[0] != "item-7" {
		t.Fatalf("expected mark on item-7, got %v", svc.marked)
	}
}

func TestInboxUnreadCountPayload(t *testing.T) {
	handler := InboxUnreadCount(&stubInboxService{count: 4}, nil)

	req := identityRequest(http.MethodGet, "/api/v1/inbox/unread-count", nil, "me@example.com")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["unreadCount"] != 4 {
		t.Fatalf("unexpected count payload: %+v", envelope.Data)
	}
}
