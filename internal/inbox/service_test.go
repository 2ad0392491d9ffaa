package inbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	"github.com/mentorhub/mentorhub-backend/pkg/enums"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
	"github.com/rs/zerolog"
)

type fakeMirror struct {
	countUnreadFn func(ctx context.Context, email string) (int64, error)
}

func (f *fakeMirror) Upsert(ctx context.Context, item *models.InboxItem) error {
	return nil
}

func (f *fakeMirror) ListByRecipient(ctx context.Context, email string, cursor *pagination.Cursor, limit int) ([]models.InboxItem, error) {
	return nil, errors.New("not wired in this fake")
}

func (f *fakeMirror) MarkRead(ctx context.Context, id, recipientEmail string) (bool, error) {
	return true, nil
}

func (f *fakeMirror) CountUnread(ctx context.Context, email string) (int64, error) {
	if f.countUnreadFn != nil {
		return f.countUnreadFn(ctx, email)
	}
	return 0, nil
}

func newTestService(t *testing.T, mirror Mirror) (Service, *Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{
		ServiceName: "inbox-test",
		Level:       zerolog.DebugLevel,
		Output:      &buf,
	})
	local, err := localstore.Open(context.Background(), config.LocalStoreConfig{Path: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = local.Close() })

	store, err := NewStore(local, mirror, nil, nil, logg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store, &buf
}

func seedItems(t *testing.T, store *Store, email string, n int) []models.InboxItem {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	items := make([]models.InboxItem, 0, n)
	for i := 0; i < n; i++ {
		item := models.InboxItem{
			ID:             fmt.Sprintf("item-%02d", i),
			RecipientEmail: email,
			Type:           enums.InboxItemTypeNotification,
			Title:          fmt.Sprintf("Title %d", i),
			Message:        "hello",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := store.Deliver(context.Background(), item); err != nil {
			t.Fatalf("deliver: %v", err)
		}
		items = append(items, item)
	}
	return items
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	seedItems(t, store, "user@x.com", 5)
	ctx := context.Background()

	first, err := svc.List(ctx, "user@x.com", pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first.Items))
	}
	if first.Items[0].ID != "item-04" || first.Items[1].ID != "item-03" {
		t.Fatalf("expected newest first, got %s, %s", first.Items[0].ID, first.Items[1].ID)
	}
	if first.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	second, err := svc.List(ctx, "user@x.com", pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 2 || second.Items[0].ID != "item-02" {
		t.Fatalf("unexpected second page: %+v", second.Items)
	}

	third, err := svc.List(ctx, "user@x.com", pagination.Params{Limit: 2, Cursor: second.NextCursor})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(third.Items) != 1 || third.NextCursor != "" {
		t.Fatalf("expected final page of 1 with no cursor, got %d items cursor=%q", len(third.Items), third.NextCursor)
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	_, err := svc.List(context.Background(), "user@x.com", pagination.Params{Cursor: "not-base64!!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadFlipsOwnItemOnly(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	items := seedItems(t, store, "user@x.com", 1)
	ctx := context.Background()

	if _, err := svc.MarkRead(ctx, "other@x.com", items[0].ID); err == nil {
		t.Fatal("expected rejection for a foreign item")
	}

	outcome, err := svc.MarkRead(ctx, "user@x.com", items[0].ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !outcome.Local.Read {
		t.Fatal("expected read flag to flip")
	}
}

func TestUnreadCountLocal(t *testing.T) {
	svc, store, _ := newTestService(t, nil)
	items := seedItems(t, store, "user@x.com", 3)
	seedItems(t, store, "other@x.com", 2)
	ctx := context.Background()

	if got := svc.UnreadCount(ctx, "user@x.com"); got != 3 {
		t.Fatalf("expected 3 unread, got %d", got)
	}
	if _, err := svc.MarkRead(ctx, "user@x.com", items[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got := svc.UnreadCount(ctx, "user@x.com"); got != 2 {
		t.Fatalf("expected 2 unread after read, got %d", got)
	}
}

func TestUnreadCountFailsSoft(t *testing.T) {
	mirror := &fakeMirror{
		countUnreadFn: func(ctx context.Context, email string) (int64, error) {
			return 0, errors.New("remote unavailable")
		},
	}
	svc, store, buf := newTestService(t, mirror)
	seedItems(t, store, "user@x.com", 2)
	buf.Reset()

	// Remote count fails; the local cache still answers.
	if got := svc.UnreadCount(context.Background(), "user@x.com"); got != 2 {
		t.Fatalf("expected local fallback count of 2, got %d", got)
	}
	if got := strings.Count(buf.String(), "\"level\":\"warn\""); got != 1 {
		t.Fatalf("expected exactly 1 warning, got %d", got)
	}
}
