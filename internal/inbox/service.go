package inbox

import (
	"context"
	"strings"

	syncpkg "github.com/mentorhub/mentorhub-backend/internal/sync"
	"github.com/mentorhub/mentorhub-backend/pkg/db/models"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
)

// Service defines member inbox operations.
type Service interface {
	List(ctx context.Context, email string, params pagination.Params) (*Page, error)
	MarkRead(ctx context.Context, identity, itemID string) (syncpkg.Outcome[models.InboxItem], error)
	UnreadCount(ctx context.Context, email string) int64
}

// Page is one cursor-delimited slice of a member's inbox.
type Page struct {
	Items      []models.InboxItem `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

type service struct {
	store *Store
}

// NewService wires inbox dependencies.
func NewService(store *Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inbox store required")
	}
	return &service{store: store}, nil
}

func (s *service) List(ctx context.Context, email string, params pagination.Params) (*Page, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	items, err := s.store.List(ctx, email, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	page.Items = items
	return page, nil
}

func (s *service) MarkRead(ctx context.Context, identity, itemID string) (syncpkg.Outcome[models.InboxItem], error) {
	var zero syncpkg.Outcome[models.InboxItem]
	if itemID == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "inbox item id required")
	}
	if strings.TrimSpace(identity) == "" {
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	return s.store.MarkRead(ctx, itemID, identity)
}

func (s *service) UnreadCount(ctx context.Context, email string) int64 {
	if strings.TrimSpace(email) == "" {
		return 0
	}
	return s.store.UnreadCount(ctx, email)
}
