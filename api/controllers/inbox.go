package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mentorhub/mentorhub-backend/api/middleware"
	"github.com/mentorhub/mentorhub-backend/api/responses"
	"github.com/mentorhub/mentorhub-backend/api/validators"
	"github.com/mentorhub/mentorhub-backend/internal/inbox"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/pagination"
)

// InboxList returns one cursor-delimited page of the caller's inbox.
func InboxList(svc inbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor", ""),
		}

		page, err := svc.List(r.Context(), middleware.EmailFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// InboxMarkRead flips one of the caller's inbox items to read.
func InboxMarkRead(svc inbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox service unavailable"))
			return
		}

		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		outcome, err := svc.MarkRead(r.Context(), middleware.EmailFromContext(r.Context()), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

// InboxUnreadCount reports the caller's unread inbox items, best effort.
func InboxUnreadCount(svc inbox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inbox service unavailable"))
			return
		}

		count := svc.UnreadCount(r.Context(), middleware.EmailFromContext(r.Context()))
		responses.WriteSuccess(w, map[string]int64{"unreadCount": count})
	}
}
