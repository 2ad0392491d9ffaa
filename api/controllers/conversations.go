package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mentorhub/mentorhub-backend/api/middleware"
	"github.com/mentorhub/mentorhub-backend/api/responses"
	"github.com/mentorhub/mentorhub-backend/api/validators"
	"github.com/mentorhub/mentorhub-backend/internal/messaging"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
)

// MessageSend posts one chat message from the caller.
func MessageSend(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		var body messaging.SendInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.EmailFromContext(r.Context())
		if identity != "" && body.SenderEmail != identity {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "messages can only be sent as yourself"))
			return
		}

		outcome, err := svc.Send(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}

// ConversationList returns the caller's conversation summaries.
func ConversationList(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		list, err := svc.ListConversations(r.Context(), middleware.EmailFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// MessageList returns the messages in one conversation, oldest first.
func MessageList(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		conversationID := strings.TrimSpace(chi.URLParam(r, "conversationId"))
		if conversationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "conversation id is required"))
			return
		}

		list, err := svc.ListMessages(r.Context(), conversationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ConversationMarkRead clears the caller's unread counter on one conversation.
func ConversationMarkRead(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		conversationID := strings.TrimSpace(chi.URLParam(r, "conversationId"))
		if conversationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "conversation id is required"))
			return
		}

		outcome, err := svc.MarkRead(r.Context(), conversationID, middleware.EmailFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

// MessageUnreadCount reports the caller's total unread messages. The count is
// best effort and reads zero when neither store can answer.
func MessageUnreadCount(svc messaging.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging service unavailable"))
			return
		}

		count := svc.UnreadCount(r.Context(), middleware.EmailFromContext(r.Context()))
		responses.WriteSuccess(w, map[string]int64{"unreadCount": count})
	}
}
