package controllers

import (
	"net/http"

	"github.com/mentorhub/mentorhub-backend/api/middleware"
	"github.com/mentorhub/mentorhub-backend/api/responses"
	"github.com/mentorhub/mentorhub-backend/internal/connections"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
)

// ConnectionsList returns the caller's accepted mentors and mentees.
func ConnectionsList(svc connections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connections service unavailable"))
			return
		}

		result, err := svc.GetAccepted(r.Context(), middleware.EmailFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
