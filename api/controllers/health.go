package controllers

import (
	"net/http"

	"github.com/mentorhub/mentorhub-backend/api/responses"
	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MentorHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the wired dependencies. A nil pinger means the dependency
// is disabled for this deployment and does not block readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, remote db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MentorHub-Env", cfg.App.Env)

		checks := map[string]string{}
		if remote != nil {
			if err := remote.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote store unavailable"))
				return
			}
			checks["remoteStore"] = "ok"
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = "ok"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
