package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentorhub/mentorhub-backend/api/controllers"
	"github.com/mentorhub/mentorhub-backend/api/middleware"
	"github.com/mentorhub/mentorhub-backend/internal/auth"
	"github.com/mentorhub/mentorhub-backend/internal/connections"
	"github.com/mentorhub/mentorhub-backend/internal/inbox"
	"github.com/mentorhub/mentorhub-backend/internal/invites"
	"github.com/mentorhub/mentorhub-backend/internal/meetings"
	"github.com/mentorhub/mentorhub-backend/internal/messaging"
	"github.com/mentorhub/mentorhub-backend/internal/profiles"
	"github.com/mentorhub/mentorhub-backend/internal/requests"
	"github.com/mentorhub/mentorhub-backend/pkg/auth/session"
	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/redis"
)

// Services bundles everything the router mounts. Nil entries disable their
// routes gracefully via the controllers' own guards.
type Services struct {
	Auth        auth.Service
	Profiles    profiles.Service
	Requests    requests.Service
	Connections connections.Service
	Messaging   messaging.Service
	Meetings    meetings.Service
	Invites     invites.Service
	Inbox       inbox.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	metricsRegistry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", controllers.ProfileCreate(svcs.Profiles, logg))
			r.Put("/", controllers.ProfileUpdate(svcs.Profiles, logg))
			r.Get("/", controllers.ProfileList(svcs.Profiles, logg))
			r.Get("/{email}", controllers.ProfileGet(svcs.Profiles, logg))
			r.Delete("/{email}", controllers.ProfileDelete(svcs.Profiles, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(svcs.Requests, logg))
			r.Get("/", controllers.RequestList(svcs.Requests, logg))
			r.Post("/respond", controllers.RequestRespond(svcs.Requests, logg))
		})

		r.Get("/connections", controllers.ConnectionsList(svcs.Connections, logg))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", controllers.ConversationList(svcs.Messaging, logg))
			r.Post("/messages", controllers.MessageSend(svcs.Messaging, logg))
			r.Get("/unread-count", controllers.MessageUnreadCount(svcs.Messaging, logg))
			r.Get("/{conversationId}/messages", controllers.MessageList(svcs.Messaging, logg))
			r.Post("/{conversationId}/read", controllers.ConversationMarkRead(svcs.Messaging, logg))
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", controllers.MeetingCreate(svcs.Meetings, logg))
			r.Get("/", controllers.MeetingList(svcs.Meetings, logg))
			r.Post("/respond", controllers.MeetingRespond(svcs.Meetings, logg))
			r.Post("/reschedule", controllers.MeetingReschedule(svcs.Meetings, logg))
		})

		r.Route("/invites", func(r chi.Router) {
			r.Post("/", controllers.InviteIssue(svcs.Invites, logg))
			r.Get("/", controllers.InviteList(svcs.Invites, logg))
			r.Post("/redeem", controllers.InviteRedeem(svcs.Invites, logg))
		})

		r.Route("/inbox", func(r chi.Router) {
			r.Get("/", controllers.InboxList(svcs.Inbox, logg))
			r.Get("/unread-count", controllers.InboxUnreadCount(svcs.Inbox, logg))
			r.Post("/{itemId}/read", controllers.InboxMarkRead(svcs.Inbox, logg))
		})
	})

	return r
}
