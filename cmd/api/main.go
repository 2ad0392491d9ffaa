package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mentorhub/mentorhub-backend/api/routes"
	"github.com/mentorhub/mentorhub-backend/internal/auth"
	"github.com/mentorhub/mentorhub-backend/internal/connections"
	"github.com/mentorhub/mentorhub-backend/internal/inbox"
	"github.com/mentorhub/mentorhub-backend/internal/invites"
	"github.com/mentorhub/mentorhub-backend/internal/meetings"
	"github.com/mentorhub/mentorhub-backend/internal/messaging"
	"github.com/mentorhub/mentorhub-backend/internal/profiles"
	"github.com/mentorhub/mentorhub-backend/internal/requests"
	"github.com/mentorhub/mentorhub-backend/internal/users"
	"github.com/mentorhub/mentorhub-backend/pkg/auth/session"
	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
	"github.com/mentorhub/mentorhub-backend/pkg/migrate"
	"github.com/mentorhub/mentorhub-backend/pkg/pubsub"
	"github.com/mentorhub/mentorhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	local, err := localstore.Open(ctx, cfg.LocalStore, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}
	defer func() {
		if err := local.Close(); err != nil {
			logg.Error(ctx, "error closing local store", err)
		}
	}()

	// The remote mirror is optional. Without a DSN every store runs
	// local-only and writes report remoteSynced=false.
	var dbClient *db.Client
	if cfg.RemoteDB.Enabled() {
		dbClient, err = db.New(ctx, cfg.RemoteDB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap remote store", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(ctx, "error closing remote store", err)
			}
		}()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub", err)
			}
		}()
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	svcs, err := buildServices(cfg, logg, local, dbClient, redisClient, pubsubClient, sessionManager, syncMetrics)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	var dbPinger db.Pinger
	if dbClient != nil {
		dbPinger = dbClient
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbPinger, redisClient, sessionManager, registry, svcs),
	}

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"remote_mirror": dbClient != nil,
	})
	logg.Info(runCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(runCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "error during shutdown", err)
		}
	}
}

// buildServices wires every store, mirror, and service. dbClient and
// pubsubClient may be nil; the affected components degrade to local-only.
func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	local *localstore.Store,
	dbClient *db.Client,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	sessionManager *session.Manager,
	syncMetrics *metrics.SyncMetrics,
) (routes.Services, error) {
	var (
		profileMirror   profiles.Mirror
		requestMirror   requests.Mirror
		messagingMirror messaging.Mirror
		meetingMirror   meetings.Mirror
		inviteMirror    invites.Mirror
		inboxMirror     inbox.Mirror
		userMirror      users.Mirror
	)
	if dbClient != nil {
		gdb := dbClient.DB()
		profileMirror = profiles.NewRepository(gdb)
		requestMirror = requests.NewRepository(gdb)
		messagingMirror = messaging.NewRepository(gdb)
		meetingMirror = meetings.NewRepository(gdb)
		inviteMirror = invites.NewRepository(gdb)
		inboxMirror = inbox.NewRepository(gdb)
		userMirror = users.NewRepository(gdb)
	}

	profileStore, err := profiles.NewStore(local, profileMirror, redisClient, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	requestStore, err := requests.NewStore(local, requestMirror, redisClient, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	messagingStore, err := messaging.NewStore(local, messagingMirror, redisClient, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	meetingStore, err := meetings.NewStore(local, meetingMirror, redisClient, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	inviteStore, err := invites.NewStore(local, inviteMirror, redisClient, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	inboxStore, err := inbox.NewStore(local, inboxMirror, redisClient, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	userStore, err := users.NewStore(local, userMirror, syncMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(userStore, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	profileService, err := profiles.NewService(profileStore)
	if err != nil {
		return routes.Services{}, err
	}
	requestService, err := requests.NewService(requestStore)
	if err != nil {
		return routes.Services{}, err
	}
	connectionService, err := connections.NewService(requestService, profileStore)
	if err != nil {
		return routes.Services{}, err
	}
	messagingService, err := messaging.NewService(messagingStore)
	if err != nil {
		return routes.Services{}, err
	}
	meetingService, err := meetings.NewService(meetingStore)
	if err != nil {
		return routes.Services{}, err
	}

	var invitePublisher invites.EventPublisher
	if pubsubClient != nil {
		invitePublisher = pubsubClient
	}
	inviteService, err := invites.NewService(inviteStore, invitePublisher, logg)
	if err != nil {
		return routes.Services{}, err
	}
	inboxService, err := inbox.NewService(inboxStore)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:        authService,
		Profiles:    profileService,
		Requests:    requestService,
		Connections: connectionService,
		Messaging:   messagingService,
		Meetings:    meetingService,
		Invites:     inviteService,
		Inbox:       inboxService,
	}, nil
}
