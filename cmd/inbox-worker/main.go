package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/mentorhub/mentorhub-backend/internal/inbox"
	"github.com/mentorhub/mentorhub-backend/pkg/config"
	"github.com/mentorhub/mentorhub-backend/pkg/db"
	"github.com/mentorhub/mentorhub-backend/pkg/instance"
	"github.com/mentorhub/mentorhub-backend/pkg/localstore"
	"github.com/mentorhub/mentorhub-backend/pkg/logger"
	"github.com/mentorhub/mentorhub-backend/pkg/metrics"
	"github.com/mentorhub/mentorhub-backend/pkg/pubsub"
	"github.com/mentorhub/mentorhub-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "inbox-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "inbox-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	local, err := localstore.Open(ctx, cfg.LocalStore, logg)
	requireResource(ctx, logg, "local store", err)
	defer local.Close()

	var inboxMirror inbox.Mirror
	if cfg.RemoteDB.Enabled() {
		dbClient, err := db.New(ctx, cfg.RemoteDB, logg)
		requireResource(ctx, logg, "database", err)
		defer dbClient.Close()
		inboxMirror = inbox.NewRepository(dbClient.DB())
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	syncMetrics := metrics.NewSyncMetrics(prometheus.NewRegistry())

	inboxStore, err := inbox.NewStore(local, inboxMirror, redisClient, syncMetrics, logg)
	requireResource(ctx, logg, "inbox store", err)

	consumer, err := inbox.NewConsumer(
		inboxStore,
		pubsubClient.InviteSubscription(),
		redisClient,
		cfg.Eventing.InboxIdempotencyTTL,
		logg,
	)
	requireResource(ctx, logg, "inbox consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"instance":     instance.GetID(),
		"subscription": cfg.PubSub.InviteSubscription,
	})
	logg.Info(runCtx, "inbox worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "inbox worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
