package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/modules/billing"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/modules/usage"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/config"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/entitlement"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/httpserver"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/logger"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/mongo"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/redis"
	"github.com/alvesoscar517-cloud/Quick-Notes-Note-Taking-sub000/pkg/requestid"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"quicknotes-entitlements"`
}

func main() {
	ctx := context.Background()

	var (
		appCfg     appConfig
		mongoCfg   mongo.Config
		redisCfg   redis.Config
		httpCfg    httpserver.Config
		billingCfg billing.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&billingCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Environment, appCfg.ServiceName),
		logger.WithContextValue("request_id", requestid.ContextKey),
	)
	logger.SetAsDefault(log)

	db, err := mongo.NewWithDatabase(ctx, mongoCfg, mongoCfg.Database)
	if err != nil {
		log.Error("mongo connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	store := entitlement.NewMongoStore(db)

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("redis connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	dedup := billing.NewRedisDeduplicator(redisClient, billingCfg.DedupTTL, log)

	machine := billing.NewStateMachine(store, log)
	refunds := billing.NewRefundEnforcer(store, log)
	dispatcher := billing.NewDispatcher(store, machine, refunds, dedup, log)
	webhookHandler := billing.NewHandler(billingCfg.WebhookSecret, dispatcher, log)

	tracker := usage.NewTracker(store, log)
	usageHandler := usage.NewHandler(tracker, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(chimw.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(log,
		mongo.Healthcheck(db.Client()),
		redis.Healthcheck(redisClient),
	))
	r.Mount("/billing", billing.Router(webhookHandler))
	r.Mount("/usage", usage.Router(usageHandler))

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}
