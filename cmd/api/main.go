package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/cache"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/integrator/graph/graphclient"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/migration"
	"github.com/vfg2006/ads-dashboard-api/infrastructure/repository"
	"github.com/vfg2006/ads-dashboard-api/internal/api"
	"github.com/vfg2006/ads-dashboard-api/internal/config"
	"github.com/vfg2006/ads-dashboard-api/internal/realtime"
	"github.com/vfg2006/ads-dashboard-api/internal/scheduler"
	"github.com/vfg2006/ads-dashboard-api/internal/syncer"
	"github.com/vfg2006/ads-dashboard-api/internal/webhooks"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level %q, falling back to info", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	if err := migration.Run(ctx, pgConn); err != nil {
		logrus.WithError(err).Fatal("Failed to apply database schema")
	}

	accountRepo := repository.NewAccountRepository(pgConn)
	campaignRepo := repository.NewCampaignRepository(pgConn)
	insightRepo := repository.NewInsightRepository(pgConn)

	store, err := cache.NewBadgerCache(cfg.Cache)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open the cache store")
	}
	defer store.Close()

	domainCache := cache.NewDomainCache(store, cfg.Cache)

	graphClient := graphclient.NewClient(cfg)

	var broadcaster realtime.Broadcaster = realtime.NewLogBroadcaster()
	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub()
		broadcaster = hub
	}

	engine := syncer.NewEngine(
		graphClient,
		accountRepo,
		campaignRepo,
		insightRepo,
		domainCache,
		broadcaster,
		cfg.SyncJobs,
	)

	processor := webhooks.NewProcessor(cfg.Webhook, engine, domainCache, campaignRepo)

	syncJobs := scheduler.NewSyncJobService(engine, cfg.SyncJobs)
	if err := syncJobs.Start(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start the sync scheduler")
	} else {
		logrus.Info("Sync scheduler started")
	}

	server, err := api.New(cfg, api.Dependencies{
		Conn:         pgConn,
		AccountRepo:  accountRepo,
		CampaignRepo: campaignRepo,
		InsightRepo:  insightRepo,
		DomainCache:  domainCache,
		GraphClient:  graphClient,
		Engine:       engine,
		Processor:    processor,
		SyncJobs:     syncJobs,
		RealtimeHub:  hub,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}

	if err := conn.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to ping PostgreSQL")
	}

	logrus.Info("PostgreSQL connection established")
	return conn
}
