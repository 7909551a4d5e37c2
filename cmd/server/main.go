package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"maru/internal/cleanup"
	"maru/internal/config"
	"maru/internal/database/boltstore"
	"maru/internal/database/sqlitestore"
	"maru/internal/handlers"
	"maru/internal/market"
	"maru/internal/metrics"
	"maru/internal/moderation"
	"maru/internal/routing"
	"maru/internal/tracing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Logging)
	log.Info().Msg("Starting Maru marketplace moderation service")

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(ctx, cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Tracer shutdown failed")
			}
		}()
		log.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("Tracing initialized")
	}

	// Open the configured storage backend
	var (
		listingStore market.ListingStore
		wantedStore  market.WantedStore
		auditStore   moderation.AuditStore
	)
	switch cfg.Database.Backend {
	case "sqlite":
		db, err := sqlitestore.Open(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Database.SQLitePath).Msg("Failed to open database")
		}
		defer db.Close()
		listingStore = sqlitestore.NewListingStore(db)
		wantedStore = sqlitestore.NewWantedStore(db)
		auditStore = sqlitestore.NewAuditStore(db)
		log.Info().Str("backend", "sqlite").Str("path", cfg.Database.SQLitePath).Msg("Database opened")
	default:
		store, err := boltstore.Open(boltstore.Options{Path: cfg.Database.BoltPath})
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Database.BoltPath).Msg("Failed to open database")
		}
		defer store.Close()
		listingStore = store.ListingStore()
		wantedStore = store.WantedStore()
		auditStore = store.AuditStore()
		log.Info().Str("backend", "bolt").Str("path", cfg.Database.BoltPath).Msg("Database opened")
	}

	// The system actor must pass authorization for automatic actions, so it
	// joins the allow-list alongside the configured administrators.
	systemActor := cfg.Moderation.SystemActor
	if systemActor == "" {
		systemActor = moderation.DefaultSystemActor
	}
	auth := moderation.NewAllowList(append(cfg.Moderation.Admins, systemActor)...)
	filter := moderation.NewKeywordFilter(cfg.Moderation.BannedWords...)

	listingEngine := moderation.NewEngine(moderation.TargetListing, listingStore, auditStore, filter, auth)
	wantedEngine := moderation.NewEngine(moderation.TargetWanted, wantedStore, auditStore, filter, auth)

	listingService := market.NewListingService(listingStore, listingEngine, auth, systemActor)
	wantedService := market.NewWantedService(wantedStore, wantedEngine, auth, systemActor)

	log.Info().
		Strs("admins", cfg.Moderation.Admins).
		Int("banned_words", len(cfg.Moderation.BannedWords)).
		Msg("Moderation engines initialized")

	// Retention scheduler
	retention := cleanup.NewService(auditStore)
	if cfg.Retention.Enabled {
		err := retention.Start(cfg.Retention.Schedule, cleanup.Options{
			RetentionDays: cfg.Retention.Days,
			DryRun:        cfg.Retention.DryRun,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start retention scheduler")
		}
		defer retention.Stop()
	}

	// Background gauge collector for the metrics endpoint
	collectorCtx, cancelCollector := context.WithCancel(ctx)
	defer cancelCollector()
	metrics.StartCollector(collectorCtx, metrics.StatsSource{
		ListingCount: func() int {
			listings, err := listingStore.List(collectorCtx)
			if err != nil {
				return 0
			}
			return len(listings)
		},
		WantedCount: func() int {
			items, err := wantedStore.List(collectorCtx)
			if err != nil {
				return 0
			}
			return len(items)
		},
		BlockedListingCount: func() int {
			listings, err := listingStore.List(collectorCtx)
			if err != nil {
				return 0
			}
			blocked := 0
			for _, l := range listings {
				if l.IsBlocked() {
					blocked++
				}
			}
			return blocked
		},
		AuditEntryCount: func() int {
			entries, err := auditStore.All(collectorCtx)
			if err != nil {
				return 0
			}
			return len(entries)
		},
	}, 30*time.Second)

	h := handlers.NewHandler(listingService, wantedService, listingEngine, wantedEngine, auditStore, auth)

	handler := routing.SetupRouter(routing.Config{
		Handlers: h,
		Logger:   log.Logger,
	})

	addr := cfg.Server.Addr()
	log.Info().Str("address", addr).Msg("Starting HTTP server")

	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	switch cfg.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// JSON logs for production, pretty console logs otherwise
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
