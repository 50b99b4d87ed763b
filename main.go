package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/auth"
	"lankasafe-hq/config"
	"lankasafe-hq/cronjobs"
	"lankasafe-hq/db"
	"lankasafe-hq/districts"
	"lankasafe-hq/geocode"
	"lankasafe-hq/handlers"
	"lankasafe-hq/live"
	"lankasafe-hq/logger"
	"lankasafe-hq/notify"
	"lankasafe-hq/presence"
	"lankasafe-hq/routes"
)

const devAdminPassword = "lankasafe-dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store
	var store db.RecordStore
	switch cfg.StoreDriver {
	case config.DriverMemory:
		m := db.NewMemoryStore()
		db.Seed(m, time.Now())
		store = m
		zlog.Warn("using in-memory store with demo data")
	default:
		fs, err := db.NewFirestoreStore(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize Firestore", zap.Error(err))
		}
		store = fs
	}
	defer store.Close()

	gaz := districts.Default()
	zlog.Info("district table loaded", zap.Int("version", gaz.Version()), zap.Int("districts", len(gaz.Names())))

	// Live snapshots, pushed to dashboards over the hub
	hub := live.NewHub(cfg.ClientURL, zlog)
	go hub.Run(ctx)
	feed := live.NewFeed(store, hub, zlog)
	feed.Start(ctx)
	defer feed.Close()

	// Notifications
	relay, err := notify.NewRelay(cfg.RelayConfig())
	if err != nil {
		zlog.Fatal("Failed to configure notification relay", zap.Error(err))
	}
	router := &notify.Router{
		Districts: gaz,
		Domain:    cfg.OfficerEmailDomain,
		Relay:     relay,
		Location:  cfg.Location,
		Log:       zlog,
	}
	if cfg.NotifyCooldown > 0 {
		cd := notify.NewRedisCooldown(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.NotifyCooldown)
		defer cd.Close()
		router.Cooldown = cd
	}

	// Staff sessions
	sessions, err := auth.NewSessionManager(cfg.SessionKey, cfg.SessionName, cfg.SessionSecure, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize sessions", zap.Error(err))
	}
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		// memory driver only; Validate requires a hash for Firestore
		hash, err = auth.HashPassword(devAdminPassword)
		if err != nil {
			zlog.Fatal("Failed to hash dev password", zap.Error(err))
		}
		zlog.Warn("ADMIN_PASSWORD_HASH not set; using the development password", zap.String("username", cfg.AdminUsername))
	}

	var geocoder geocode.Geocoder
	if cfg.MapsAPIKey != "" {
		g, err := geocode.NewMapsGeocoder(cfg.MapsAPIKey)
		if err != nil {
			zlog.Fatal("Failed to create maps client", zap.Error(err))
		}
		geocoder = g
	}

	checks := &presence.Service{Store: store, Log: zlog}

	// Cron jobs
	c, err := cronjobs.Start(&cronjobs.Jobs{
		Checks:    checks,
		Feed:      feed,
		Districts: gaz,
		Log:       zlog,
	}, cronjobs.Schedules{Sweep: cfg.SweepSchedule, Digest: cfg.DigestSchedule})
	if err != nil {
		zlog.Fatal("Failed to schedule cron jobs", zap.Error(err))
	}
	defer c.Stop()

	h := &handlers.Handlers{
		Feed:      feed,
		Hub:       hub,
		Records:   db.NewRecords(store, zlog),
		Router:    router,
		Districts: gaz,
		Presence:  checks,
		Geocoder:  geocoder,
		Auth:      auth.StaticAuthenticator{Username: cfg.AdminUsername, PasswordHash: hash},
		Sessions:  sessions,
		Location:  cfg.Location,
		Log:       zlog,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("HQ server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
}
