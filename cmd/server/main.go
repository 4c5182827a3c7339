/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the personnel engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment, flag overrides)
  2. Configure logging
  3. Initialize SQLite store, seed the first admin account if needed
  4. Start the websocket hub and the entitlement scheduler
  5. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DATABASE_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for an in-flight pass)
  2. Stop accepting new connections, drain active requests (30s timeout)
  3. Close websocket connections and the database

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Entitlement sweep driver
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/personnel-engine/api"
	"github.com/warp/personnel-engine/config"
	"github.com/warp/personnel-engine/entitlement"
	"github.com/warp/personnel-engine/hr"
	"github.com/warp/personnel-engine/logging"
	"github.com/warp/personnel-engine/store/sqlite"
)

func main() {
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DATABASE_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	logging.Init(cfg.LogLevel, cfg.Environment)
	log := logrus.StandardLogger()

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := seedAdmin(context.Background(), store, cfg); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	hub := api.NewHub()
	go hub.Run()

	sweeper := entitlement.NewSweeper(store, store, store)
	sweeper.Announcer = hub

	scheduler := api.NewEntitlementScheduler(store, sweeper)
	scheduler.InitialDelay = cfg.SweepInitialDelay
	scheduler.Interval = cfg.SweepInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	tokens := api.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	router := api.NewRouter(api.NewServer(store, tokens, hub, scheduler))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Server starting on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	hub.Stop()

	log.Info("Server stopped")
}

// seedAdmin creates the first administrator account on an empty database so
// the API is usable out of the box. Skipped when any user already exists or
// no admin password is configured.
func seedAdmin(ctx context.Context, store *sqlite.Store, cfg *config.AppConfig) error {
	count, err := store.CountUsers(ctx)
	if err != nil || count > 0 {
		return err
	}
	if cfg.AdminPassword == "" {
		logrus.Warn("No users exist and ADMIN_PASSWORD is not set, skipping admin seed")
		return nil
	}
	hash, err := api.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := hr.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         hr.RoleAdmin,
	}
	if err := store.CreateUser(ctx, &admin); err != nil {
		return err
	}
	logrus.WithField("username", admin.Username).Info("Seeded initial admin account")
	return nil
}
