package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gsj_gateway/docs"
	"gsj_gateway/internal/config"
	"gsj_gateway/internal/handlers"
	"gsj_gateway/internal/logger"
	"gsj_gateway/internal/metrics"
	"gsj_gateway/internal/portal"
	"gsj_gateway/internal/repository"
	"gsj_gateway/internal/repository/db"
	"gsj_gateway/internal/server"
	"gsj_gateway/internal/service"
	"gsj_gateway/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yml")
	issueToken := flag.String("issue-token", "", "print an API bearer token for this subject and exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// init logger
	log := logger.Get(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	if *issueToken != "" {
		tok, err := service.NewTokenService(cfg.API.JWTSecret).GenerateToken(*issueToken)
		if err != nil {
			log.Fatalw("cannot issue token", "err", err)
		}
		fmt.Println(tok)
		return
	}

	// open DB
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	m := metrics.New()

	auth, err := portal.NewAuthenticator(cfg.Portal, log.Named("portal"))
	if err != nil {
		log.Fatalw("invalid login strategy", "err", err)
	}

	storeOpts := session.Options{
		LoginTimeout:     cfg.Portal.LoginTimeout,
		MinLoginInterval: cfg.Session.MinLoginInterval,
		Observer:         service.NewSessionObserver(repos.EventRepo, m, log.Named("session")),
		Logger:           log.Named("session"),
	}
	if cfg.Session.Persist {
		storeOpts.Persister = repos.SessionRepo
	}
	store := session.NewStore(auth, cfg.Portal.Credentials(), storeOpts)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := startSession(ctx, store, log); err != nil {
		log.Fatalw("portal login failed at startup", "err", err)
	}

	services := service.NewService(repos, service.Deps{
		Store:     store,
		Portal:    portal.NewClient(portal.NewClientOptions(cfg.Portal)),
		Auth:      auth,
		JWTSecret: cfg.API.JWTSecret,
		Metrics:   m,
		Logger:    log,
	})

	opts := []handlers.Option{
		handlers.WithMetrics(m),
		handlers.WithCORS(cfg.API.CORSOrigins),
		handlers.WithLoginCookies(cfg.Portal.SessionCookie, cfg.Portal.CSRFCookie),
	}
	if cfg.API.JWTSecret != "" {
		opts = append(opts, handlers.WithTokenAuth())
	}
	apiHandler := handlers.NewHandler(services, log.Named("http"), opts...)

	if cfg.Telemetry.RecordInterval > 0 {
		go services.Recorder.Run(ctx, cfg.Telemetry.RecordInterval)
	}
	go service.RunRetention(ctx, services.EventLog, cfg.DB.Retention, log.Named("retention"))

	// start HTTP server
	srv := server.New(cfg.Port, apiHandler.InitRoutes(), cfg.Server)
	go func() {
		log.Infow("listening", "port", cfg.Port, "portal", cfg.Portal.BaseURL, "login_strategy", cfg.Portal.LoginStrategy)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// startSession restores a persisted session or logs in once. A failure here is fatal.
func startSession(ctx context.Context, store *session.Store, log *logger.Logger) error {
	restored, err := store.Restore(ctx)
	if err != nil {
		log.Warnw("ignoring persisted session", "err", err)
	}
	if restored {
		return nil
	}
	_, err = store.Ensure(ctx)
	return err
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
