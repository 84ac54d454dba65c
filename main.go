package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authdiscovery/apiv1/config"
	"github.com/authdiscovery/apiv1/credentials"
	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/discovery"
	"github.com/authdiscovery/apiv1/logging"
	"github.com/authdiscovery/apiv1/ratelimit"
	"github.com/authdiscovery/apiv1/routes"
	"github.com/authdiscovery/apiv1/sessions"
	"github.com/authdiscovery/apiv1/tokens"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Setting up environment variables
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}
	// Setting up logs
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger, logCloser, err := logging.New(cfg.LogFile, level)
	if err != nil {
		log.Fatal(err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)
	if cfg.GeneratedSecrets {
		logger.Warn("token signing secrets not configured, generated for this process only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setting up database
	var store dbhelper.UserStore
	if cfg.DSN != "" {
		db, err := dbhelper.OpenDB(cfg.DSN)
		if err != nil {
			log.Fatal(err)
		}
		if err := dbhelper.InitDB(db); err != nil {
			log.Fatal(err)
		}
		store = dbhelper.NewGormUserStore(db)
		logger.Info("connected to MySQL")
	} else {
		store = dbhelper.NewMemoryUserStore()
		logger.Warn("URI_KEY not set, users are kept in memory")
	}

	// Setting up rate limiting
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal(err)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, "authdiscovery:")
	} else {
		memLimiter := ratelimit.NewMemoryLimiter()
		go memLimiter.Run(ctx, utils.SENSITIVE_WINDOW)
		limiter = memLimiter
	}

	tokenService := tokens.NewService(store, tokens.Config{
		AccessKeys:  cfg.AccessKeys,
		RefreshKeys: cfg.RefreshKeys,
		AccessTTL:   cfg.AccessTTL,
		RefreshTTL:  cfg.RefreshTTL,
	})
	gate := discovery.NewGate(store, discovery.Config{
		SecretKey:     cfg.SecretKey,
		EncryptionKey: cfg.EncryptionKey,
		HMACSecret:    cfg.HMACSecret,
		Location:      cfg.DiscoveryLocation,
		Configured:    cfg.Configured(),
	}, logger)

	// Opening the webserver
	r := mux.NewRouter()
	r.StrictSlash(true)
	routes.CreateRoutes(r, routes.Dependencies{
		Config:   cfg,
		Store:    store,
		Verifier: credentials.NewVerifier(store),
		Tokens:   tokenService,
		Sessions: sessions.NewTracker(utils.SESSION_MAX_AGE),
		Limiter:  limiter,
		Gate:     gate,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
