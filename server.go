package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/api"
	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/backend"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/redisstore"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// readinessGate answers 503 until the real router is installed. /healthz is
// always allowed so platform health checks pass while dependencies connect.
type readinessGate struct {
	router atomic.Pointer[gin.Engine]
}

func (g *readinessGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	router := g.router.Load()
	if router == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	router.ServeHTTP(w, r)
}

func main() {
	cfg := config.Load()
	logger := config.GetLogger()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start listening immediately; dependencies connect behind the gate.
	gate := &readinessGate{}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gate,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	var (
		rdb    *redis.Client
		locker *redislock.Client
	)
	if needsRedis(cfg) {
		var err error
		rdb, locker, err = config.ConnectRedisWithRetry(sigCtx, cfg)
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "redis"}).Fatal("redis unavailable: " + err.Error())
		}
		defer rdb.Close()
	}

	store, err := backend.Open(sigCtx, cfg, locker)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "storage", "backend": cfg.StorageBackend}).Fatal(err.Error())
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			config.LogError(logger, "server.go", "main", "close storage", nil, err)
		}
	}()

	if _, err := storage.EnsureAdmin(sigCtx, store, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.WithFields(logrus.Fields{"field": "seed"}).Fatal("create default admin: " + err.Error())
	}

	options := []api.Option{api.WithMetrics(api.NewMetrics())}
	var served storage.Storage = store
	if cfg.SessionStore == config.SessionStoreRedis {
		options = append(options, api.WithSessions(redisstore.NewSessionStore(rdb)))
		served = redisstore.NewUserCache(store, rdb, cfg.CacheLifespan)
	}
	if cfg.RateLimitEnabled {
		options = append(options, api.WithLoginRateLimit(api.NewRateLimiter(rdb, "auth", cfg.RateLimitMax, cfg.RateLimitWindow)))
	}
	apiOpts := api.Options{
		SessionTTL:     cfg.SessionTTL,
		CookieSecure:   cfg.CookieSecure,
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if svc := openUploads(sigCtx, cfg); svc != nil {
		options = append(options, api.WithUploads(svc))
		if cfg.UploadProvider != config.UploadProviderGCS {
			apiOpts.UploadDir = cfg.UploadDir
		}
	}

	gate.router.Store(api.New(served, apiOpts, options...).Router())
	logger.WithFields(logrus.Fields{
		"info":    "Connection Established",
		"backend": cfg.StorageBackend,
		"session": cfg.SessionStore,
	}).Info("listening on :" + cfg.Port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
