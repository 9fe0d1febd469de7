package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	auditnotifier "github.com/EmreUYGUNX/lumi-platform-sub005/internal/audit"
	auditrepo "github.com/EmreUYGUNX/lumi-platform-sub005/internal/audit/repository"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/config"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/db"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/metrics"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/rbac"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/security"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/server"
	sessionrepo "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/repository"
	sessionservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/session/service"
	"github.com/EmreUYGUNX/lumi-platform-sub005/internal/token/blacklist"
	tokenservice "github.com/EmreUYGUNX/lumi-platform-sub005/internal/token/service"
	userrepo "github.com/EmreUYGUNX/lumi-platform-sub005/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	var bl blacklist.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		bl = blacklist.NewRedisStore(client)
	} else {
		bl = blacklist.NewMemoryStore(cfg.BlacklistCleanup())
	}
	defer bl.Shutdown()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	authMetrics := metrics.New(registry)

	hasher := security.NewHasher(cfg.BcryptCost)
	fingerprinter := security.NewFingerprinter([]byte(cfg.FingerprintSecret))
	signer := security.NewTokenSigner(
		[]byte(cfg.JWTAccessSecret), []byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer, cfg.JWTAudience,
		cfg.AccessTTL(), cfg.RefreshTTL(),
	)

	notifier := metrics.NewNotifier(auditnotifier.NewNotifier(auditrepo.NewPostgresRepository(database)), authMetrics)
	sessions := sessionservice.New(sessionrepo.NewPostgresRepository(database), hasher, fingerprinter, notifier, cfg.RefreshTTL())
	users := userrepo.NewPostgresRepository(database)
	tokens := tokenservice.New(sessions, rbac.NewPostgresProvider(database), users, signer, bl)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(sessions, tokens, users, hasher, signer, registry).Handler(),
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSessionSweep(sweepCtx, sessions, cfg.SweepInterval())

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// runSessionSweep periodically revokes expired sessions. Validate performs the
// same revocation lazily, so the sweep only bounds how long expired rows stay
// unmarked.
func runSessionSweep(ctx context.Context, sessions *sessionservice.Service, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			n, err := sessions.CleanupExpired(ctx)
			if err != nil {
				log.Printf("session sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session sweep: revoked %d expired sessions", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
