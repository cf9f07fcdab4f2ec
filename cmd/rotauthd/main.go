// rotauthd is a minimal HTTP boundary around the rotauth engine: identities
// in Postgres, session records in Redis or Postgres, signing secrets from the
// environment.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fenrirsec/rotauth"
	"github.com/fenrirsec/rotauth/internal/appconfig"
	"github.com/fenrirsec/rotauth/internal/db"
	"github.com/fenrirsec/rotauth/pgstore"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	engineCfg := rotauth.DefaultConfig()
	engineCfg.Token.AccessSecret = []byte(cfg.AccessSecret)
	engineCfg.Token.RefreshSecret = []byte(cfg.RefreshSecret)
	engineCfg.Token.AccessTTL = cfg.AccessTTL
	engineCfg.Token.RefreshTTL = cfg.RefreshTTL
	engineCfg.Session.RedisPrefix = cfg.RedisPrefix
	engineCfg.Register.MinPasswordLength = cfg.MinPasswordLength
	engineCfg.Metrics.Enabled = cfg.MetricsEnabled

	builder := rotauth.New().
		WithConfig(engineCfg).
		WithIdentityProvider(pgstore.NewIdentities(pool))

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		builder = builder.WithRedis(rdb)
	} else {
		builder = builder.WithSessionStore(pgstore.NewSessions(pool))
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newServer(engine, cfg.MetricsEnabled).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("rotauthd listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
