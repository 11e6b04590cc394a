package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/thala/backend/internal/client"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/db"
	"github.com/thala/backend/internal/handler"
	"github.com/thala/backend/internal/metrics"
	"github.com/thala/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("[Main] connect postgres: %v", err)
	}
	defer pool.Close()

	pg := db.NewPostgres(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("[Main] ensure schema: %v", err)
	}

	codec, err := service.NewTokenCodec(cfg.Auth)
	if err != nil {
		log.Fatalf("[Main] token codec: %v", err)
	}

	var denylist service.Denylist
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = client.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("[Main] connect redis: %v", err)
		}
		denylist = client.NewRedisDenylist(redisClient)
		log.Printf("[Main] token revocation enabled (redis=%s)", cfg.Redis.Addr)
	}

	identity := client.NewGoogleIdentity(ctx, cfg.Google)
	if cfg.Google.ClientID == "" {
		log.Printf("[Main] GOOGLE_OAUTH_CLIENT_ID not set; Google login will be rejected")
	}

	authService, err := service.NewAuthService(cfg.Auth, codec, service.NewUserDirectory(pg), identity, denylist)
	if err != nil {
		log.Fatalf("[Main] auth service: %v", err)
	}

	adminService := service.NewAdminService(pg)
	if err := adminService.PromoteBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminMail); err != nil {
		log.Printf("[Main] %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(registry); err != nil {
		log.Fatalf("[Main] register metrics: %v", err)
	}

	router, err := handler.NewRouter(cfg, handler.Services{
		Auth:     authService,
		Users:    service.NewUserService(pg),
		Feedback: service.NewFeedbackService(pg),
		Videos:   service.NewVideoService(pg),
		Admin:    adminService,
		Metrics:  m,
		Gatherer: registry,
	})
	if err != nil {
		log.Fatalf("[Main] router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Main] http server: %v", err)
		}
	}()
	log.Printf("[Main] listening on :%s", cfg.Server.Port)

	<-ctx.Done()
	log.Printf("[Main] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] graceful shutdown failed: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("[Main] close redis: %v", err)
		}
	}
	log.Printf("[Main] stopped")
}
