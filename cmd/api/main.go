package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/deskhq/desk-backend/config"
	httpapi "github.com/deskhq/desk-backend/internal/api/http"
	"github.com/deskhq/desk-backend/internal/api/http/routes"
	"github.com/deskhq/desk-backend/internal/auth"
	authmw "github.com/deskhq/desk-backend/internal/auth/middleware"
	authrepo "github.com/deskhq/desk-backend/internal/auth/repository"
	authservice "github.com/deskhq/desk-backend/internal/auth/service"
	"github.com/deskhq/desk-backend/internal/bootstrap"
	"github.com/deskhq/desk-backend/internal/commerce"
	"github.com/deskhq/desk-backend/internal/finances"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer stores.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	authMiddleware, err := buildAuth(ctx, cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	platform, err := commerce.NewMockPlatform(commerce.MockConfig{
		Delay:     cfg.Commerce.SimulatedDelay,
		RateLimit: rate.Limit(cfg.Commerce.RateLimit),
		BurstSize: cfg.Commerce.RateBurst,
	})
	if err != nil {
		log.Fatalf("commerce: %v", err)
	}
	tracker := commerce.NewTracker(rdb, cfg.Commerce.ImportLockTTL)
	commerceSvc := commerce.NewService(stores.Rows, platform, tracker)

	health := []httpapi.HealthOption{httpapi.WithRedis(rdb), httpapi.WithStoreMetrics(stores.Metrics)}
	deps := routes.V1Deps{
		Auth:     authMiddleware,
		Sessions: bootstrap.NewWorkspace(stores.Rows, cfg.Store.SessionTTL),
		Commerce: commerceSvc,
		Tracker:  tracker,
		Finances: finances.NewService(commerceSvc),
	}
	if stores.DB != nil {
		health = append(health, httpapi.WithDB(stores.DB.Pool))
		deps.Users = authservice.NewAuthService(authrepo.NewUserRepository(stores.DB.SQL))
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    cfg.App.ServiceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         health,
		V1:             deps,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("%s %s listening on :%s (store=%s auth=%s)", cfg.App.ServiceName, cfg.App.Version, cfg.Server.Port, cfg.Store.Driver, cfg.Auth.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func buildAuth(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, error) {
	if cfg.Auth.Mode == "header" {
		log.Println("WARNING: AUTH_MODE=header trusts X-User-Id; use only for local development")
		return authmw.HeaderAuth(), nil
	}
	verifier, err := auth.NewTokenVerifier(ctx, cfg.Firebase)
	if err != nil {
		return nil, err
	}
	return authmw.FirebaseAuth(verifier), nil
}
