package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/deskhq/desk-backend/config"
	"github.com/deskhq/desk-backend/internal/bootstrap"
	"github.com/deskhq/desk-backend/internal/commerce"
	cronjob "github.com/deskhq/desk-backend/internal/commerce/cron"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("config: %v", err)
	}

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

	platform, err := commerce.NewMockPlatform(commerce.MockConfig{
		Delay:     cfg.Commerce.SimulatedDelay,
		RateLimit: rate.Limit(cfg.Commerce.RateLimit),
		BurstSize: cfg.Commerce.RateBurst,
	})
	if err != nil {
		log.Fatalf("commerce: %v", err)
	}
	svc := commerce.NewService(stores.Rows, platform, commerce.NewTracker(rdb, cfg.Commerce.ImportLockTTL))
	scheduler := cronjob.NewScheduler(svc, cfg.Worker.ImportSchedule, cfg.Worker.ImportMinAge)

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := scheduler.Start(); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
		<-ctx.Done()
		log.Println("stopping scheduler...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		scheduler.Stop(shutdownCtx)
	case "import":
		scheduler.RunOnce(ctx)
	default:
		log.Fatalf("usage: worker [serve|import], unknown command: %s", cmd)
	}
}
