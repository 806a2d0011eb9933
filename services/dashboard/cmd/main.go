package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobhub/common/cache"
	"jobhub/common/telemetry"
	"jobhub/services/dashboard/internal/api"
	"jobhub/services/dashboard/internal/config"
	"jobhub/services/dashboard/internal/dashboard"
	"jobhub/services/dashboard/internal/events"
	"jobhub/services/dashboard/internal/scheduler"
	"jobhub/services/dashboard/internal/server"
	"jobhub/services/dashboard/internal/store"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "jobhub-dashboard"

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func newCache(lc fx.Lifecycle, cfg *config.Config) (cache.Cache, error) {
	c, err := store.NewCache(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}

func newStore(lc fx.Lifecycle, cfg *config.Config, c cache.Cache, logger *zap.Logger) (store.Store, error) {
	s, err := store.New(context.Background(), cfg, c, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

func newPublisher(lc fx.Lifecycle, nc *nats.Conn, logger *zap.Logger) events.Publisher {
	p := events.NewPublisher(nc, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			p.Close()
			return nil
		},
	})
	return p
}

func newController(lc fx.Lifecycle, source api.JobSource, s store.Store, p events.Publisher, logger *zap.Logger) *dashboard.Controller {
	c := dashboard.New(source, s, p, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Load(ctx)
		},
	})
	return c
}

func newScheduler(lc fx.Lifecycle, c *dashboard.Controller, cfg *config.Config, logger *zap.Logger) *scheduler.RefreshScheduler {
	s := scheduler.NewRefreshScheduler(c, logger, cfg.RefreshSpec)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: s.Stop,
	})
	return s
}

func newServer(lc fx.Lifecycle, cfg *config.Config, c *dashboard.Controller, logger *zap.Logger) *server.Server {
	s := server.New(cfg, c, logger)
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Shutdown,
	})
	return s
}

func newRefreshHandler(logger *zap.Logger, nc *nats.Conn, c *dashboard.Controller) *events.RefreshHandler {
	return events.NewRefreshHandler(logger, nc, c)
}

func registerTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) error {
	shutdown, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  serviceName,
		CollectorURL: cfg.OTELCollectorURL,
	})
	if err != nil {
		return err
	}
	if cfg.OTELCollectorURL == "" {
		logger.Info("OTEL_COLLECTOR_URL not set, trace export disabled")
	}
	lc.Append(fx.Hook{
		OnStop: shutdown,
	})
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newCache,
			newStore,
			api.NewJobSource,
			events.Connect,
			newPublisher,
			newController,
			newRefreshHandler,
			newScheduler,
			newServer,
		),
		fx.Invoke(
			registerTracing,
			func(handler *events.RefreshHandler, lc fx.Lifecycle) error {
				return handler.RegisterSubscriptions(lc)
			},
			func(*scheduler.RefreshScheduler, *server.Server) {},
		),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
