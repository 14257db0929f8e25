package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/backend"
	"dompet/internal/cache"
	"dompet/internal/cli"
	apphttp "dompet/internal/http"
	"dompet/internal/log"
	"dompet/internal/reply"
	"dompet/internal/router"
	"dompet/internal/services"
	"dompet/internal/silence"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	loc := cfg.Location()

	window := silence.NewWindow(cfg.SilenceWindow, cfg.SilenceMaxEntries)
	caches := cache.NewManager()
	caches.Register(window)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	interpreter := services.NewInterpreter(res.Store,
		services.WithPublisher(res.Publisher()),
		services.WithLocation(loc))
	rt := router.New(res.Store, interpreter, window, res.Sender(),
		reply.Formatter{Location: loc},
		logger.WithComponent(log.ComponentRouter))

	scheduler := services.NewRecurringScheduler(
		services.NewRecurringProcessor(res.Store, res.Publisher()),
		cfg.RecurringInterval, loc)

	srv := apphttp.NewServer(":"+cfg.Port, rt, res.Ready, apphttp.Options{Logger: logger})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting dompet server", "port", cfg.Port, "backend", backendCfg.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := scheduler.Start(gctx); err != nil {
		logger.Error("Failed to start recurring scheduler", "error", err)
		os.Exit(1)
	}

	if res.AMQP != nil {
		g.Go(func() error {
			err := res.AMQP.ConsumeMessages(gctx, func(ctx context.Context, msg router.Message) error {
				_, err := rt.Handle(ctx, msg)
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - only the webhook receives messages")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(shutdownTimeout)
		defer cancel()

		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("Recurring scheduler stop", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
