package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"studytracker/internal/app"
	"studytracker/internal/config"
	"studytracker/internal/handler"
	"studytracker/internal/logging"
	"studytracker/internal/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		logging.New(os.Stderr, "info").Fatal("open log", "err", err)
	}
	defer closer.Close()

	application, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal("start", "err", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	engine := router.New(
		handler.NewTimerHandler(application.Service),
		handler.NewCatalogHandler(application.Service),
		cfg.CORSOrigins,
	)
	server := &http.Server{
		Addr:              "127.0.0.1:" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
	}
}
