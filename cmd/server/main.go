package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/fashion-api/internal/config"
	"github.com/Brownie44l1/fashion-api/internal/handlers"
	"github.com/Brownie44l1/fashion-api/internal/logger"
	"github.com/Brownie44l1/fashion-api/internal/model"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(viper.GetViper(), os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.AppLogLevel, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("model", cfg.ModelPath).Msg("loading model")
	modelServer, err := model.Load(ctx, cfg.LoadOptions(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model server")
	}
	defer model.Shutdown()
	defer modelServer.Close()

	handler := handlers.NewHandler(modelServer, modelServer.Metadata.Classes, cfg.Normalizer(), cfg.MaxUploadBytes, cfg.MaxImagePixels)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           handlers.NewMux(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Int("port", cfg.AppPort).
			Str("resize", cfg.ResizeMethod).
			Strs("endpoints", []string{"GET /health", "POST /predict", "POST /predict/image"}).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
