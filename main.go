package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"venue-radar/config"
	"venue-radar/di"
	"venue-radar/logger"
	"venue-radar/models"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(cfg.Log)
	log := logger.WithComponent("Main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build container")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to release resources")
		}
	}()

	if err := container.RedisVenueDao.Reset(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to reset venue store")
	}

	container.LocationBroker.Connect()
	if cfg.Location.HasSeed() {
		seed := models.NewLocation(*cfg.Location.SeedLat, *cfg.Location.SeedLng)
		if err := container.LocationBroker.Push(seed); err != nil {
			log.Error().Err(err).Msg("Failed to push seed location")
		} else {
			log.Info().Str("location", seed.String()).Msg("Seed location pushed")
		}
	}

	if err := container.VenueRadarHttpServer.Start(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server stopped")
	}
	log.Info().Msg("Shutting down")
}
