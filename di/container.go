package di

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"venue-radar/api"
	"venue-radar/api/foursquare"
	"venue-radar/config"
	"venue-radar/dao/redis"
	"venue-radar/db"
	"venue-radar/location"
	"venue-radar/logger"
	"venue-radar/observability"
	"venue-radar/server"
	"venue-radar/server/handlers"
	services "venue-radar/service"
)

// Container holds all application dependencies.
type Container struct {
	Config                *config.Config
	Telemetry             *observability.Telemetry
	RedisClient           db.RedisClient
	RedisVenueDao         *redis.RedisVenueDAO
	FoursquareAPI         foursquare.FoursquareAPI
	LocationBroker        *location.PushBroker
	VenuesPipelineService *services.VenuesPipelineService
	VenuesFeedService     *services.VenuesFeedService
	VenueService          *services.VenueService
	VenueHandler          *handlers.VenueHandler
	LocationHandler       *handlers.LocationHandler
	MuxRouter             *mux.Router
	Router                *server.Router
	VenueRadarHttpServer  *server.VenueRadarHttpServer

	redisInternalClient *goredis.Client
}

// NewContainer initializes and wires up all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.WithComponent("Container")
	log.Info().Str("foursquare_mode", cfg.Foursquare.Mode).Bool("redis", cfg.Redis.Enabled).Msg("Initializing container")

	telemetry, err := observability.Init(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	metrics, err := observability.NewGlobalMetrics()
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Telemetry: telemetry}

	// Store: Redis when enabled, in-memory otherwise
	if cfg.Redis.Enabled {
		c.redisInternalClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisClient, err := db.NewGeoRedisClient(ctx, c.redisInternalClient)
		if err != nil {
			c.redisInternalClient.Close()
			return nil, err
		}
		c.RedisClient = redisClient
	} else {
		log.Info().Msg("Using in-memory store")
		c.RedisClient = db.NewMockRedisClient()
	}
	c.RedisVenueDao = redis.NewRedisVenueDAO(c.RedisClient)

	// Foursquare API
	switch cfg.Foursquare.Mode {
	case config.FOURSQUARE_MODE_LIVE:
		log.Info().Str("base_url", cfg.Foursquare.BaseURL).Msg("Using live Foursquare API")
		httpClient := api.NewHTTPClient(cfg.Foursquare.BaseURL, cfg.Foursquare.Timeout)
		c.FoursquareAPI = foursquare.NewFoursquareApiClient(httpClient, foursquare.Credentials{
			ClientID:     cfg.Foursquare.ClientID,
			ClientSecret: cfg.Foursquare.ClientSecret,
			APIVersion:   cfg.Foursquare.APIVersion,
		})
	default:
		log.Info().Msg("Using mock Foursquare API")
		c.FoursquareAPI = foursquare.NewFoursquareApiClientMockFromFiles(
			config.GetResourcePath(config.SEARCH_VENUE_RESPONSE_RESOURCE),
			config.GetResourcePath(config.VENUE_DETAILS_RESPONSE_RESOURCE),
		)
	}

	// Location
	dedupKey, err := location.DedupKeyByName(cfg.Location.DedupKey)
	if err != nil {
		return nil, err
	}
	request := location.RequestConfig{
		Priority:        location.Priority(cfg.Location.Priority),
		Interval:        cfg.Location.Interval,
		FastestInterval: cfg.Location.FastestInterval,
	}
	c.LocationBroker = location.NewPushBroker()

	// Pipeline
	sink := services.MultiSink{
		services.NewStoreSink(c.RedisVenueDao, cfg.Redis.BatchTTL),
		services.NewLogSink(),
	}
	c.VenuesPipelineService = services.NewVenuesPipelineService(c.FoursquareAPI, c.FoursquareAPI, cfg.Pipeline, metrics)
	c.VenuesFeedService = services.NewVenuesFeedService(c.VenuesPipelineService, request, dedupKey, sink)
	c.LocationBroker.AddListener(c.VenuesFeedService)

	// HTTP
	c.VenueService = services.NewVenueService(c.RedisVenueDao)
	c.VenueHandler = handlers.NewVenueHandler(c.VenueService, cfg.Foursquare.IconSize)
	c.LocationHandler = handlers.NewLocationHandler(c.LocationBroker)
	c.MuxRouter = mux.NewRouter()
	c.Router = server.NewRouter(c.VenueHandler, c.LocationHandler, c.MuxRouter)
	c.VenueRadarHttpServer = server.NewVenueRadarHttpServer(c.Router, c.MuxRouter, cfg.Server.Address, cfg.Server.ShutdownTimeout)

	return c, nil
}

// Close stops the feed and releases external resources.
func (c *Container) Close(ctx context.Context) error {
	c.VenuesFeedService.Stop()

	var errs []error
	if c.redisInternalClient != nil {
		errs = append(errs, c.redisInternalClient.Close())
	}
	if err := c.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	return errors.Join(errs...)
}
