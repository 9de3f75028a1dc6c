package services

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"venue-radar/location"
	"venue-radar/logger"
)

// VenuesFeedService runs one pipeline per period during which the location
// broker is ready. It is registered as the broker's Availability listener.
type VenuesFeedService struct {
	pipeline *VenuesPipelineService
	request  location.RequestConfig
	key      location.DedupKey
	sink     Sink
	log      *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewVenuesFeedService(
	pipeline *VenuesPipelineService,
	request location.RequestConfig,
	key location.DedupKey,
	sink Sink,
) *VenuesFeedService {
	return &VenuesFeedService{
		pipeline: pipeline,
		request:  request,
		key:      key,
		sink:     sink,
		log:      logger.WithComponent("VenuesFeedService"),
	}
}

// OnReady starts the pipeline over broker unless one is already running.
func (f *VenuesFeedService) OnReady(broker location.Broker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	f.cancel, f.done = cancel, done

	source := location.NewSource(broker, f.request, f.key)
	f.log.Info().Msg("Starting venues feed")
	go func() {
		defer close(done)
		err := f.pipeline.Run(ctx, source, f.sink)
		switch {
		case err == nil:
			f.log.Info().Msg("Venues feed completed")
		case errors.Is(err, context.Canceled):
			f.log.Info().Msg("Venues feed stopped")
		default:
			f.log.Error().Err(err).Msg("Venues feed failed")
		}
	}()
}

// OnUnavailable stops the running pipeline.
func (f *VenuesFeedService) OnUnavailable() {
	f.Stop()
}

// Running reports whether a pipeline is active.
func (f *VenuesFeedService) Running() bool {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Stop cancels the running pipeline and waits for it to return.
func (f *VenuesFeedService) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
