package services

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"venue-radar/config"
	"venue-radar/logger"
	"venue-radar/models"
	"venue-radar/models/venue"
	"venue-radar/observability"
	"venue-radar/stream"
)

// Sink receives the output of a pipeline. Every call for one pipeline is made
// from the goroutine running VenuesPipelineService.Run, one at a time.
type Sink interface {
	Deliver(batch venue.Batch)
	DeliverFailure(err error)
}

// LocationStream is subscribed once per pipeline attempt.
type LocationStream interface {
	Subscribe(ctx context.Context) <-chan stream.Event[models.Location]
}

// VenueSearcher lists the venues around a location.
type VenueSearcher interface {
	SearchVenues(ctx context.Context, location models.Location) ([]venue.Venue, error)
}

// VenuesPipelineService turns a location stream into sorted, rating-enriched
// venue batches. A failed search or location stream restarts the whole
// pipeline, up to MaxRetries times over its lifetime.
type VenuesPipelineService struct {
	searcher VenueSearcher
	enricher *RatingEnricher
	pool     *WorkerPool
	cfg      config.PipelineConfig
	metrics  *observability.Metrics
	log      *zerolog.Logger
}

func NewVenuesPipelineService(
	searcher VenueSearcher,
	ratings RatingFetcher,
	cfg config.PipelineConfig,
	metrics *observability.Metrics,
) *VenuesPipelineService {
	return &VenuesPipelineService{
		searcher: searcher,
		enricher: NewRatingEnricher(ratings, metrics),
		pool:     NewWorkerPool(cfg.MaxConcurrency),
		cfg:      cfg,
		metrics:  metrics,
		log:      logger.WithComponent("VenuesPipelineService"),
	}
}

// Run blocks until the location stream completes, ctx is cancelled, or the
// retry budget is exhausted. In the last case the error is delivered to
// sink exactly once and returned. Cancellation returns ctx.Err() without
// notifying sink.
func (s *VenuesPipelineService) Run(ctx context.Context, locations LocationStream, sink Sink) error {
	b := s.newBackOff()
	retries := 0

	for {
		err := s.runOnce(ctx, locations, sink)
		if ctx.Err() != nil {
			s.log.Info().Msg("Pipeline cancelled")
			return ctx.Err()
		}
		if err == nil {
			s.log.Info().Msg("Location stream completed")
			return nil
		}

		if retries >= s.cfg.MaxRetries {
			s.log.Error().Err(err).Int("retries", retries).Msg("Pipeline failed, retries exhausted")
			s.metrics.RecordFailure(ctx)
			sink.DeliverFailure(err)
			return err
		}

		retries++
		delay := b.NextBackOff()
		s.log.Warn().Err(err).
			Int("attempt", retries).
			Int("max_retries", s.cfg.MaxRetries).
			Dur("backoff", delay).
			Msg("Pipeline failed, retrying")
		s.metrics.RecordRetry(ctx)

		if !wait(ctx, delay) {
			s.log.Info().Msg("Pipeline cancelled")
			return ctx.Err()
		}
	}
}

func (s *VenuesPipelineService) newBackOff() backoff.BackOff {
	cfg := s.cfg.Backoff
	if cfg.Initial <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.Initial
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.Jitter
	if cfg.Max > 0 {
		b.MaxInterval = cfg.Max
	}
	b.Reset()
	return b
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type batchResult struct {
	seq   uint64
	batch venue.Batch
	err   error
}

// runOnce is one pipeline attempt. Its loop is the delivery context: batches
// are built concurrently but handed to sink only from here.
func (s *VenuesPipelineService) runOnce(ctx context.Context, locations LocationStream, sink Sink) error {
	runCtx, cancel := context.WithCancel(ctx)
	results := make(chan batchResult)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	log := s.log.With().Str("run_id", uuid.NewString()).Logger()
	log.Debug().Msg("Pipeline started")

	latest := s.cfg.FanOut == config.PIPELINE_FAN_OUT_LATEST
	cancelPrevious := func() {}
	var seq uint64
	inFlight := 0

	events := locations.Subscribe(runCtx)
	for {
		select {
		case ev, open := <-events:
			if !open {
				events = nil
				if inFlight == 0 {
					return nil
				}
				continue
			}
			if ev.Err != nil {
				log.Error().Err(ev.Err).Msg("Location stream failed")
				return ev.Err
			}

			seq++
			batchCtx := runCtx
			if latest {
				cancelPrevious()
				batchCtx, cancelPrevious = context.WithCancel(runCtx)
			}

			loc := ev.Value
			log.Debug().Uint64("seq", seq).Float64("lat", loc.Lat()).Float64("lng", loc.Lng()).Msg("Location received")

			inFlight++
			wg.Add(1)
			go func(ctx context.Context, seq uint64) {
				defer wg.Done()
				batch, err := s.buildBatch(ctx, log, loc)
				select {
				case results <- batchResult{seq: seq, batch: batch, err: err}:
				case <-runCtx.Done():
				}
			}(batchCtx, seq)

		case res := <-results:
			inFlight--
			switch {
			case latest && res.seq != seq:
				log.Debug().Uint64("seq", res.seq).Msg("Dropping superseded batch")
			case res.err != nil:
				return res.err
			case runCtx.Err() != nil:
				return runCtx.Err()
			default:
				sink.Deliver(res.batch)
				s.metrics.RecordBatchDelivered(runCtx, res.batch.Len())
				log.Info().Str("batch_id", res.batch.ID).Int("size", res.batch.Len()).Msg("Batch delivered")
			}
			if events == nil && inFlight == 0 {
				cancelPrevious()
				return nil
			}

		case <-runCtx.Done():
			return runCtx.Err()
		}
	}
}

// buildBatch searches around loc and enriches every venue concurrently. It
// returns only once every enrichment has finished.
func (s *VenuesPipelineService) buildBatch(ctx context.Context, log zerolog.Logger, loc models.Location) (venue.Batch, error) {
	log.Debug().Float64("lat", loc.Lat()).Float64("lng", loc.Lng()).Msg("Searching venues")

	var venues []venue.Venue
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		venues, err = s.searcher.SearchVenues(ctx, loc)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Float64("lat", loc.Lat()).Float64("lng", loc.Lng()).Msg("Venue search failed")
		}
		return venue.Batch{}, err
	}

	enriched := make([]venue.Venue, len(venues))
	var wg sync.WaitGroup
	for i, v := range venues {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.pool.Do(ctx, func(ctx context.Context) error {
				enriched[i] = s.enricher.Enrich(ctx, v)
				return nil
			})
			if err != nil {
				enriched[i] = v.WithRatingError()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return venue.Batch{}, err
	}
	return venue.NewBatch(loc, SortVenues(enriched)), nil
}
