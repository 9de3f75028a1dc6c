package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"venue-radar/dao/redis"
	"venue-radar/logger"
	"venue-radar/models/venue"
)

// StoreSink persists deliveries so the HTTP surface can serve them.
type StoreSink struct {
	venueDao *redis.RedisVenueDAO
	ttl      time.Duration
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewStoreSink(venueDao *redis.RedisVenueDAO, ttl time.Duration) *StoreSink {
	return &StoreSink{
		venueDao: venueDao,
		ttl:      ttl,
		timeout:  5 * time.Second,
		log:      logger.WithComponent("StoreSink"),
	}
}

// Deliver replaces the stored batch and clears any recorded failure.
func (s *StoreSink) Deliver(batch venue.Batch) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.venueDao.SaveLatestBatch(ctx, batch, s.ttl); err != nil {
		s.log.Error().Err(err).Str("batch_id", batch.ID).Msg("Failed to store batch")
		return
	}
	if err := s.venueDao.ClearFailure(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear failure record")
	}
}

func (s *StoreSink) DeliverFailure(err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	record := redis.FailureRecord{Message: err.Error(), OccurredAt: time.Now().UTC()}
	if saveErr := s.venueDao.SaveFailure(ctx, record); saveErr != nil {
		s.log.Error().Err(saveErr).Msg("Failed to store failure")
	}
}

// LogSink logs deliveries.
type LogSink struct {
	log *zerolog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{log: logger.WithComponent("LogSink")}
}

func (s *LogSink) Deliver(batch venue.Batch) {
	s.log.Info().Str("batch_id", batch.ID).Int("size", batch.Len()).Msg("Venues updated")
	for i, v := range batch.Venues {
		s.log.Debug().Int("position", i).Msg(v.ToString())
	}
}

func (s *LogSink) DeliverFailure(err error) {
	s.log.Error().Err(err).Msg("Venues feed failed")
}

// MultiSink forwards each delivery to every sink, in order.
type MultiSink []Sink

func (m MultiSink) Deliver(batch venue.Batch) {
	for _, s := range m {
		s.Deliver(batch)
	}
}

func (m MultiSink) DeliverFailure(err error) {
	for _, s := range m {
		s.DeliverFailure(err)
	}
}
