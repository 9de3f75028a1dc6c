package location

import (
	"context"

	"github.com/rs/zerolog"

	"venue-radar/logger"
	"venue-radar/models"
	"venue-radar/stream"
)

// Source produces the deduplicated stream of device locations: the one-shot
// last known location merged with continuous updates.
type Source struct {
	broker  Broker
	request RequestConfig
	key     DedupKey
	log     *zerolog.Logger
}

// NewSource creates a Source over broker. A nil key defaults to SumKey.
func NewSource(broker Broker, request RequestConfig, key DedupKey) *Source {
	if key == nil {
		key = SumKey
	}
	return &Source{
		broker:  broker,
		request: request,
		key:     key,
		log:     logger.WithComponent("LocationSource"),
	}
}

// Subscribe starts both branches. Cancelling ctx stops them and releases the
// updates registration; the returned stream then closes.
//
// A branch failure ends the stream with that error and releases the other
// branch as well.
func (s *Source) Subscribe(ctx context.Context) <-chan stream.Event[models.Location] {
	ctx, cancel := context.WithCancel(ctx)

	merged := stream.Merge(ctx, s.lastKnown(ctx), s.updates(ctx))
	distinct := stream.DistinctUntilChanged(ctx, merged, func(loc models.Location) any {
		return s.key(loc)
	})

	out := make(chan stream.Event[models.Location])
	go func() {
		defer close(out)
		defer cancel()
		for ev := range distinct {
			if !stream.Send(ctx, out, ev) {
				return
			}
		}
	}()
	return out
}

func (s *Source) lastKnown(ctx context.Context) <-chan stream.Event[models.Location] {
	out := make(chan stream.Event[models.Location], 1)

	go func() {
		defer close(out)

		loc, err := s.broker.LastKnown(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error().Err(err).Msg("Last known location query failed")
				out <- stream.Error[models.Location](err)
			}
			return
		}
		if loc == nil {
			s.log.Debug().Msg("No last known location")
			return
		}
		s.log.Debug().Float64("lat", loc.Lat()).Float64("lng", loc.Lng()).Msg("Last known location retrieved")
		out <- stream.Value(*loc)
	}()

	return out
}

func (s *Source) updates(ctx context.Context) <-chan stream.Event[models.Location] {
	out := make(chan stream.Event[models.Location])

	go func() {
		defer close(out)

		sub, err := s.broker.RequestUpdates(ctx, s.request)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Error().Err(err).Msg("Location updates request failed")
				stream.Send(ctx, out, stream.Error[models.Location](err))
			}
			return
		}
		s.log.Debug().Msg("Subscribed to location updates")
		defer func() {
			sub.Close()
			s.log.Debug().Msg("Unsubscribed from location updates")
		}()

		for {
			select {
			case loc, open := <-sub.Locations():
				if !open {
					if err := sub.Err(); err != nil && ctx.Err() == nil {
						stream.Send(ctx, out, stream.Error[models.Location](err))
					}
					return
				}
				s.log.Debug().Float64("lat", loc.Lat()).Float64("lng", loc.Lng()).Msg("Location retrieved")
				if !stream.Send(ctx, out, stream.Value(loc)) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
