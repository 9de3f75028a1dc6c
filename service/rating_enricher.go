package services

import (
	"context"

	"github.com/rs/zerolog"

	"venue-radar/logger"
	"venue-radar/models/venue"
	"venue-radar/observability"
)

// RatingFetcher looks up the rating of a single venue. A nil rating with a
// nil error means the venue has none.
type RatingFetcher interface {
	GetVenueRating(ctx context.Context, venueID string) (*float64, error)
}

// RatingEnricher attaches ratings to venues one at a time. Failures are
// recorded on the venue and never returned.
type RatingEnricher struct {
	fetcher RatingFetcher
	metrics *observability.Metrics
	log     *zerolog.Logger
}

func NewRatingEnricher(fetcher RatingFetcher, metrics *observability.Metrics) *RatingEnricher {
	return &RatingEnricher{
		fetcher: fetcher,
		metrics: metrics,
		log:     logger.WithComponent("RatingEnricher"),
	}
}

// Enrich returns a copy of v whose RatingStatus is terminal.
func (e *RatingEnricher) Enrich(ctx context.Context, v venue.Venue) venue.Venue {
	v = v.WithRatingLoading()

	rating, err := e.fetcher.GetVenueRating(ctx, v.ID)
	switch {
	case err != nil:
		e.log.Error().Err(err).Str("venue_id", v.ID).Msg("Failed to fetch venue rating")
		v = v.WithRatingError()
	case rating == nil:
		v = v.WithRatingNotAvailable()
	default:
		v = v.WithRating(*rating)
	}

	e.metrics.RecordRating(ctx, v.RatingStatus.String())
	return v
}
