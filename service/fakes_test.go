package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"venue-radar/config"
	"venue-radar/models"
	"venue-radar/models/venue"
	"venue-radar/stream"
)

var errRating = errors.New("rating lookup failed")

// fakeSearcher answers with fn, counting calls.
type fakeSearcher struct {
	calls atomic.Int32
	fn    func(ctx context.Context, call int, loc models.Location) ([]venue.Venue, error)
}

func (s *fakeSearcher) SearchVenues(ctx context.Context, loc models.Location) ([]venue.Venue, error) {
	call := int(s.calls.Add(1))
	return s.fn(ctx, call, loc)
}

func searchReturning(venues ...venue.Venue) *fakeSearcher {
	return &fakeSearcher{fn: func(context.Context, int, models.Location) ([]venue.Venue, error) {
		return venues, nil
	}}
}

type ratingResult struct {
	rating *float64
	err    error
}

// fakeRatings answers by venue id. Unknown ids have no rating.
type fakeRatings struct {
	mu      sync.Mutex
	results map[string]ratingResult
	calls   map[string]int
}

func newFakeRatings(results map[string]ratingResult) *fakeRatings {
	return &fakeRatings{results: results, calls: make(map[string]int)}
}

func (r *fakeRatings) GetVenueRating(ctx context.Context, venueID string) (*float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[venueID]++
	res := r.results[venueID]
	return res.rating, res.err
}

func rating(v float64) ratingResult { return ratingResult{rating: &v} }

// fakeLocations emits locations on every subscription, then either fails
// with err, stays open until cancelled (hold), or completes.
type fakeLocations struct {
	locations  []models.Location
	err        error
	hold       bool
	subscribes atomic.Int32
}

func (f *fakeLocations) Subscribe(ctx context.Context) <-chan stream.Event[models.Location] {
	f.subscribes.Add(1)
	out := make(chan stream.Event[models.Location])
	go func() {
		defer close(out)
		for _, loc := range f.locations {
			if !stream.Send(ctx, out, stream.Value(loc)) {
				return
			}
		}
		if f.err != nil {
			stream.Send(ctx, out, stream.Error[models.Location](f.err))
			return
		}
		if f.hold {
			<-ctx.Done()
		}
	}()
	return out
}

// recordingSink records deliveries and flags overlapping calls.
type recordingSink struct {
	mu        sync.Mutex
	batches   []venue.Batch
	failures  []error
	active    atomic.Int32
	overlap   atomic.Bool
	onDeliver func(venue.Batch)
}

func (s *recordingSink) enter() {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
}

func (s *recordingSink) Deliver(batch venue.Batch) {
	s.enter()
	defer s.active.Add(-1)
	s.mu.Lock()
	s.batches = append(s.batches, batch)
	hook := s.onDeliver
	s.mu.Unlock()
	if hook != nil {
		hook(batch)
	}
}

func (s *recordingSink) DeliverFailure(err error) {
	s.enter()
	defer s.active.Add(-1)
	s.mu.Lock()
	s.failures = append(s.failures, err)
	s.mu.Unlock()
}

func (s *recordingSink) Batches() []venue.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]venue.Batch(nil), s.batches...)
}

func (s *recordingSink) Failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.failures...)
}

func testVenue(id, name string, distance *int) venue.Venue {
	return venue.Venue{
		ID:       id,
		Name:     name,
		Location: models.Location{Distance: distance},
	}
}

func meters(d int) *int { return &d }

func ids(venues []venue.Venue) []string {
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = v.ID
	}
	return out
}

// testPipelineConfig retries immediately.
func testPipelineConfig() config.PipelineConfig {
	cfg := config.DefaultPipelineConfig()
	cfg.Backoff.Initial = 0
	return cfg
}
