package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"venue-radar/api"
	"venue-radar/config"
	"venue-radar/location"
	"venue-radar/models"
	"venue-radar/models/venue"
	"venue-radar/observability"
)

var paris = models.NewLocation(48.8566, 2.3522)

func remoteFailure() error {
	return &api.RemoteError{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"}
}

func runPipeline(t *testing.T, p *VenuesPipelineService, locations LocationStream, sink Sink) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Run(ctx, locations, sink)
}

func TestPipeline_EndToEnd(t *testing.T) {
	searcher := searchReturning(
		testVenue("a", "Cafe", meters(120)),
		testVenue("b", "Zebra", nil),
		testVenue("c", "Bistro", meters(50)),
	)
	ratings := newFakeRatings(map[string]ratingResult{
		"a": rating(7.0),
		"b": {err: &api.TransportError{Err: errRating}},
		"c": {},
	})
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, ratings, testPipelineConfig(), nil)

	err := runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, sink)
	require.NoError(t, err)

	require.Len(t, sink.Batches(), 1)
	assert.Empty(t, sink.Failures())

	batch := sink.Batches()[0]
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, paris, batch.Location)
	assert.Equal(t, []string{"c", "a", "b"}, ids(batch.Venues))

	assert.Equal(t, venue.RatingNotAvailable, batch.Venues[0].RatingStatus)
	assert.Nil(t, batch.Venues[0].Rating)
	assert.Equal(t, venue.RatingAvailable, batch.Venues[1].RatingStatus)
	require.NotNil(t, batch.Venues[1].Rating)
	assert.Equal(t, 7.0, *batch.Venues[1].Rating)
	assert.Equal(t, venue.RatingError, batch.Venues[2].RatingStatus)
	assert.Nil(t, batch.Venues[2].Rating)
}

func TestPipeline_RatingFailuresAreIsolated(t *testing.T) {
	venues := []venue.Venue{
		testVenue("v1", "One", meters(10)),
		testVenue("v2", "Two", meters(20)),
		testVenue("v3", "Three", meters(30)),
		testVenue("v4", "Four", meters(40)),
	}
	ratings := newFakeRatings(map[string]ratingResult{
		"v1": rating(6),
		"v2": {err: &api.TransportError{Err: errRating}},
		"v3": rating(8),
		"v4": rating(9),
	})
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searchReturning(venues...), ratings, testPipelineConfig(), nil)

	require.NoError(t, runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, sink))

	require.Len(t, sink.Batches(), 1)
	assert.Empty(t, sink.Failures())
	got := sink.Batches()[0].Venues
	require.Len(t, got, 4)
	for _, v := range got {
		assert.True(t, v.RatingStatus.IsTerminal(), v.ID)
		assert.Equal(t, v.RatingStatus == venue.RatingAvailable, v.Rating != nil, v.ID)
		if v.ID == "v2" {
			assert.Equal(t, venue.RatingError, v.RatingStatus)
		} else {
			assert.Equal(t, venue.RatingAvailable, v.RatingStatus)
		}
	}
	for _, v := range venues {
		assert.Equal(t, 1, ratings.calls[v.ID])
	}
}

func TestPipeline_RetriesThenSucceeds(t *testing.T) {
	searcher := &fakeSearcher{fn: func(_ context.Context, call int, _ models.Location) ([]venue.Venue, error) {
		if call <= 4 {
			return nil, remoteFailure()
		}
		return []venue.Venue{testVenue("a", "Cafe", meters(1))}, nil
	}}
	locations := &fakeLocations{locations: []models.Location{paris}}
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), testPipelineConfig(), nil)

	require.NoError(t, runPipeline(t, p, locations, sink))

	assert.Len(t, sink.Batches(), 1)
	assert.Empty(t, sink.Failures())
	assert.Equal(t, int32(5), searcher.calls.Load())
	assert.Equal(t, int32(5), locations.subscribes.Load())
}

func TestPipeline_RetriesExhausted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(provider.Meter(observability.MeterName))
	require.NoError(t, err)

	searcher := &fakeSearcher{fn: func(context.Context, int, models.Location) ([]venue.Venue, error) {
		return nil, remoteFailure()
	}}
	locations := &fakeLocations{locations: []models.Location{paris}}
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), testPipelineConfig(), metrics)

	err = runPipeline(t, p, locations, sink)
	var remote *api.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)

	require.Len(t, sink.Failures(), 1)
	assert.ErrorAs(t, sink.Failures()[0], &remote)
	assert.Empty(t, sink.Batches())
	assert.Equal(t, int32(6), searcher.calls.Load())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(6), searcher.calls.Load(), "no work after terminal failure")
	assert.Equal(t, int32(6), locations.subscribes.Load())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(5), counts["venues.pipeline.retries"])
	assert.Equal(t, int64(1), counts["venues.pipeline.failures"])
}

func TestPipeline_ZeroRetries(t *testing.T) {
	searcher := &fakeSearcher{fn: func(context.Context, int, models.Location) ([]venue.Venue, error) {
		return nil, remoteFailure()
	}}
	cfg := testPipelineConfig()
	cfg.MaxRetries = 0
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), cfg, nil)

	assert.Error(t, runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, sink))
	assert.Len(t, sink.Failures(), 1)
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestPipeline_LocationErrorsAreRetried(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.MaxRetries = 2
	locations := &fakeLocations{err: location.ErrNotConnected}
	sink := &recordingSink{}
	searcher := searchReturning()
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), cfg, nil)

	err := runPipeline(t, p, locations, sink)
	assert.ErrorIs(t, err, location.ErrNotConnected)
	require.Len(t, sink.Failures(), 1)
	assert.ErrorIs(t, sink.Failures()[0], location.ErrNotConnected)
	assert.Equal(t, int32(3), locations.subscribes.Load())
	assert.Zero(t, searcher.calls.Load())
}

func TestPipeline_BackoffBetweenRetries(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.MaxRetries = 2
	cfg.Backoff = config.BackoffConfig{Initial: 20 * time.Millisecond, Max: time.Second, Multiplier: 2}
	searcher := &fakeSearcher{fn: func(context.Context, int, models.Location) ([]venue.Venue, error) {
		return nil, remoteFailure()
	}}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), cfg, nil)

	start := time.Now()
	assert.Error(t, runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, &recordingSink{}))
	// 20ms then 40ms.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestPipeline_CancelDuringBackoff(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.Backoff = config.BackoffConfig{Initial: time.Hour, Max: time.Hour, Multiplier: 1}
	searched := make(chan struct{}, 1)
	searcher := &fakeSearcher{fn: func(context.Context, int, models.Location) ([]venue.Venue, error) {
		searched <- struct{}{}
		return nil, remoteFailure()
	}}
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, &fakeLocations{locations: []models.Location{paris}}, sink) }()

	<-searched
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pipeline did not stop during backoff")
	}
	assert.Empty(t, sink.Failures())
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestPipeline_CancellationDeliversNothing(t *testing.T) {
	started := make(chan struct{})
	searcher := &fakeSearcher{fn: func(ctx context.Context, _ int, _ models.Location) ([]venue.Venue, error) {
		close(started)
		<-ctx.Done()
		return []venue.Venue{testVenue("late", "Late", nil)}, nil
	}}
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), testPipelineConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, &fakeLocations{locations: []models.Location{paris}, hold: true}, sink) }()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pipeline did not stop")
	}
	assert.Empty(t, sink.Batches())
	assert.Empty(t, sink.Failures())
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestPipeline_MergeDeliversInCompletionOrder(t *testing.T) {
	first := models.NewLocation(1, 1)
	second := models.NewLocation(2, 2)
	release := make(chan struct{})

	searcher := &fakeSearcher{fn: func(ctx context.Context, _ int, loc models.Location) ([]venue.Venue, error) {
		if loc.Lat() == first.Lat() {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return []venue.Venue{testVenue("slow", "Slow", nil)}, nil
		}
		return []venue.Venue{testVenue("fast", "Fast", nil)}, nil
	}}
	sink := &recordingSink{}
	sink.onDeliver = func(b venue.Batch) {
		if b.Location.Lat() == second.Lat() {
			close(release)
		}
	}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), testPipelineConfig(), nil)

	require.NoError(t, runPipeline(t, p, &fakeLocations{locations: []models.Location{first, second}}, sink))

	batches := sink.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, second, batches[0].Location)
	assert.Equal(t, first, batches[1].Location)
	assert.False(t, sink.overlap.Load())
}

func TestPipeline_LatestDropsSupersededBatches(t *testing.T) {
	first := models.NewLocation(1, 1)
	second := models.NewLocation(2, 2)

	searcher := &fakeSearcher{fn: func(ctx context.Context, _ int, loc models.Location) ([]venue.Venue, error) {
		if loc.Lat() == first.Lat() {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []venue.Venue{testVenue("fresh", "Fresh", nil)}, nil
	}}
	cfg := testPipelineConfig()
	cfg.FanOut = config.PIPELINE_FAN_OUT_LATEST
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), cfg, nil)

	err := runPipeline(t, p, &fakeLocations{locations: []models.Location{first, second}}, sink)
	require.NoError(t, err)

	batches := sink.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, second, batches[0].Location)
	assert.Empty(t, sink.Failures())
}

func TestPipeline_WorkerPoolBoundsRemoteCalls(t *testing.T) {
	venues := make([]venue.Venue, 20)
	for i := range venues {
		venues[i] = testVenue(string(rune('a'+i)), string(rune('a'+i)), nil)
	}

	var active, peak atomic.Int32
	slow := ratingFunc(func(ctx context.Context, _ string) (*float64, error) {
		cur := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return nil, nil
	})

	cfg := testPipelineConfig()
	cfg.MaxConcurrency = 3
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searchReturning(venues...), slow, cfg, nil)

	require.NoError(t, runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, sink))
	require.Len(t, sink.Batches(), 1)
	assert.Len(t, sink.Batches()[0].Venues, 20)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

type ratingFunc func(ctx context.Context, venueID string) (*float64, error)

func (f ratingFunc) GetVenueRating(ctx context.Context, venueID string) (*float64, error) {
	return f(ctx, venueID)
}

func TestPipeline_StreamCompletesWithoutLocations(t *testing.T) {
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searchReturning(), newFakeRatings(nil), testPipelineConfig(), nil)

	assert.NoError(t, runPipeline(t, p, &fakeLocations{}, sink))
	assert.Empty(t, sink.Batches())
	assert.Empty(t, sink.Failures())
}

func TestPipeline_EmptySearchDeliversEmptyBatch(t *testing.T) {
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searchReturning(), newFakeRatings(nil), testPipelineConfig(), nil)

	require.NoError(t, runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, sink))
	require.Len(t, sink.Batches(), 1)
	assert.Zero(t, sink.Batches()[0].Len())
}

func TestPipeline_SearchTimeoutIsAFailure(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.MaxRetries = 1
	searcher := &fakeSearcher{fn: func(context.Context, int, models.Location) ([]venue.Venue, error) {
		return nil, &api.TransportError{Err: context.DeadlineExceeded}
	}}
	sink := &recordingSink{}
	p := NewVenuesPipelineService(searcher, newFakeRatings(nil), cfg, nil)

	err := runPipeline(t, p, &fakeLocations{locations: []models.Location{paris}}, sink)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Len(t, sink.Failures(), 1)
	assert.Equal(t, int32(2), searcher.calls.Load())
}
