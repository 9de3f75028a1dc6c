package services

import (
	"context"
	"time"

	"venue-radar/dao/redis"
	"venue-radar/models"
	"venue-radar/models/venue"
)

// FeedStatus summarizes what the store currently holds.
type FeedStatus struct {
	BatchID     string               `json:"batch_id,omitempty"`
	Location    *models.Location     `json:"location,omitempty"`
	CreatedAt   *time.Time           `json:"created_at,omitempty"`
	VenueCount  int                  `json:"venue_count"`
	LastFailure *redis.FailureRecord `json:"last_failure,omitempty"`
}

type VenueService struct {
	venueDao *redis.RedisVenueDAO
}

// NewVenueService constructs a new VenueService with Redis dependency injection.
func NewVenueService(venueDao *redis.RedisVenueDAO) *VenueService {
	return &VenueService{venueDao: venueDao}
}

// GetLatestBatch returns the last delivered batch, or nil before the first.
func (vs *VenueService) GetLatestBatch(ctx context.Context) (*venue.Batch, error) {
	return vs.venueDao.GetLatestBatch(ctx)
}

// GetVenuesNearby returns the venues of the latest batch within radius
// kilometers, in display order.
func (vs *VenueService) GetVenuesNearby(ctx context.Context, lat, lon, radius float64) ([]venue.Venue, error) {
	venues, err := vs.venueDao.GetNearbyVenues(ctx, lat, lon, radius)
	if err != nil {
		return nil, err
	}
	return SortVenues(venues), nil
}

func (vs *VenueService) GetStatus(ctx context.Context) (*FeedStatus, error) {
	batch, err := vs.venueDao.GetLatestBatch(ctx)
	if err != nil {
		return nil, err
	}
	failure, err := vs.venueDao.GetFailure(ctx)
	if err != nil {
		return nil, err
	}

	status := &FeedStatus{LastFailure: failure}
	if batch != nil {
		status.BatchID = batch.ID
		status.Location = &batch.Location
		status.CreatedAt = &batch.CreatedAt
		status.VenueCount = batch.Len()
	}
	return status, nil
}
