package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"venue-radar/db"
	"venue-radar/logger"
	"venue-radar/models/venue"
)

// Every key owned by the DAO starts with KEY_PREFIX.
const KEY_PREFIX = "venues_"

const LATEST_BATCH_KEY_V1 = "venues_latest_batch_v1"
const LAST_FAILURE_KEY_V1 = "venues_last_failure_v1"

// VENUES_GEO_KEY_FORMAT_V1 indexes the venues of one batch.
const VENUES_GEO_KEY_FORMAT_V1 = "venues_geo_v1:%s"
const VENUES_GEO_PLACE_MEMBER_FORMAT_V1 = "venues_geo_place_v1:%s:%s"

// FailureRecord is the last terminal pipeline failure.
type FailureRecord struct {
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RedisVenueDAO stores the latest delivered batch and the last failure.
type RedisVenueDAO struct {
	client db.RedisClient
	log    *zerolog.Logger
}

// NewRedisVenueDAO initializes a RedisVenueDAO with the Redis client.
func NewRedisVenueDAO(client db.RedisClient) *RedisVenueDAO {
	return &RedisVenueDAO{
		client: client,
		log:    logger.WithComponent("RedisVenueDAO"),
	}
}

func geoKey(batchID string) string {
	return fmt.Sprintf(VENUES_GEO_KEY_FORMAT_V1, batchID)
}

func memberKey(batchID, venueID string) string {
	return fmt.Sprintf(VENUES_GEO_PLACE_MEMBER_FORMAT_V1, batchID, venueID)
}

// SaveLatestBatch replaces the latest batch. Venues with coordinates are
// geo-indexed under the batch; the previous batch index is removed.
func (dao *RedisVenueDAO) SaveLatestBatch(ctx context.Context, batch venue.Batch, ttl time.Duration) error {
	previous, err := dao.GetLatestBatch(ctx)
	if err != nil {
		dao.log.Warn().Err(err).Msg("Could not read previous batch")
	}

	for _, v := range batch.Venues {
		if !v.Location.HasCoordinates() {
			continue
		}
		if err := dao.client.AddLocationWithJSON(ctx, geoKey(batch.ID), memberKey(batch.ID, v.ID), v.Location.Lat(), v.Location.Lng(), v, ttl); err != nil {
			return fmt.Errorf("failed to index venue %s: %w", v.ID, err)
		}
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch %s: %w", batch.ID, err)
	}
	if err := dao.client.Set(ctx, LATEST_BATCH_KEY_V1, string(data), ttl); err != nil {
		return fmt.Errorf("failed to set latest batch in redis: %w", err)
	}

	if previous != nil && previous.ID != batch.ID {
		if err := dao.deleteBatchIndex(ctx, previous.ID); err != nil {
			dao.log.Warn().Err(err).Str("batch_id", previous.ID).Msg("Failed to delete previous batch index")
		}
	}

	dao.log.Debug().Str("batch_id", batch.ID).Int("size", batch.Len()).Msg("Saved latest batch")
	return nil
}

func (dao *RedisVenueDAO) deleteBatchIndex(ctx context.Context, batchID string) error {
	members, err := dao.client.Keys(ctx, memberKey(batchID, "*"))
	if err != nil {
		return fmt.Errorf("failed to list batch members: %w", err)
	}
	return dao.client.Del(ctx, append(members, geoKey(batchID))...)
}

// GetLatestBatch returns the latest batch, or nil if none was saved.
func (dao *RedisVenueDAO) GetLatestBatch(ctx context.Context) (*venue.Batch, error) {
	str, err := dao.client.Get(ctx, LATEST_BATCH_KEY_V1)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest batch from redis: %w", err)
	}
	var batch venue.Batch
	if err := json.Unmarshal([]byte(str), &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch JSON: %w", err)
	}
	return &batch, nil
}

// GetNearbyVenues retrieves the venues of the latest batch within radius
// kilometers of lat/lon, nearest first.
func (dao *RedisVenueDAO) GetNearbyVenues(ctx context.Context, lat, lon, radius float64) ([]venue.Venue, error) {
	batch, err := dao.GetLatestBatch(ctx)
	if err != nil || batch == nil {
		return nil, err
	}

	venuesJSON, err := dao.client.GetLocationsWithinRadius(ctx, geoKey(batch.ID), lat, lon, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to get venues: %w", err)
	}

	venues := make([]venue.Venue, len(venuesJSON))
	for i, venueJSON := range venuesJSON {
		if err := json.Unmarshal([]byte(venueJSON), &venues[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal venue JSON: %w", err)
		}
	}
	return venues, nil
}

// SaveFailure records the last terminal failure.
func (dao *RedisVenueDAO) SaveFailure(ctx context.Context, f FailureRecord) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal failure: %w", err)
	}
	if err := dao.client.Set(ctx, LAST_FAILURE_KEY_V1, string(data), 0); err != nil {
		return fmt.Errorf("failed to set failure in redis: %w", err)
	}
	return nil
}

// GetFailure returns the last terminal failure, or nil if none.
func (dao *RedisVenueDAO) GetFailure(ctx context.Context) (*FailureRecord, error) {
	str, err := dao.client.Get(ctx, LAST_FAILURE_KEY_V1)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failure from redis: %w", err)
	}
	var f FailureRecord
	if err := json.Unmarshal([]byte(str), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failure JSON: %w", err)
	}
	return &f, nil
}

func (dao *RedisVenueDAO) ClearFailure(ctx context.Context) error {
	if err := dao.client.Del(ctx, LAST_FAILURE_KEY_V1); err != nil {
		return fmt.Errorf("failed to delete failure key: %w", err)
	}
	return nil
}

// Reset deletes every key owned by the DAO.
func (dao *RedisVenueDAO) Reset(ctx context.Context) error {
	keys, err := dao.client.Keys(ctx, KEY_PREFIX+"*")
	if err != nil {
		return fmt.Errorf("failed to list venue keys: %w", err)
	}
	if err := dao.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete venue keys: %w", err)
	}
	dao.log.Info().Int("keys", len(keys)).Msg("Store reset")
	return nil
}
