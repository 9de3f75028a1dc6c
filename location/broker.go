package location

import (
	"context"
	"errors"
	"time"

	"venue-radar/models"
)

// ErrNotConnected is returned by a Broker that has not reported ready.
var ErrNotConnected = errors.New("location broker not connected")

// Priority is a hint about the accuracy/power trade-off of updates.
type Priority string

const (
	PriorityHighAccuracy          Priority = "high_accuracy"
	PriorityBalancedPowerAccuracy Priority = "balanced_power_accuracy"
	PriorityLowPower              Priority = "low_power"
	PriorityNoPower               Priority = "no_power"
)

// RequestConfig describes the desired cadence of location updates.
type RequestConfig struct {
	Priority        Priority
	Interval        time.Duration
	FastestInterval time.Duration
}

// DefaultRequestConfig returns a balanced request: one update every 10s,
// never faster than every 7.5s.
func DefaultRequestConfig() RequestConfig {
	return RequestConfig{
		Priority:        PriorityBalancedPowerAccuracy,
		Interval:        10 * time.Second,
		FastestInterval: 7500 * time.Millisecond,
	}
}

// Broker is the platform capability that provides device locations.
type Broker interface {
	// LastKnown returns the most recent known location, or nil if none.
	LastKnown(ctx context.Context) (*models.Location, error)
	// RequestUpdates registers for continuous updates. The registration is
	// released by closing the returned Subscription.
	RequestUpdates(ctx context.Context, cfg RequestConfig) (Subscription, error)
}

// Subscription is an active location-updates registration.
type Subscription interface {
	// Locations yields updates until the subscription is closed or the
	// broker drops it, at which point the channel is closed.
	Locations() <-chan models.Location
	// Err reports why the broker dropped the subscription, if it did.
	Err() error
	// Close releases the registration. It is safe to call more than once.
	Close() error
}

// Availability is notified of the broker lifecycle by whichever component
// owns the platform connection.
type Availability interface {
	// OnReady is called once the broker accepts requests.
	OnReady(broker Broker)
	// OnUnavailable is called when the broker stops accepting requests. No
	// call to the broker should be made afterwards.
	OnUnavailable()
}
