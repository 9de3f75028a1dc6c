package venue

import (
	"time"

	"github.com/google/uuid"

	"venue-radar/models"
)

// Batch is the sorted, enriched list of venues produced for one location
// event. A later location produces a new Batch; batches are never mutated.
type Batch struct {
	ID        string          `json:"id"`
	Location  models.Location `json:"location"`
	Venues    []Venue         `json:"venues"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewBatch stamps venues with a fresh batch id.
func NewBatch(location models.Location, venues []Venue) Batch {
	return Batch{
		ID:        uuid.NewString(),
		Location:  location,
		Venues:    venues,
		CreatedAt: time.Now().UTC(),
	}
}

// Len returns the number of venues in the batch.
func (b Batch) Len() int {
	return len(b.Venues)
}
