package venue

import (
	"encoding/json"
	"fmt"
)

// RatingStatus tracks the lifecycle of a venue rating fetch.
type RatingStatus int

const (
	RatingNotLoaded RatingStatus = iota
	RatingLoading
	RatingAvailable
	RatingNotAvailable
	RatingError
)

var ratingStatusNames = map[RatingStatus]string{
	RatingNotLoaded:    "not_loaded",
	RatingLoading:      "loading",
	RatingAvailable:    "available",
	RatingNotAvailable: "not_available",
	RatingError:        "error",
}

func (s RatingStatus) String() string {
	if name, ok := ratingStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("rating_status(%d)", int(s))
}

// IsTerminal reports whether no further transition is expected.
func (s RatingStatus) IsTerminal() bool {
	return s == RatingAvailable || s == RatingNotAvailable || s == RatingError
}

func (s RatingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *RatingStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for status, n := range ratingStatusNames {
		if n == name {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown rating status %q", name)
}
