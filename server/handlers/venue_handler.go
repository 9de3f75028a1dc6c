package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"venue-radar/logger"
	"venue-radar/models/venue"
	services "venue-radar/service"
	"venue-radar/util"
)

const (
	LAT_QUERY_ARG     = "lat"
	LON_QUERY_ARG     = "lon"
	RADIUS_QUERY_ARG  = "radius"
	VERBOSE_QUERY_ARG = "verbose"
)

// MinifiedVenue is the small form returned when verbose=false.
type MinifiedVenue struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category,omitempty"`
	IconURL        string   `json:"icon_url,omitempty"`
	DistanceMeters *int     `json:"distance_meters,omitempty"`
	RatingStatus   string   `json:"rating_status"`
	Rating         *float64 `json:"rating,omitempty"`
}

type VenueHandler struct {
	venueService *services.VenueService
	iconSize     int
	log          *zerolog.Logger
}

func NewVenueHandler(venueService *services.VenueService, iconSize int) *VenueHandler {
	if iconSize <= 0 {
		iconSize = venue.DefaultIconSize
	}
	return &VenueHandler{
		venueService: venueService,
		iconSize:     iconSize,
		log:          logger.WithComponent("VenueHandler"),
	}
}

// GetVenuesNearby handles GET /v1/venues/nearby. Without coordinates it
// returns the whole latest batch; with lat, lon and radius (km) only the
// venues of that batch within the radius.
func (h *VenueHandler) GetVenuesNearby(w http.ResponseWriter, r *http.Request) {
	vals := r.URL.Query()
	verbose := false
	if v := vals.Get(VERBOSE_QUERY_ARG); v != "" {
		verbose, _ = strconv.ParseBool(v)
	}

	var venues []venue.Venue
	if hasAnyArg(vals, LAT_QUERY_ARG, LON_QUERY_ARG, RADIUS_QUERY_ARG) {
		lat, lon, radius, ok := parseArea(vals, w)
		if !ok {
			return // error already written
		}
		var err error
		venues, err = h.venueService.GetVenuesNearby(r.Context(), lat, lon, radius)
		if err != nil {
			h.log.Error().Err(err).Msg("Error loading nearby venues")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	} else {
		batch, err := h.venueService.GetLatestBatch(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Error loading latest batch")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if batch != nil {
			venues = batch.Venues
		}
	}

	if venues == nil {
		venues = []venue.Venue{}
	}
	writeJSON(w, http.StatusOK, h.transform(venues, verbose), h.log)
}

// GetStatus handles GET /v1/venues/status
func (h *VenueHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.venueService.GetStatus(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Error loading feed status")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, status, h.log)
}

// GetChart handles GET /v1/venues/chart
func (h *VenueHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	batch, err := h.venueService.GetLatestBatch(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Error loading latest batch")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if batch == nil {
		http.Error(w, "No venues yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := util.RenderBatchChart(w, *batch); err != nil {
		h.log.Error().Err(err).Msg("Error rendering chart")
	}
}

// Ping handles GET /ping
func (h *VenueHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "pong"}, h.log)
}

func (h *VenueHandler) transform(venues []venue.Venue, verbose bool) interface{} {
	if verbose {
		return venues
	}
	minified := make([]MinifiedVenue, 0, len(venues))
	for _, v := range venues {
		m := MinifiedVenue{
			ID:             v.ID,
			Name:           v.Name,
			DistanceMeters: v.Location.Distance,
			RatingStatus:   v.RatingStatus.String(),
			Rating:         v.Rating,
		}
		if v.Category != nil {
			m.Category = v.Category.Name
			m.IconURL = v.Category.IconURL(h.iconSize)
		}
		minified = append(minified, m)
	}
	return minified
}

func hasAnyArg(vals url.Values, names ...string) bool {
	for _, name := range names {
		if vals.Has(name) {
			return true
		}
	}
	return false
}

func parseArea(vals url.Values, w http.ResponseWriter) (lat, lon, radius float64, ok bool) {
	var err error

	lat, err = parseArgFloat64(vals, LAT_QUERY_ARG)
	if err != nil || lat < -90 || lat > 90 {
		http.Error(w, "Invalid argument "+LAT_QUERY_ARG, http.StatusBadRequest)
		return
	}
	lon, err = parseArgFloat64(vals, LON_QUERY_ARG)
	if err != nil || lon < -180 || lon > 180 {
		http.Error(w, "Invalid argument "+LON_QUERY_ARG, http.StatusBadRequest)
		return
	}
	radius, err = parseArgFloat64(vals, RADIUS_QUERY_ARG)
	if err != nil || radius <= 0 {
		http.Error(w, "Invalid argument "+RADIUS_QUERY_ARG, http.StatusBadRequest)
		return
	}
	ok = true
	return
}

func parseArgFloat64(vals url.Values, name string) (float64, error) {
	return strconv.ParseFloat(vals.Get(name), 64)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, log *zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}
