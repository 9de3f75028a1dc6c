package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"venue-radar/location"
	"venue-radar/logger"
	"venue-radar/models"
)

// LocationRequest is the body of POST /v1/location.
type LocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

// LocationHandler feeds the in-process location broker.
type LocationHandler struct {
	broker   *location.PushBroker
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewLocationHandler(broker *location.PushBroker) *LocationHandler {
	return &LocationHandler{
		broker:   broker,
		validate: validator.New(),
		log:      logger.WithComponent("LocationHandler"),
	}
}

// PushLocation handles POST /v1/location
func (h *LocationHandler) PushLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid location: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := h.broker.Push(models.NewLocation(*req.Lat, *req.Lng))
	if errors.Is(err, location.ErrNotConnected) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Error pushing location")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Debug().Float64("lat", *req.Lat).Float64("lng", *req.Lng).Msg("Location pushed")
	w.WriteHeader(http.StatusAccepted)
}

// ConnectBroker handles POST /v1/broker/connect
func (h *LocationHandler) ConnectBroker(w http.ResponseWriter, r *http.Request) {
	h.broker.Connect()
	w.WriteHeader(http.StatusNoContent)
}

// DisconnectBroker handles POST /v1/broker/disconnect
func (h *LocationHandler) DisconnectBroker(w http.ResponseWriter, r *http.Request) {
	h.broker.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}
