package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// VenueRoutes serves the read surface.
type VenueRoutes interface {
	GetVenuesNearby(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
	GetChart(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

// LocationRoutes drives the location broker.
type LocationRoutes interface {
	PushLocation(w http.ResponseWriter, r *http.Request)
	ConnectBroker(w http.ResponseWriter, r *http.Request)
	DisconnectBroker(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	venueHandler    VenueRoutes
	locationHandler LocationRoutes
	router          *mux.Router
}

// NewRouter creates a router with the app’s routes.
func NewRouter(
	venueHandler VenueRoutes,
	locationHandler LocationRoutes,
	router *mux.Router) *Router {
	return &Router{
		venueHandler:    venueHandler,
		locationHandler: locationHandler,
		router:          router,
	}
}

func (r *Router) RegisterRoutes() {
	// optional ?lat={latitude(float)}&lon={longitude(float)}&radius={radius km(float)}&verbose={bool}
	r.router.HandleFunc("/v1/venues/nearby", r.venueHandler.GetVenuesNearby).Methods(http.MethodGet)
	r.router.HandleFunc("/v1/venues/status", r.venueHandler.GetStatus).Methods(http.MethodGet)
	r.router.HandleFunc("/v1/venues/chart", r.venueHandler.GetChart).Methods(http.MethodGet)

	// expects {"lat": float, "lng": float}
	r.router.HandleFunc("/v1/location", r.locationHandler.PushLocation).Methods(http.MethodPost)
	r.router.HandleFunc("/v1/broker/connect", r.locationHandler.ConnectBroker).Methods(http.MethodPost)
	r.router.HandleFunc("/v1/broker/disconnect", r.locationHandler.DisconnectBroker).Methods(http.MethodPost)

	r.router.HandleFunc("/ping", r.venueHandler.Ping).Methods(http.MethodGet)
}
