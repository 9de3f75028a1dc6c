package foursquare

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"venue-radar/api"
	"venue-radar/models"
	"venue-radar/models/venue"
)

const tracerName = "venue-radar/api/foursquare"

// FoursquareApiClient embeds the common HTTPClient
type FoursquareApiClient struct {
	*api.HTTPClient // Embed HTTPClient to reuse its methods and properties
	credentials     Credentials
	tracer          trace.Tracer
}

// NewFoursquareApiClient creates a new instance of FoursquareApiClient
func NewFoursquareApiClient(httpClient *api.HTTPClient, credentials Credentials) *FoursquareApiClient {
	return &FoursquareApiClient{
		HTTPClient:  httpClient,
		credentials: credentials,
		tracer:      otel.Tracer(tracerName),
	}
}

// SearchVenues retrieves the venues around location
func (c *FoursquareApiClient) SearchVenues(ctx context.Context, location models.Location) ([]venue.Venue, error) {
	if !location.HasCoordinates() {
		return nil, fmt.Errorf("search venues: location has no coordinates")
	}

	ctx, span := c.tracer.Start(ctx, "foursquare.SearchVenues", trace.WithAttributes(
		attribute.Float64("lat", location.Lat()),
		attribute.Float64("lng", location.Lng()),
	))
	defer span.End()

	query := c.credentialsQuery()
	query.Set("ll", fmt.Sprintf("%v,%v", location.Lat(), location.Lng()))

	body, err := c.Get(ctx, SearchVenuesEndpoint, query)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	venues, err := ParseSearchVenuesResponse(body)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("venues", len(venues)))
	return venues, nil
}

// GetVenueRating retrieves the rating of a venue given its id
func (c *FoursquareApiClient) GetVenueRating(ctx context.Context, venueID string) (*float64, error) {
	ctx, span := c.tracer.Start(ctx, "foursquare.GetVenueRating", trace.WithAttributes(
		attribute.String("venue_id", venueID),
	))
	defer span.End()

	endpoint := strings.Replace(VenueEndpointTemplate, VenueIDPlaceholder, url.PathEscape(venueID), 1)
	body, err := c.Get(ctx, endpoint, c.credentialsQuery())
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	rating, err := ParseVenueRating(body)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return rating, nil
}

// credentialsQuery builds the query parameters every request carries.
func (c *FoursquareApiClient) credentialsQuery() url.Values {
	query := url.Values{}
	query.Set("client_id", c.credentials.ClientID)
	query.Set("client_secret", c.credentials.ClientSecret)
	query.Set("m", "foursquare")
	query.Set("v", c.credentials.APIVersion)
	return query
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
