package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/streetcart/groupbuy-backend/pkg/config"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

const (
	defaultBaseURL              = "https://routes.googleapis.com"
	computeRoutesPath           = "directions/v2:computeRoutes"
	routesFieldMask             = "routes.distanceMeters,routes.polyline.geoJsonLinestring"
	requestBodyReadLimit  int64 = 1024
	defaultTimeout              = 8 * time.Second
)

// Client wraps the Google Routes API. Route never fails: any upstream problem
// degrades to the straight line between the two points.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Routes base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the routing client. An empty API key is allowed and keeps
// the client in straight-line mode.
func NewClient(cfg config.RoutingConfig, logg *logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Route returns the driving polyline from one point to another.
func (c *Client) Route(ctx context.Context, from, to geo.Coordinate) []geo.Coordinate {
	straight := []geo.Coordinate{from, to}
	if c == nil || c.apiKey == "" {
		return straight
	}
	path, err := c.computeRoute(ctx, from, to)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "route lookup failed, using straight line")
		}
		return straight
	}
	if len(path) < 2 {
		return straight
	}
	return path
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

type computeRoutesRequest struct {
	Origin           waypoint `json:"origin"`
	Destination      waypoint `json:"destination"`
	TravelMode       string   `json:"travelMode"`
	PolylineEncoding string   `json:"polylineEncoding"`
}

func newWaypoint(c geo.Coordinate) waypoint {
	var w waypoint
	w.Location.LatLng = latLng{Latitude: c.Lat, Longitude: c.Lng}
	return w
}

func (c *Client) computeRoute(ctx context.Context, from, to geo.Coordinate) ([]geo.Coordinate, error) {
	payload, err := json.Marshal(computeRoutesRequest{
		Origin:           newWaypoint(from),
		Destination:      newWaypoint(to),
		TravelMode:       "DRIVE",
		PolylineEncoding: "GEO_JSON_LINESTRING",
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal routes request")
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), computeRoutesPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build routes request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", routesFieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute routes request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "routes request failed")
	}

	var apiResp struct {
		Routes []struct {
			DistanceMeters int `json:"distanceMeters"`
			Polyline       struct {
				GeoJSONLinestring struct {
					Coordinates [][]float64 `json:"coordinates"`
				} `json:"geoJsonLinestring"`
			} `json:"polyline"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode routes response")
	}
	if len(apiResp.Routes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no route returned")
	}

	// GeoJSON positions are [lng, lat].
	raw := apiResp.Routes[0].Polyline.GeoJSONLinestring.Coordinates
	path := make([]geo.Coordinate, 0, len(raw))
	for _, pos := range raw {
		if len(pos) < 2 {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "malformed route position")
		}
		path = append(path, geo.Coordinate{Lat: pos[1], Lng: pos[0]})
	}
	return path, nil
}
