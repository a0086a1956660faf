package routing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

var (
	supplier = geo.Coordinate{Lat: 19.0760, Lng: 72.8777}
	vendor   = geo.Coordinate{Lat: 19.0330, Lng: 73.0297}
)

func TestRouteDecodesGeoJSONPolyline(t *testing.T) {
	respBody := `{"routes":[{"distanceMeters":21000,"polyline":{"geoJsonLinestring":{"type":"LineString","coordinates":[[73.0297,19.033],[72.95,19.05],[72.8777,19.076]]}}}]}`

	var capturedURL string
	var capturedHeaders http.Header
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["polylineEncoding"] != "GEO_JSON_LINESTRING" {
			t.Fatalf("unexpected polyline encoding %v", payload["polylineEncoding"])
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := NewClient(config.RoutingConfig{APIKey: "test-key"}, nil,
		WithBaseURL("http://routes.test"), WithHTTPClient(&http.Client{Transport: rt}))

	path := client.Route(context.Background(), vendor, supplier)
	if capturedURL != "http://routes.test/directions/v2:computeRoutes" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != routesFieldMask {
		t.Fatalf("field mask header missing")
	}
	if len(path) != 3 {
		t.Fatalf("expected 3 points, got %d", len(path))
	}
	if path[0].Lat != 19.033 || path[0].Lng != 73.0297 {
		t.Fatalf("positions must be read as [lng, lat], got %+v", path[0])
	}
}

func TestRouteFallsBackToStraightLine(t *testing.T) {
	cases := map[string]roundTripFunc{
		"transport error": func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: refused")
		},
		"upstream status": func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusForbidden, Body: io.NopCloser(strings.NewReader("denied")), Header: http.Header{}}, nil
		},
		"empty routes": func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{}`)), Header: http.Header{}}, nil
		},
		"bad json": func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{`)), Header: http.Header{}}, nil
		},
	}
	for name, rt := range cases {
		t.Run(name, func(t *testing.T) {
			client := NewClient(config.RoutingConfig{APIKey: "k"}, nil, WithHTTPClient(&http.Client{Transport: rt}))
			path := client.Route(context.Background(), vendor, supplier)
			if len(path) != 2 || path[0] != vendor || path[1] != supplier {
				t.Fatalf("expected straight line, got %+v", path)
			}
		})
	}
}

func TestRouteWithoutAPIKeySkipsUpstream(t *testing.T) {
	called := false
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unexpected")
	})
	client := NewClient(config.RoutingConfig{}, nil, WithHTTPClient(&http.Client{Transport: rt}))
	path := client.Route(context.Background(), vendor, supplier)
	if called {
		t.Fatalf("upstream must not be called without an api key")
	}
	if len(path) != 2 {
		t.Fatalf("expected straight line, got %d points", len(path))
	}

	var nilClient *Client
	if got := nilClient.Route(context.Background(), vendor, supplier); len(got) != 2 {
		t.Fatalf("nil client should still return a straight line")
	}
}
