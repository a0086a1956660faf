package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks the coordinate lies within the valid lat/lng ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("coordinate must be numeric")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lng)
	}
	return nil
}

// DistanceTo returns the haversine distance to other in kilometres.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return DistanceKm(c.Lat, c.Lng, other.Lat, other.Lng)
}

// OptionalCoordinate is a coordinate that may be absent. The zero value is None.
type OptionalCoordinate struct {
	coord Coordinate
	valid bool
}

func Some(c Coordinate) OptionalCoordinate {
	return OptionalCoordinate{coord: c, valid: true}
}

func None() OptionalCoordinate {
	return OptionalCoordinate{}
}

// FromNullable builds an OptionalCoordinate from nullable column values; the
// coordinate is present only when both parts are.
func FromNullable(lat, lng *float64) OptionalCoordinate {
	if lat == nil || lng == nil {
		return None()
	}
	return Some(Coordinate{Lat: *lat, Lng: *lng})
}

func (o OptionalCoordinate) Get() (Coordinate, bool) {
	return o.coord, o.valid
}

func (o OptionalCoordinate) IsSet() bool {
	return o.valid
}

// Nullable splits the coordinate into nullable column values.
func (o OptionalCoordinate) Nullable() (*float64, *float64) {
	if !o.valid {
		return nil, nil
	}
	lat, lng := o.coord.Lat, o.coord.Lng
	return &lat, &lng
}

// Equal reports whether both values are absent or both hold the same point.
func (o OptionalCoordinate) Equal(other OptionalCoordinate) bool {
	if o.valid != other.valid {
		return false
	}
	return !o.valid || o.coord == other.coord
}

func (o OptionalCoordinate) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.coord)
}

func (o *OptionalCoordinate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None()
		return nil
	}
	var c Coordinate
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*o = Some(c)
	return nil
}
