package geo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var legacyCoordRe = regexp.MustCompile(`\[([-\d.]+),([-\d.]+)\]`)

// LegacyLocation is the decoded form of the "<name> [<lat>,<lng>]" strings
// written by older clients.
type LegacyLocation struct {
	Name       string
	Coordinate OptionalCoordinate
}

// ParseLegacyLocation extracts the display name and the bracketed coordinate
// pair. Text without a bracketed pair yields the trimmed text and no coordinate.
func ParseLegacyLocation(raw string) (LegacyLocation, error) {
	match := legacyCoordRe.FindStringSubmatchIndex(raw)
	if match == nil {
		return LegacyLocation{Name: strings.TrimSpace(raw)}, nil
	}

	lat, err := strconv.ParseFloat(raw[match[2]:match[3]], 64)
	if err != nil {
		return LegacyLocation{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(raw[match[4]:match[5]], 64)
	if err != nil {
		return LegacyLocation{}, fmt.Errorf("parse longitude: %w", err)
	}
	coord := Coordinate{Lat: lat, Lng: lng}
	if err := coord.Validate(); err != nil {
		return LegacyLocation{}, err
	}

	name := strings.TrimSpace(raw[:match[0]] + raw[match[1]:])
	return LegacyLocation{Name: name, Coordinate: Some(coord)}, nil
}

// FormatLegacyLocation renders name and coordinate in the legacy format.
func FormatLegacyLocation(name string, coord OptionalCoordinate) string {
	c, ok := coord.Get()
	if !ok {
		return strings.TrimSpace(name)
	}
	return fmt.Sprintf("%s [%s,%s]",
		strings.TrimSpace(name),
		strconv.FormatFloat(c.Lat, 'f', -1, 64),
		strconv.FormatFloat(c.Lng, 'f', -1, 64),
	)
}
