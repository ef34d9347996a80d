package model

import "fmt"

// Coordinate is a geographic position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// String renders the coordinate as "lat,lng" with six decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// ElevationSample is a coordinate paired with the terrain elevation in
// metres above sea level. Elevation may be negative. NaN marks a sample
// whose elevation could not be resolved.
type ElevationSample struct {
	Coordinate
	ElevationM float64 `json:"elevation"`
}
