// core/profile_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/signalsfoundry/route-link-planner/model"
)

// ProfileDocument is what LoadElevationProfile read: the samples plus the
// optional vehicle parameters carried alongside them.
type ProfileDocument struct {
	Samples []model.ElevationSample
	Vehicle model.VehicleProfile
}

// internal JSON shapes – unexported so the file format can evolve. The
// field names follow the radio-analysis request body.
type profileJSON struct {
	Points     []profilePointJSON `json:"points"`
	DroneRange *float64           `json:"droneRange"`
	Frequency  float64            `json:"frequency"`
}

type profilePointJSON struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Elevation *float64 `json:"elevation"` // null or absent means missing
}

// LoadElevationProfile reads a previously resolved elevation profile from
// JSON, for offline analysis without an elevation source. A point without
// an elevation is kept with a NaN elevation so the analyzer fails closed on
// it; a point without coordinates is a decode error.
func LoadElevationProfile(r io.Reader) (*ProfileDocument, error) {
	var payload profileJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadElevationProfile: decode failed: %w", err)
	}

	doc := &ProfileDocument{
		Samples: make([]model.ElevationSample, 0, len(payload.Points)),
		Vehicle: model.VehicleProfile{
			MaxRangeKm:   payload.DroneRange,
			FrequencyGHz: payload.Frequency,
		},
	}
	for i, p := range payload.Points {
		if p.Lat == nil || p.Lng == nil {
			return nil, fmt.Errorf("LoadElevationProfile: point %d: %w: lat and lng are required", i, ErrInvalidCoordinate)
		}
		elev := math.NaN()
		if p.Elevation != nil {
			elev = *p.Elevation
		}
		doc.Samples = append(doc.Samples, model.ElevationSample{
			Coordinate: model.Coordinate{Lat: *p.Lat, Lng: *p.Lng},
			ElevationM: elev,
		})
	}
	return doc, nil
}
