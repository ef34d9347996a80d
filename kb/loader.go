package kb

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/route-link-planner/model"
)

// fleetFile is the on-disk YAML shape of a fleet catalog.
type fleetFile struct {
	Vehicles []model.VehicleProfile `yaml:"vehicles"`
}

// LoadFleet decodes a YAML fleet document and adds every vehicle to c.
// Duplicate IDs inside one document are an error.
func LoadFleet(r io.Reader, c *Catalog) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fleetFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("LoadFleet: decode yaml: %w", err)
	}
	for i, v := range doc.Vehicles {
		if err := c.Add(v); err != nil {
			return fmt.Errorf("LoadFleet: vehicle %d: %w", i, err)
		}
	}
	return nil
}

// LoadFleetFile opens path and loads it into a fresh catalog.
func LoadFleetFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFleetFile: %w", err)
	}
	defer f.Close()

	c := NewCatalog()
	if err := LoadFleet(f, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultFleet returns the built-in catalog used when no fleet file is
// configured.
func DefaultFleet() *Catalog {
	c := NewCatalog()
	for _, v := range []model.VehicleProfile{
		{ID: "1", Name: "DJI Mavic 3", MaxRangeKm: model.Float64Ptr(10), SpeedKmh: model.Float64Ptr(65), WeightGrams: model.Float64Ptr(895),
			Description: "Compact aerial photography drone with a Hasselblad camera"},
		{ID: "2", Name: "DJI Matrice 300", MaxRangeKm: model.Float64Ptr(50), SpeedKmh: model.Float64Ptr(82), WeightGrams: model.Float64Ptr(3700),
			Description: "Professional industrial drone for demanding missions"},
		{ID: "3", Name: "Autel EVO II", MaxRangeKm: model.Float64Ptr(100), SpeedKmh: model.Float64Ptr(72), WeightGrams: model.Float64Ptr(1127),
			Description: "Drone with an 8K camera and advanced capture modes"},
		{ID: "4", Name: "WingtraOne", MaxRangeKm: model.Float64Ptr(1000), SpeedKmh: model.Float64Ptr(58), WeightGrams: model.Float64Ptr(3100),
			Description: "Fixed-wing VTOL drone for mapping and surveying"},
		{ID: "5", Name: "Custom drone",
			Description: "Custom model without a range limit"},
	} {
		// IDs are unique and profiles valid.
		_ = c.Add(v)
	}
	return c
}
