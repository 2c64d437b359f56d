package zones

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CameraZones holds the ordered zone list for one camera.
type CameraZones struct {
	Polygons []Polygon `json:"polygons"`
}

// Config maps camera_id to its zone definitions. The JSON shape is
//
//	{"cam_1": {"polygons": [{"name": "CraneBay", "points": [[x,y], ...]}]}}
//
// mirroring the zones file written by the zone configuration tool.
type Config map[string]CameraZones

// LoadConfig reads and validates a zones configuration file. Malformed
// configuration is a load-time error: a polygon with fewer than three
// vertices or a duplicate zone name within one camera rejects the whole
// file, and the session must not start.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("zones config must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse zones config: %w", err)
	}

	for cameraID, cz := range cfg {
		seen := make(map[string]bool, len(cz.Polygons))
		for _, poly := range cz.Polygons {
			if poly.Name == "" {
				return nil, fmt.Errorf("camera %q: zone with empty name", cameraID)
			}
			if len(poly.Points) < 3 {
				return nil, fmt.Errorf("camera %q: zone %q has %d vertices, need at least 3",
					cameraID, poly.Name, len(poly.Points))
			}
			if seen[poly.Name] {
				return nil, fmt.Errorf("camera %q: duplicate zone name %q", cameraID, poly.Name)
			}
			seen[poly.Name] = true
		}
	}

	return cfg, nil
}

// ForCamera returns the ordered zone list for a camera. Cameras without
// configured zones get an empty list, so every observation is unzoned.
func (c Config) ForCamera(cameraID string) []Polygon {
	return c[cameraID].Polygons
}
