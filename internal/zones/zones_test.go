package zones

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppe-watch/compliance/internal/geom"
)

func square(name string, x1, y1, x2, y2 float64) Polygon {
	return Polygon{
		Name:   name,
		Points: [][2]float64{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}},
	}
}

func TestContains_Interior(t *testing.T) {
	z := square("Z", 0, 0, 100, 100)
	if !z.Contains(geom.Point{X: 50, Y: 50}) {
		t.Error("interior point not contained")
	}
	if z.Contains(geom.Point{X: 150, Y: 150}) {
		t.Error("exterior point contained")
	}
}

func TestContains_BoundaryIsOutside(t *testing.T) {
	z := square("Z", 0, 0, 100, 100)
	boundary := []geom.Point{
		{X: 0, Y: 50},    // left edge
		{X: 100, Y: 50},  // right edge
		{X: 50, Y: 0},    // top edge
		{X: 50, Y: 100},  // bottom edge
		{X: 0, Y: 0},     // vertex
		{X: 100, Y: 100}, // vertex
	}
	for _, p := range boundary {
		if z.Contains(p) {
			t.Errorf("boundary point %v treated as inside", p)
		}
	}
}

func TestContains_NonConvex(t *testing.T) {
	// L-shaped zone.
	z := Polygon{
		Name:   "L",
		Points: [][2]float64{{0, 0}, {100, 0}, {100, 50}, {50, 50}, {50, 100}, {0, 100}},
	}
	if !z.Contains(geom.Point{X: 25, Y: 75}) {
		t.Error("point in lower arm of L not contained")
	}
	if z.Contains(geom.Point{X: 75, Y: 75}) {
		t.Error("point in notch of L contained")
	}
}

func TestContains_TooFewVertices(t *testing.T) {
	z := Polygon{Name: "bad", Points: [][2]float64{{0, 0}, {10, 0}}}
	if z.Contains(geom.Point{X: 5, Y: 0}) {
		t.Error("degenerate polygon contained a point")
	}
}

func TestAssign_FirstMatchWins(t *testing.T) {
	polys := []Polygon{
		square("A", 0, 0, 100, 100),
		square("B", 50, 50, 150, 150), // overlaps A
	}
	name, ok := Assign(geom.Point{X: 75, Y: 75}, polys)
	if !ok || name != "A" {
		t.Errorf("Assign = %q, %v; want A in configured order", name, ok)
	}

	name, ok = Assign(geom.Point{X: 125, Y: 125}, polys)
	if !ok || name != "B" {
		t.Errorf("Assign = %q, %v; want B", name, ok)
	}
}

func TestAssign_Unzoned(t *testing.T) {
	polys := []Polygon{square("A", 0, 0, 100, 100)}
	if name, ok := Assign(geom.Point{X: 500, Y: 500}, polys); ok {
		t.Errorf("unzoned point assigned to %q", name)
	}
	if _, ok := Assign(geom.Point{X: 50, Y: 50}, nil); ok {
		t.Error("point assigned with no zones configured")
	}
}

func writeZonesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write zones file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeZonesFile(t, `{
		"cam_1": {"polygons": [
			{"name": "CraneBay", "points": [[0,0], [300,0], [300,500], [0,500]]},
			{"name": "LoadingDock", "points": [[300,0], [600,0], [600,500], [300,500]]}
		]}
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	polys := cfg.ForCamera("cam_1")
	if len(polys) != 2 {
		t.Fatalf("got %d zones, want 2", len(polys))
	}
	if polys[0].Name != "CraneBay" || polys[1].Name != "LoadingDock" {
		t.Errorf("zone order not preserved: %q, %q", polys[0].Name, polys[1].Name)
	}

	if got := cfg.ForCamera("missing"); len(got) != 0 {
		t.Errorf("unknown camera returned %d zones", len(got))
	}
}

func TestLoadConfig_RejectsTooFewVertices(t *testing.T) {
	path := writeZonesFile(t, `{
		"cam_1": {"polygons": [{"name": "Line", "points": [[0,0], [10,10]]}]}
	}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for polygon with 2 vertices")
	}
}

func TestLoadConfig_RejectsDuplicateNames(t *testing.T) {
	path := writeZonesFile(t, `{
		"cam_1": {"polygons": [
			{"name": "A", "points": [[0,0], [10,0], [10,10]]},
			{"name": "A", "points": [[20,0], [30,0], [30,10]]}
		]}
	}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for duplicate zone names")
	}
}

func TestLoadConfig_RejectsMalformedJSON(t *testing.T) {
	path := writeZonesFile(t, `{not json`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
