package hostel

import (
	"strings"
	"testing"

	"hostelms/internal/geo"
)

const sampleConfig = `{
	"hostels": [
		{"name": "North Block", "center": {"latitude": 11.14407, "longitude": 77.32565}, "radiusMeters": 2000},
		{"name": "South Block", "polygon": [
			{"latitude": 11.140, "longitude": 77.320},
			{"latitude": 11.140, "longitude": 77.330},
			{"latitude": 11.150, "longitude": 77.330},
			{"latitude": 11.150, "longitude": 77.320}
		]}
	]
}`

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	north, ok := reg.Boundary("North Block")
	if !ok || !north.IsRadius() {
		t.Fatalf("North Block must be a radius boundary")
	}
	if north.RadiusMeters() != 2000 {
		t.Errorf("expected radius 2000, got %f", north.RadiusMeters())
	}

	south, ok := reg.Boundary("South Block")
	if !ok || south.IsRadius() {
		t.Fatalf("South Block must be a polygon boundary")
	}
	if len(south.Ring()) != 4 {
		t.Errorf("expected 4 vertices, got %d", len(south.Ring()))
	}

	if _, ok := reg.Boundary("Ghost Block"); ok {
		t.Error("unknown hostel must not resolve")
	}
	if len(reg.Document()) != 2 {
		t.Errorf("expected 2 documented entries, got %d", len(reg.Document()))
	}
}

func TestParseRegistry_RejectsBothModes(t *testing.T) {
	data := `{"hostels": [{
		"name": "Ambiguous",
		"center": {"latitude": 1, "longitude": 2}, "radiusMeters": 100,
		"polygon": [{"latitude": 0, "longitude": 0}, {"latitude": 0, "longitude": 1}, {"latitude": 1, "longitude": 1}]
	}]}`
	_, err := ParseRegistry([]byte(data))
	if err == nil || !strings.Contains(err.Error(), "both") {
		t.Fatalf("expected both-modes rejection, got %v", err)
	}
}

func TestParseRegistry_RejectsShapelessEntry(t *testing.T) {
	if _, err := ParseRegistry([]byte(`{"hostels": [{"name": "Empty"}]}`)); err == nil {
		t.Fatal("expected error for entry without a shape")
	}
}

func TestParseRegistry_RejectsInvalidShapes(t *testing.T) {
	badRadius := `{"hostels": [{"name": "A", "center": {"latitude": 1, "longitude": 2}, "radiusMeters": -5}]}`
	if _, err := ParseRegistry([]byte(badRadius)); err == nil {
		t.Fatal("expected error for negative radius")
	}

	shortRing := `{"hostels": [{"name": "B", "polygon": [{"latitude": 0, "longitude": 0}, {"latitude": 1, "longitude": 1}]}]}`
	if _, err := ParseRegistry([]byte(shortRing)); err == nil {
		t.Fatal("expected error for two-point polygon")
	}
}

func TestParseRegistry_RejectsDuplicateNames(t *testing.T) {
	data := `{"hostels": [
		{"name": "Twin", "center": {"latitude": 1, "longitude": 2}, "radiusMeters": 100},
		{"name": "Twin", "center": {"latitude": 3, "longitude": 4}, "radiusMeters": 200}
	]}`
	if _, err := ParseRegistry([]byte(data)); err == nil {
		t.Fatal("expected error for duplicate hostel name")
	}
}

func TestBoundaryEvaluatesFromConfig(t *testing.T) {
	reg, err := ParseRegistry([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := reg.Boundary("South Block")
	res := geo.Evaluate(geo.Point{Lat: 11.145, Lon: 77.325}, b)
	if !res.Inside {
		t.Fatal("interior point reported outside configured polygon")
	}
}
