package geo

import (
	"math"
	"testing"
)

// offsetNorth returns a point roughly meters north of p.
func offsetNorth(p Point, meters float64) Point {
	return Point{Lat: p.Lat + meters/earthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

func TestRadiusBoundary_Validation(t *testing.T) {
	if _, err := RadiusBoundary(Point{}, 0); err != ErrBadRadius {
		t.Fatalf("expected ErrBadRadius, got %v", err)
	}
	if _, err := RadiusBoundary(Point{}, -10); err != ErrBadRadius {
		t.Fatalf("expected ErrBadRadius, got %v", err)
	}
	if _, err := RadiusBoundary(Point{Lat: 11.14407, Lon: 77.32565}, 2000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPolygonBoundary_Validation(t *testing.T) {
	if _, err := PolygonBoundary([]Point{{Lat: 1}, {Lat: 2}}); err != ErrShortRing {
		t.Fatalf("expected ErrShortRing, got %v", err)
	}
}

func TestEvaluate_RadiusInside(t *testing.T) {
	center := Point{Lat: 11.14407, Lon: 77.32565}
	b, err := RadiusBoundary(center, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	near := offsetNorth(center, 50)
	res := Evaluate(near, b)
	if !res.Inside {
		t.Fatalf("point 50m from center should be inside a 2000m boundary, distance %f", res.DistanceMeters)
	}
	if !res.HasDistance {
		t.Fatal("radius mode must report distance")
	}
	if res.DistanceMeters < 40 || res.DistanceMeters > 60 {
		t.Errorf("expected ~50m, got %f", res.DistanceMeters)
	}
}

func TestEvaluate_RadiusOutside(t *testing.T) {
	center := Point{Lat: 11.14407, Lon: 77.32565}
	b, _ := RadiusBoundary(center, 2000)

	far := offsetNorth(center, 2500)
	res := Evaluate(far, b)
	if res.Inside {
		t.Fatalf("point 2500m from center should be outside a 2000m boundary, distance %f", res.DistanceMeters)
	}
	if res.DistanceMeters < 2400 || res.DistanceMeters > 2600 {
		t.Errorf("expected ~2500m, got %f", res.DistanceMeters)
	}
}

func TestEvaluate_RadiusBoundaryCountsInside(t *testing.T) {
	// distance 0 is trivially <= radius; the inequality is non-strict
	center := Point{Lat: -6.2088, Lon: 106.8456}
	b, _ := RadiusBoundary(center, 50)
	if res := Evaluate(center, b); !res.Inside || res.DistanceMeters != 0 {
		t.Fatalf("center must be inside with distance 0, got %+v", res)
	}
}

func TestEvaluate_Polygon(t *testing.T) {
	ring := []Point{
		{Lat: 11.140, Lon: 77.320},
		{Lat: 11.140, Lon: 77.330},
		{Lat: 11.150, Lon: 77.330},
		{Lat: 11.150, Lon: 77.320},
	}
	b, err := PolygonBoundary(ring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := Point{Lat: 11.145, Lon: 77.325}
	if res := Evaluate(in, b); !res.Inside {
		t.Fatal("interior point reported outside")
	}
	out := Point{Lat: 11.155, Lon: 77.325}
	if res := Evaluate(out, b); res.Inside {
		t.Fatal("exterior point reported inside")
	}
	if res := Evaluate(in, b); res.HasDistance {
		t.Fatal("polygon mode must not report a distance")
	}
}

func TestEvaluate_PolygonRotationInvariant(t *testing.T) {
	ring := []Point{
		{Lat: 11.140, Lon: 77.320},
		{Lat: 11.140, Lon: 77.330},
		{Lat: 11.150, Lon: 77.330},
		{Lat: 11.150, Lon: 77.320},
	}
	in := Point{Lat: 11.145, Lon: 77.325}
	out := Point{Lat: 11.135, Lon: 77.325}

	for shift := 0; shift < len(ring); shift++ {
		rotated := append(append([]Point{}, ring[shift:]...), ring[:shift]...)
		b, err := PolygonBoundary(rotated)
		if err != nil {
			t.Fatalf("rotation %d: %v", shift, err)
		}
		if res := Evaluate(in, b); !res.Inside {
			t.Errorf("rotation %d: interior point reported outside", shift)
		}
		if res := Evaluate(out, b); res.Inside {
			t.Errorf("rotation %d: exterior point reported inside", shift)
		}
	}
}

func TestEvaluate_PolygonWindingInvariant(t *testing.T) {
	ring := []Point{
		{Lat: 11.140, Lon: 77.320},
		{Lat: 11.140, Lon: 77.330},
		{Lat: 11.150, Lon: 77.330},
		{Lat: 11.150, Lon: 77.320},
	}
	reversed := make([]Point, len(ring))
	for i, p := range ring {
		reversed[len(ring)-1-i] = p
	}
	cw, _ := PolygonBoundary(ring)
	ccw, _ := PolygonBoundary(reversed)

	probe := Point{Lat: 11.145, Lon: 77.325}
	if Evaluate(probe, cw).Inside != Evaluate(probe, ccw).Inside {
		t.Fatal("winding direction changed the result")
	}
}

func TestHaversine(t *testing.T) {
	a := Point{Lat: -6.2088, Lon: 106.8456}
	if d := Haversine(a, a); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
	// roughly 133m between these two points
	d := Haversine(a, Point{Lat: -6.2100, Lon: 106.8456})
	if d < 100 || d > 200 {
		t.Errorf("expected ~133m, got %f", d)
	}
}
