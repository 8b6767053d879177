package geo

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6371000

// Point is a geographic location in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

type boundaryMode int

const (
	modeRadius boundaryMode = iota + 1
	modePolygon
)

var (
	// ErrBadRadius is returned when a circular boundary has a non-positive radius.
	ErrBadRadius = errors.New("geo: radius must be greater than zero")
	// ErrShortRing is returned when a polygon boundary has fewer than three vertices.
	ErrShortRing = errors.New("geo: polygon needs at least three points")
)

// Boundary is a hostel perimeter. It carries exactly one shape, fixed at
// construction: a circle around a center point or a simple closed ring.
type Boundary struct {
	mode    boundaryMode
	center  Point
	radiusM float64
	ring    []Point
}

// RadiusBoundary builds a circular boundary around center.
func RadiusBoundary(center Point, radiusMeters float64) (Boundary, error) {
	if radiusMeters <= 0 {
		return Boundary{}, ErrBadRadius
	}
	return Boundary{mode: modeRadius, center: center, radiusM: radiusMeters}, nil
}

// PolygonBoundary builds a boundary from an ordered ring of vertices.
// The ring is assumed simple (non-self-intersecting); the closing edge
// back to the first vertex is implicit.
func PolygonBoundary(ring []Point) (Boundary, error) {
	if len(ring) < 3 {
		return Boundary{}, ErrShortRing
	}
	own := make([]Point, len(ring))
	copy(own, ring)
	return Boundary{mode: modePolygon, ring: own}, nil
}

// IsRadius reports whether the boundary is circular.
func (b Boundary) IsRadius() bool { return b.mode == modeRadius }

// Center returns the center of a circular boundary.
func (b Boundary) Center() Point { return b.center }

// RadiusMeters returns the radius of a circular boundary, 0 for polygons.
func (b Boundary) RadiusMeters() float64 { return b.radiusM }

// Ring returns the polygon vertices, nil for circular boundaries.
func (b Boundary) Ring() []Point { return b.ring }

// Result is the outcome of a point-in-boundary evaluation. DistanceMeters
// is only meaningful when HasDistance is set (radius mode).
type Result struct {
	Inside         bool
	DistanceMeters float64
	HasDistance    bool
}

// Evaluate reports whether p falls inside b. Pure function, safe for
// concurrent use.
func Evaluate(p Point, b Boundary) Result {
	switch b.mode {
	case modePolygon:
		return Result{Inside: inRing(p, b.ring)}
	case modeRadius:
		d := Haversine(p, b.center)
		// a point exactly on the circle counts as inside
		return Result{Inside: d <= b.radiusM, DistanceMeters: d, HasDistance: true}
	default:
		return Result{}
	}
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// inRing runs the even-odd crossing test with longitude as X and latitude
// as Y. The result does not depend on the ring's starting vertex or winding
// direction. Points exactly on an edge or vertex get no stability guarantee.
func inRing(p Point, ring []Point) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lon < (vj.Lon-vi.Lon)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
		j = i
	}
	return inside
}
