package hostel

import (
	"encoding/json"
	"fmt"
	"os"

	"hostelms/internal/geo"
)

// BoundarySpec is one hostel entry in the boundary config document. Exactly
// one of center+radius or polygon may be present; entries carrying both are
// rejected at parse time so mode ambiguity cannot reach the evaluator.
type BoundarySpec struct {
	Name         string      `json:"name"`
	Center       *geo.Point  `json:"center,omitempty"`
	RadiusMeters float64     `json:"radiusMeters,omitempty"`
	Polygon      []geo.Point `json:"polygon,omitempty"`
}

// Registry is the single source of truth for hostel boundaries. It is parsed
// once at startup and served read-only to both the verifier and the clients.
type Registry struct {
	specs  []BoundarySpec
	byName map[string]geo.Boundary
}

// LoadRegistry reads and parses the boundary config file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hostel config: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a registry from the JSON config document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Hostels []BoundarySpec `json:"hostels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse hostel config: %w", err)
	}

	reg := &Registry{byName: make(map[string]geo.Boundary, len(doc.Hostels))}
	for _, spec := range doc.Hostels {
		if spec.Name == "" {
			return nil, fmt.Errorf("hostel entry without a name")
		}
		if _, dup := reg.byName[spec.Name]; dup {
			return nil, fmt.Errorf("hostel %q defined twice", spec.Name)
		}
		b, err := boundaryFromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("hostel %q: %w", spec.Name, err)
		}
		reg.byName[spec.Name] = b
		reg.specs = append(reg.specs, spec)
	}
	return reg, nil
}

func boundaryFromSpec(spec BoundarySpec) (geo.Boundary, error) {
	hasRadius := spec.Center != nil || spec.RadiusMeters != 0
	hasPolygon := len(spec.Polygon) > 0
	switch {
	case hasRadius && hasPolygon:
		return geo.Boundary{}, fmt.Errorf("carries both center/radius and polygon; pick one")
	case hasRadius:
		if spec.Center == nil {
			return geo.Boundary{}, fmt.Errorf("radius without a center")
		}
		return geo.RadiusBoundary(*spec.Center, spec.RadiusMeters)
	case hasPolygon:
		return geo.PolygonBoundary(spec.Polygon)
	default:
		return geo.Boundary{}, fmt.Errorf("no boundary shape given")
	}
}

// Boundary returns the boundary for a hostel name.
func (r *Registry) Boundary(name string) (geo.Boundary, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Document returns the config entries as parsed, for serving to clients.
func (r *Registry) Document() []BoundarySpec {
	return r.specs
}
