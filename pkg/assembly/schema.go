package assembly

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PartID is the unique key of a part within a model.
type PartID string

// GeometryKind distinguishes between part shapes.
type GeometryKind int

const (
	GeomBox      GeometryKind = iota // rectangular solid
	GeomCylinder                     // cylinder or frustum, axis along Y
)

func (k GeometryKind) String() string {
	switch k {
	case GeomBox:
		return "box"
	case GeomCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// Geometry is the shape of a part. Only the rendering side consumes it.
type Geometry interface {
	Kind() GeometryKind
}

// Box is a rectangular solid centered on the part origin.
type Box struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Depth  float64 `json:"depth" yaml:"depth"`
}

func (Box) Kind() GeometryKind { return GeomBox }

// Cylinder is a Y-aligned cylinder (or frustum when the radii differ)
// centered on the part origin.
type Cylinder struct {
	RadiusTop    float64 `json:"radiusTop" yaml:"radius_top"`
	RadiusBottom float64 `json:"radiusBottom" yaml:"radius_bottom"`
	Height       float64 `json:"height" yaml:"height"`
	Segments     int     `json:"segments" yaml:"segments"`
}

func (Cylinder) Kind() GeometryKind { return GeomCylinder }

// ConnectionPoint is a named anchor on a part that mates with the point
// keyed TargetKey on another part.
type ConnectionPoint struct {
	Key         string
	LocalOffset v3.Vec // relative to the owning part's origin
	TargetKey   string
}

// PartSchema is the immutable description of one part.
type PartSchema struct {
	ID              PartID
	IsStatic        bool
	Geometry        Geometry
	InitialPosition v3.Vec
	Points          []ConnectionPoint // declaration order
}

// Point returns the connection point with the given key.
func (p *PartSchema) Point(key string) (ConnectionPoint, bool) {
	for _, c := range p.Points {
		if c.Key == key {
			return c, true
		}
	}
	return ConnectionPoint{}, false
}

// Model is an ordered, read-only set of parts. Iteration order is the
// declaration order of the parts and is relied upon by the snap resolver.
type Model struct {
	parts []*PartSchema
	index map[PartID]int
}

// Parts returns the parts in declaration order. Callers must not modify
// the returned schemas.
func (m *Model) Parts() []*PartSchema {
	return m.parts
}

// Part returns the schema for id, or nil.
func (m *Model) Part(id PartID) *PartSchema {
	i, ok := m.index[id]
	if !ok {
		return nil
	}
	return m.parts[i]
}

// Len returns the number of parts.
func (m *Model) Len() int {
	return len(m.parts)
}

// IDs returns the part ids in declaration order.
func (m *Model) IDs() []PartID {
	ids := make([]PartID, len(m.parts))
	for i, p := range m.parts {
		ids[i] = p.ID
	}
	return ids
}

// ModelBuilder accumulates part definitions into a Model.
type ModelBuilder struct {
	parts []*PartSchema
	index map[PartID]int
}

// NewModelBuilder returns an empty builder.
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{index: make(map[PartID]int)}
}

// AddPart appends a part. Part ids must be unique and non-empty, and point
// keys must be unique within the part.
func (b *ModelBuilder) AddPart(p PartSchema) error {
	if p.ID == "" {
		return fmt.Errorf("%w: part id must not be empty", ErrMalformedSchema)
	}
	if _, exists := b.index[p.ID]; exists {
		return fmt.Errorf("%w: part %q already defined", ErrMalformedSchema, p.ID)
	}
	seen := make(map[string]bool, len(p.Points))
	for _, c := range p.Points {
		if c.Key == "" {
			return fmt.Errorf("%w: part %q has a connection point with an empty key", ErrMalformedSchema, p.ID)
		}
		if seen[c.Key] {
			return fmt.Errorf("%w: part %q declares point %q twice", ErrMalformedSchema, p.ID, c.Key)
		}
		seen[c.Key] = true
	}

	part := p
	part.Points = append([]ConnectionPoint(nil), p.Points...)
	b.index[p.ID] = len(b.parts)
	b.parts = append(b.parts, &part)
	return nil
}

// Len returns the number of parts added so far.
func (b *ModelBuilder) Len() int {
	return len(b.parts)
}

// Build returns the finished model. The builder can keep being used; later
// additions do not affect models already built.
func (b *ModelBuilder) Build() *Model {
	m := &Model{
		parts: append([]*PartSchema(nil), b.parts...),
		index: make(map[PartID]int, len(b.index)),
	}
	for id, i := range b.index {
		m.index[id] = i
	}
	return m
}
