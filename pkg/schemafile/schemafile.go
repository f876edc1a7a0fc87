// Package schemafile loads assembly models from files. The format is
// chosen by extension: .yaml/.yml, .json, or .lisp for the schema
// language evaluated by pkg/engine.
package schemafile

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/engine"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gopkg.in/yaml.v2"
)

// Document is the on-disk form of a model. Parts and points are sequences
// so that declaration order survives a round trip.
type Document struct {
	Name  string    `json:"name,omitempty" yaml:"name,omitempty"`
	Parts []PartDoc `json:"parts" yaml:"parts"`
}

// PartDoc describes one part.
type PartDoc struct {
	ID              string      `json:"id" yaml:"id"`
	IsStatic        bool        `json:"isStatic,omitempty" yaml:"static,omitempty"`
	Geometry        GeometryDoc `json:"geometry" yaml:"geometry"`
	InitialPosition [3]float64  `json:"initialPosition" yaml:"initial_position"`
	Points          []PointDoc  `json:"connectionPoints,omitempty" yaml:"connection_points,omitempty"`
}

// GeometryDoc is a tagged geometry: Type is "box" or "cylinder" and Args
// holds the dimensions in the same order as the constructors take them.
// Box args are width, height, depth. Cylinder args are radiusTop,
// radiusBottom, height and an optional segment count.
type GeometryDoc struct {
	Type string    `json:"type" yaml:"type"`
	Args []float64 `json:"args" yaml:"args"`
}

// PointDoc describes one connection point.
type PointDoc struct {
	Key    string     `json:"key" yaml:"key"`
	Pos    [3]float64 `json:"pos" yaml:"pos"`
	Target string     `json:"target" yaml:"target"`
}

// Load reads and decodes the model at path.
func Load(path string) (*assembly.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".json":
		return DecodeJSON(data)
	case ".lisp":
		return DecodeLisp(string(data))
	default:
		return nil, fmt.Errorf("schema %s: unsupported extension %q", path, ext)
	}
}

// DecodeYAML decodes a YAML document.
func DecodeYAML(data []byte) (*assembly.Model, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", assembly.ErrMalformedSchema, err)
	}
	return doc.Model()
}

// DecodeJSON decodes a JSON document.
func DecodeJSON(data []byte) (*assembly.Model, error) {
	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: json: %w", assembly.ErrMalformedSchema, err)
	}
	return doc.Model()
}

// DecodeLisp evaluates schema language source.
func DecodeLisp(source string) (*assembly.Model, error) {
	m, evalErrs, err := engine.NewEngine().Evaluate(source)
	if err != nil {
		return nil, fmt.Errorf("evaluate schema: %w", err)
	}
	if len(evalErrs) > 0 {
		return nil, fmt.Errorf("%w: %s", assembly.ErrMalformedSchema, evalErrs[0])
	}
	return m, nil
}

// Model converts the document into an assembly.Model.
func (d Document) Model() (*assembly.Model, error) {
	b := assembly.NewModelBuilder()
	for i, pd := range d.Parts {
		geom, err := pd.Geometry.geometry()
		if err != nil {
			return nil, fmt.Errorf("%w: part %d (%s): %w", assembly.ErrMalformedSchema, i, pd.ID, err)
		}
		part := assembly.PartSchema{
			ID:              assembly.PartID(pd.ID),
			IsStatic:        pd.IsStatic,
			Geometry:        geom,
			InitialPosition: vec(pd.InitialPosition),
		}
		for _, p := range pd.Points {
			part.Points = append(part.Points, assembly.ConnectionPoint{
				Key:         p.Key,
				LocalOffset: vec(p.Pos),
				TargetKey:   p.Target,
			})
		}
		if err := b.AddPart(part); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// FromModel converts a model back into its document form.
func FromModel(m *assembly.Model) Document {
	var d Document
	for _, p := range m.Parts() {
		pd := PartDoc{
			ID:              string(p.ID),
			IsStatic:        p.IsStatic,
			Geometry:        geometryDoc(p.Geometry),
			InitialPosition: arr(p.InitialPosition),
		}
		for _, c := range p.Points {
			pd.Points = append(pd.Points, PointDoc{Key: c.Key, Pos: arr(c.LocalOffset), Target: c.TargetKey})
		}
		d.Parts = append(d.Parts, pd)
	}
	return d
}

// EncodeYAML renders a model as YAML.
func EncodeYAML(m *assembly.Model) ([]byte, error) {
	return yaml.Marshal(FromModel(m))
}

// EncodeJSON renders a model as JSON.
func EncodeJSON(m *assembly.Model) ([]byte, error) {
	return sonic.Marshal(FromModel(m))
}

func (g GeometryDoc) geometry() (assembly.Geometry, error) {
	switch strings.ToLower(g.Type) {
	case "box":
		if len(g.Args) != 3 {
			return nil, fmt.Errorf("box needs 3 args, got %d", len(g.Args))
		}
		return assembly.Box{Width: g.Args[0], Height: g.Args[1], Depth: g.Args[2]}, nil
	case "cylinder":
		if len(g.Args) != 3 && len(g.Args) != 4 {
			return nil, fmt.Errorf("cylinder needs 3 or 4 args, got %d", len(g.Args))
		}
		c := assembly.Cylinder{RadiusTop: g.Args[0], RadiusBottom: g.Args[1], Height: g.Args[2], Segments: 16}
		if len(g.Args) == 4 {
			n := g.Args[3]
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return nil, fmt.Errorf("cylinder segments must be an integer, got %v", n)
			}
			c.Segments = int(n)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown geometry type %q", g.Type)
	}
}

func geometryDoc(g assembly.Geometry) GeometryDoc {
	switch d := g.(type) {
	case assembly.Box:
		return GeometryDoc{Type: "box", Args: []float64{d.Width, d.Height, d.Depth}}
	case assembly.Cylinder:
		return GeometryDoc{Type: "cylinder", Args: []float64{d.RadiusTop, d.RadiusBottom, d.Height, float64(d.Segments)}}
	}
	return GeometryDoc{}
}

func vec(a [3]float64) v3.Vec {
	return v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

func arr(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
