// Package tessellate turns assembly part geometry into triangle meshes
// using a geometry kernel. One mesh is produced per part.
package tessellate

import (
	"fmt"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/kernel"
)

// Parts produces one part-local mesh per part, in declaration order. The
// renderer places each mesh at the part's current position, so the meshes
// stay valid for the whole session. Parts never mutates the model.
func Parts(m *assembly.Model, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, 0, m.Len())
	for _, p := range m.Parts() {
		solid, err := solidFor(k, p)
		if err != nil {
			return nil, err
		}
		mesh, err := toMesh(k, solid, p.ID)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Placed produces world-space meshes for every part at its position in s.
// Parts missing from s are placed at their initial position.
func Placed(m *assembly.Model, s assembly.State, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, 0, m.Len())
	for _, p := range m.Parts() {
		solid, err := solidFor(k, p)
		if err != nil {
			return nil, err
		}

		pos := p.InitialPosition
		if ps, ok := s[p.ID]; ok {
			pos = ps.Position
		}
		if pos.X != 0 || pos.Y != 0 || pos.Z != 0 {
			solid = k.Translate(solid, pos.X, pos.Y, pos.Z)
		}

		mesh, err := toMesh(k, solid, p.ID)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// solidFor creates the kernel solid for a part's geometry.
func solidFor(k kernel.Kernel, p *assembly.PartSchema) (kernel.Solid, error) {
	switch g := p.Geometry.(type) {
	case assembly.Box:
		return k.Box(g.Width, g.Height, g.Depth), nil
	case assembly.Cylinder:
		return k.Cylinder(g.RadiusTop, g.RadiusBottom, g.Height, g.Segments), nil
	default:
		return nil, fmt.Errorf("tessellate: part %s has unsupported geometry %T", p.ID, p.Geometry)
	}
}

func toMesh(k kernel.Kernel, s kernel.Solid, id assembly.PartID) (*kernel.Mesh, error) {
	mesh, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", id, err)
	}
	mesh.PartName = string(id)
	return mesh, nil
}
