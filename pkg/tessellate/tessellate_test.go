package tessellate_test

import (
	"testing"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/kernel"
	"github.com/chazu/flatpack/pkg/kernel/sdfx"
	"github.com/chazu/flatpack/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(40)
}

// makeModel builds a model from the given parts, failing the test on error.
func makeModel(t *testing.T, parts ...assembly.PartSchema) *assembly.Model {
	t.Helper()
	b := assembly.NewModelBuilder()
	for _, p := range parts {
		if err := b.AddPart(p); err != nil {
			t.Fatalf("AddPart(%s): %v", p.ID, err)
		}
	}
	return b.Build()
}

// centroid averages the mesh vertices.
func centroid(m *kernel.Mesh) (cx, cy, cz float64) {
	n := m.VertexCount()
	for i := 0; i < n; i++ {
		cx += float64(m.Vertices[i*3])
		cy += float64(m.Vertices[i*3+1])
		cz += float64(m.Vertices[i*3+2])
	}
	return cx / float64(n), cy / float64(n), cz / float64(n)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestSingleBox(t *testing.T) {
	m := makeModel(t, assembly.PartSchema{
		ID:       "shelf",
		Geometry: assembly.Box{Width: 6, Height: 0.2, Depth: 3},
	})

	meshes, err := tessellate.Parts(m, newKernel())
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	mesh := meshes[0]
	if mesh.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if mesh.PartName != "shelf" {
		t.Errorf("expected PartName %q, got %q", "shelf", mesh.PartName)
	}
	if mesh.TriangleCount() == 0 {
		t.Error("mesh should have triangles")
	}
}

func TestPartsFollowDeclarationOrder(t *testing.T) {
	m := makeModel(t,
		assembly.PartSchema{ID: "zeta", Geometry: assembly.Box{Width: 1, Height: 1, Depth: 1}},
		assembly.PartSchema{ID: "alpha", Geometry: assembly.Cylinder{RadiusTop: 0.2, RadiusBottom: 0.2, Height: 1, Segments: 16}},
	)

	meshes, err := tessellate.Parts(m, newKernel())
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].PartName != "zeta" || meshes[1].PartName != "alpha" {
		t.Errorf("mesh order = [%s %s], want [zeta alpha]", meshes[0].PartName, meshes[1].PartName)
	}
}

func TestPartsAreLocal(t *testing.T) {
	m := makeModel(t, assembly.PartSchema{
		ID:              "leg",
		Geometry:        assembly.Cylinder{RadiusTop: 0.1, RadiusBottom: 0.1, Height: 2, Segments: 16},
		InitialPosition: v3.Vec{X: 3, Y: 1, Z: 2},
	})

	meshes, err := tessellate.Parts(m, newKernel())
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}

	cx, cy, cz := centroid(meshes[0])
	const tol = 0.1
	if abs(cx) > tol || abs(cy) > tol || abs(cz) > tol {
		t.Errorf("centroid = (%.2f, %.2f, %.2f), expected near origin", cx, cy, cz)
	}
}

func TestPlacedUsesStatePositions(t *testing.T) {
	m := makeModel(t, assembly.PartSchema{
		ID:       "rail",
		Geometry: assembly.Box{Width: 1.6, Height: 0.4, Depth: 0.1},
	})
	s := assembly.Initialize(m)
	s, err := assembly.Move(s, "rail", v3.Vec{X: 5, Y: 2, Z: -1})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	meshes, err := tessellate.Placed(m, s, newKernel())
	if err != nil {
		t.Fatalf("Placed failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	cx, cy, cz := centroid(meshes[0])
	const tol = 0.2
	if abs(cx-5) > tol {
		t.Errorf("centroid X = %.2f, expected near 5", cx)
	}
	if abs(cy-2) > tol {
		t.Errorf("centroid Y = %.2f, expected near 2", cy)
	}
	if abs(cz+1) > tol {
		t.Errorf("centroid Z = %.2f, expected near -1", cz)
	}
}

func TestChairMeshes(t *testing.T) {
	m := assembly.Chair()
	meshes, err := tessellate.Placed(m, assembly.Initialize(m), newKernel())
	if err != nil {
		t.Fatalf("Placed failed: %v", err)
	}
	if len(meshes) != m.Len() {
		t.Fatalf("expected %d meshes, got %d", m.Len(), len(meshes))
	}
	for i, id := range m.IDs() {
		if meshes[i].PartName != string(id) {
			t.Errorf("mesh %d = %q, want %q", i, meshes[i].PartName, id)
		}
		if meshes[i].IsEmpty() {
			t.Errorf("mesh for %s is empty", id)
		}
	}
}

func TestUnsupportedGeometry(t *testing.T) {
	m := makeModel(t, assembly.PartSchema{ID: "ghost"})

	if _, err := tessellate.Parts(m, newKernel()); err == nil {
		t.Fatal("expected error for part without geometry")
	}
}

func TestNilModel(t *testing.T) {
	meshes, err := tessellate.Parts(nil, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meshes != nil {
		t.Errorf("expected nil meshes, got %d", len(meshes))
	}
}
