package sdfx

import (
	"math"
	"testing"
)

// testCells keeps marching cubes cheap in tests.
const testCells = 40

func TestBox(t *testing.T) {
	k := NewWithCells(testCells)
	box := k.Box(2, 0.2, 2)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestCylinder(t *testing.T) {
	k := NewWithCells(testCells)
	cyl := k.Cylinder(0.1, 0.1, 2, 16)
	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	t.Logf("cylinder triangle count: %d", mesh.TriangleCount())
}

func TestBoundingBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	min, max := box.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{-50, -25, -12.5}
	expectMax := [3]float64{50, 25, 12.5}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestCylinderIsYUp(t *testing.T) {
	k := New()
	cyl := k.Cylinder(0.1, 0.1, 2.5, 16)
	min, max := cyl.BoundingBox()

	const tol = 0.05
	if ext := max[1] - min[1]; math.Abs(ext-2.5) > tol {
		t.Errorf("Y extent = %f, expected ~2.5", ext)
	}
	if ext := max[2] - min[2]; math.Abs(ext-0.2) > tol {
		t.Errorf("Z extent = %f, expected ~0.2", ext)
	}
	if mid := (max[1] + min[1]) / 2; math.Abs(mid) > tol {
		t.Errorf("Y center = %f, expected ~0", mid)
	}
}

func TestFrustumRadii(t *testing.T) {
	k := New()
	cone := k.Cylinder(0.5, 1, 2, 16)
	min, max := cone.BoundingBox()

	const tol = 0.05
	if ext := max[0] - min[0]; math.Abs(ext-2) > tol {
		t.Errorf("X extent = %f, expected ~2 (bottom diameter)", ext)
	}
	if ext := max[1] - min[1]; math.Abs(ext-2) > tol {
		t.Errorf("Y extent = %f, expected ~2", ext)
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	box := k.Box(10, 10, 10)
	translated := k.Translate(box, 100, 200, 300)

	min, max := translated.BoundingBox()

	// Translated box(10,10,10) by (100,200,300) should be centered at (100,200,300).
	const tol = 0.5
	expectMin := [3]float64{95, 195, 295}
	expectMax := [3]float64{105, 205, 305}

	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestNewWithCellsDefaults(t *testing.T) {
	if k := NewWithCells(0); k.cells != DefaultMeshCells {
		t.Errorf("cells = %d, want %d", k.cells, DefaultMeshCells)
	}
	if k := NewWithCells(12); k.cells != 12 {
		t.Errorf("cells = %d, want 12", k.cells)
	}
}
