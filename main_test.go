//go:build !manifold

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/config"
	"github.com/rs/zerolog"
)

func TestNewKernel(t *testing.T) {
	k, err := newKernel(config.Config{Kernel: "sdfx", MeshCells: 40})
	if err != nil || k == nil {
		t.Fatalf("newKernel(sdfx) = %v, %v", k, err)
	}

	// Without the build tag the manifold kernel is a stub.
	if _, err := newKernel(config.Config{Kernel: "manifold", MeshCells: 40}); err == nil || !strings.Contains(err.Error(), "manifold") {
		t.Errorf("newKernel(manifold) err = %v, want unavailable", err)
	}
}

func TestLoadModelBuiltinChair(t *testing.T) {
	m, err := loadModel(config.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("loadModel: %v", err)
	}
	if m.Len() != assembly.Chair().Len() {
		t.Errorf("Len = %d, want the chair", m.Len())
	}
}

func TestLoadModelRejectsNonFinite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := "parts:\n  - id: seat\n    static: true\n    geometry: {type: box, args: [.inf, 1, 1]}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadModel(config.Config{ModelPath: path}, zerolog.Nop()); !errors.Is(err, assembly.ErrMalformedSchema) {
		t.Errorf("loadModel err = %v, want ErrMalformedSchema", err)
	}
}
