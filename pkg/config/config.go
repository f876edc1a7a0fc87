// Package config loads Flatpack settings from the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the recognized options.
type Config struct {
	// ModelPath is a schema file to load. Empty selects the built-in chair.
	ModelPath    string        `env:"FLATPACK_MODEL_PATH"`
	SnapDistance float64       `env:"FLATPACK_SNAP_DISTANCE" envDefault:"1.0"`
	BannerDelay  time.Duration `env:"FLATPACK_BANNER_DELAY" envDefault:"3s"`
	StrictSchema bool          `env:"FLATPACK_STRICT_SCHEMA" envDefault:"false"`
	MeshCells    int           `env:"FLATPACK_MESH_CELLS" envDefault:"200"`
	Kernel       string        `env:"FLATPACK_KERNEL" envDefault:"sdfx"` // sdfx or manifold
	Log          LogConfig     `envPrefix:"FLATPACK_LOG_"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"console"` // console or json
}

// Load reads an optional .env file (a missing file is not an error) and
// then parses the environment.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	return Parse()
}

// Parse loads Config from environment variables and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that the env tags cannot express.
func (c Config) Validate() error {
	if c.SnapDistance <= 0 || math.IsNaN(c.SnapDistance) || math.IsInf(c.SnapDistance, 0) {
		return fmt.Errorf("config: snap distance must be positive and finite, got %v", c.SnapDistance)
	}
	if c.BannerDelay < 0 {
		return fmt.Errorf("config: banner delay must not be negative, got %s", c.BannerDelay)
	}
	if c.MeshCells <= 0 {
		return fmt.Errorf("config: mesh cells must be positive, got %d", c.MeshCells)
	}
	switch c.Kernel {
	case "sdfx", "manifold":
	default:
		return fmt.Errorf("config: unknown kernel %q, expected sdfx or manifold", c.Kernel)
	}
	return nil
}
