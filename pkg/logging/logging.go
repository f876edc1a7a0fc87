// Package logging builds the zerolog logger shared by Flatpack components.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chazu/flatpack/pkg/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the configured level and format.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	switch strings.ToLower(cfg.Format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q, expected console or json", cfg.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
