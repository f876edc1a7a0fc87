package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/chazu/flatpack/pkg/assembly"
	"github.com/chazu/flatpack/pkg/config"
	"github.com/chazu/flatpack/pkg/kernel"
	"github.com/chazu/flatpack/pkg/kernel/manifold"
	"github.com/chazu/flatpack/pkg/kernel/sdfx"
	"github.com/chazu/flatpack/pkg/logging"
	"github.com/chazu/flatpack/pkg/schemafile"
	"github.com/chazu/flatpack/pkg/session"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flatpack:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	model, err := loadModel(cfg, log)
	if err != nil {
		return err
	}

	k, err := newKernel(cfg)
	if err != nil {
		return err
	}

	app := NewApp(model, k, AppOptions{
		Session: session.Options{
			SnapDistance: cfg.SnapDistance,
			BannerDelay:  cfg.BannerDelay,
		},
		Strict: cfg.StrictSchema,
		OnVerify: func(success bool) {
			log.Info().Bool("success", success).Msg("captcha verdict")
		},
		Logger: log,
	})

	return wails.Run(&options.App{
		Title:  "Flatpack",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
}

// loadModel reads the configured schema, or the built-in chair when none
// is set, and validates it.
func loadModel(cfg config.Config, log zerolog.Logger) (*assembly.Model, error) {
	model := assembly.Chair()
	if cfg.ModelPath != "" {
		m, err := schemafile.Load(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		model = m
	}

	findings, err := assembly.Check(model, cfg.StrictSchema)
	for _, f := range findings {
		log.Warn().Str("part", string(f.PartID)).Str("code", f.Code).Msg(f.Message)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("parts", model.Len()).Str("source", cfg.ModelPath).Msg("model loaded")
	return model, nil
}

// newKernel returns the configured geometry kernel.
func newKernel(cfg config.Config) (kernel.Kernel, error) {
	if cfg.Kernel == "manifold" {
		return manifold.New()
	}
	return sdfx.NewWithCells(cfg.MeshCells), nil
}
