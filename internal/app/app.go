// Package app builds the analyzer, compositor and beautification client from
// a loaded configuration. Both binaries share it.
package app

import (
	"fmt"

	"github.com/menta2k/skin-analyzer/internal/config"
	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/analyzer"
	"github.com/menta2k/skin-analyzer/pkg/beauty"
	"github.com/menta2k/skin-analyzer/pkg/client"
	"github.com/menta2k/skin-analyzer/pkg/compositor"
	"github.com/menta2k/skin-analyzer/pkg/detection"
	"github.com/menta2k/skin-analyzer/pkg/landmark"
	"github.com/menta2k/skin-analyzer/pkg/llamacpp"
	"github.com/menta2k/skin-analyzer/pkg/ollama"
	"github.com/menta2k/skin-analyzer/pkg/regions"
	"github.com/menta2k/skin-analyzer/pkg/remote"
	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/skintype"
	"github.com/menta2k/skin-analyzer/pkg/vision"
)

// Services are the long-lived components behind the CLI and the server
type Services struct {
	Analyzer   *analyzer.SkinAnalyzer
	Compositor *compositor.Compositor
	// Beauty is nil when no beautification URL is configured
	Beauty *beauty.Client
}

// Close releases the landmark detector
func (s *Services) Close() error {
	return s.Analyzer.Close()
}

// Load reads path (when it exists) over the defaults, then applies SKIN_*
// overrides and validates the result.
func Load(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Build wires every component the configuration asks for
func Build(cfg *config.Config) (*Services, error) {
	mode, err := analyzer.ParseMode(cfg.Analysis.Mode)
	if err != nil {
		return nil, err
	}

	local := analyzer.NewLocalTier(
		sampler.New(),
		newLocator(cfg.Landmarks),
		vision.NewWithConfig(cfg.Detection),
		skintype.NewWithConfig(cfg.SkinType),
	)

	enc := analyzer.DefaultImageEncoding()
	if cfg.Analysis.ModelMaxDim > 0 {
		enc.MaxDim = cfg.Analysis.ModelMaxDim
	}

	opts := []analyzer.Option{analyzer.WithLocalTier(local)}
	switch mode {
	case analyzer.ModeRemote:
		rc := remote.NewClient(remote.Config{
			BaseURL: cfg.Analysis.RemoteURL,
			APIKey:  cfg.Analysis.RemoteAPIKey,
			Timeout: cfg.Analysis.Timeout,
		})
		opts = append(opts, analyzer.WithRemoteTier(analyzer.NewRemoteTier(rc, enc)))
	case analyzer.ModeVision:
		vc, err := newVisionClient(cfg.Analysis.VisionBackend, cfg.Analysis.VisionURL)
		if err != nil {
			return nil, err
		}
		tier := analyzer.NewVisionModelTier(detection.NewDetector(vc), cfg.Analysis.VisionModel, enc)
		opts = append(opts, analyzer.WithVisionTier(tier))
	}

	an := analyzer.NewWithConfig(analyzer.Config{
		Mode:             mode,
		DefaultQuality:   cfg.Analysis.DefaultQuality,
		SupportedFormats: cfg.Analysis.SupportedFormats,
		MinImageSize:     cfg.Analysis.MinImageSize,
	}, opts...)

	var bc *beauty.Client
	var enhancer compositor.Enhancer
	if cfg.Beauty.URL != "" {
		bc = beauty.NewClient(beauty.Config{
			BaseURL: cfg.Beauty.URL,
			APIKey:  cfg.Beauty.APIKey,
			Timeout: cfg.Beauty.Timeout,
		})
		enhancer = bc
	}

	logging.Component("app").WithFields(logging.Fields{
		"mode":      mode,
		"landmarks": cfg.Landmarks.Enabled,
		"beauty":    bc != nil,
	}).Debug("services ready")

	return &Services{
		Analyzer:   an,
		Compositor: compositor.NewWithConfig(enhancer, cfg.Compositor),
		Beauty:     bc,
	}, nil
}

func newLocator(cfg config.LandmarkConfig) *regions.Locator {
	if !cfg.Enabled {
		return nil
	}
	pc := landmark.DefaultPigoConfig(cfg.CascadePath)
	if cfg.MinSize > 0 {
		pc.MinSize = cfg.MinSize
	}
	if cfg.MinQuality > 0 {
		pc.MinQuality = cfg.MinQuality
	}
	return regions.NewLocator(func() (landmark.Detector, error) {
		return landmark.NewPigoDetector(pc), nil
	})
}

func newVisionClient(backend, url string) (client.VisionClient, error) {
	switch backend {
	case "ollama":
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown vision backend: %q (use ollama or llamacpp)", backend)
	}
}
