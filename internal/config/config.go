package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/skin-analyzer/pkg/compositor"
	"github.com/menta2k/skin-analyzer/pkg/skintype"
	"github.com/menta2k/skin-analyzer/pkg/vision"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SKIN"

// Config holds the application configuration
type Config struct {
	Analysis   AnalysisConfig         `yaml:"analysis"`
	Detection  vision.DetectionConfig `yaml:"detection"`
	SkinType   skintype.Config        `yaml:"skin_type"`
	Landmarks  LandmarkConfig         `yaml:"landmarks"`
	Beauty     BeautyConfig           `yaml:"beauty"`
	Compositor compositor.Config      `yaml:"compositor"`
	Server     ServerConfig           `yaml:"server"`
	Output     OutputConfig           `yaml:"output"`
	Logging    LoggingConfig          `yaml:"logging"`
}

// AnalysisConfig selects the analysis tiers and their backends
type AnalysisConfig struct {
	// Mode is local, remote or vision
	Mode             string        `yaml:"mode"`
	DefaultQuality   int           `yaml:"default_quality"`
	SupportedFormats []string      `yaml:"supported_formats"`
	MinImageSize     int           `yaml:"min_image_size"`
	RemoteURL        string        `yaml:"remote_url"`
	RemoteAPIKey     string        `yaml:"remote_api_key"`
	VisionBackend    string        `yaml:"vision_backend"`
	VisionURL        string        `yaml:"vision_url"`
	VisionModel      string        `yaml:"vision_model"`
	ModelMaxDim      int           `yaml:"model_max_dim"`
	Timeout          time.Duration `yaml:"timeout"`
}

// LandmarkConfig configures the pigo face locator
type LandmarkConfig struct {
	Enabled     bool    `yaml:"enabled"`
	CascadePath string  `yaml:"cascade_path"`
	MinSize     int     `yaml:"min_size"`
	MinQuality  float32 `yaml:"min_quality"`
}

// BeautyConfig configures the remote beautification API
type BeautyConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port           int      `yaml:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// OutputConfig holds configuration for CLI output files
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	OutputDir     string `yaml:"output_dir"`
	Quality       int    `yaml:"quality"`
}

// LoggingConfig configures logrus
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Mode:             "local",
			DefaultQuality:   85,
			SupportedFormats: []string{"jpg", "jpeg", "png", "webp", "gif"},
			MinImageSize:     32,
			RemoteURL:        "http://localhost:8090",
			VisionBackend:    "ollama",
			VisionURL:        "http://localhost:11434",
			VisionModel:      "llava",
			ModelMaxDim:      1024,
			Timeout:          60 * time.Second,
		},
		Detection: vision.DefaultConfig(),
		SkinType:  skintype.DefaultConfig(),
		Landmarks: LandmarkConfig{
			Enabled:     false,
			CascadePath: "cascade/facefinder",
			MinSize:     40,
			MinQuality:  5,
		},
		Beauty: BeautyConfig{
			URL: "http://localhost:8091",
		},
		Compositor: compositor.DefaultConfig(),
		Server: ServerConfig{
			Port:           8080,
			MaxUploadMB:    10,
			AllowedOrigins: []string{"*"},
		},
		Output: OutputConfig{
			DefaultFormat: "png",
			OutputDir:     "./output",
			Quality:       90,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// envOverrides are read from SKIN_* variables; unset variables leave the config untouched
type envOverrides struct {
	AnalysisMode  string `envconfig:"ANALYSIS_MODE"`
	RemoteURL     string `envconfig:"REMOTE_URL"`
	RemoteAPIKey  string `envconfig:"REMOTE_API_KEY"`
	VisionBackend string `envconfig:"VISION_BACKEND"`
	VisionURL     string `envconfig:"VISION_URL"`
	VisionModel   string `envconfig:"VISION_MODEL"`
	BeautyURL     string `envconfig:"BEAUTY_URL"`
	BeautyAPIKey  string `envconfig:"BEAUTY_API_KEY"`
	CascadePath   string `envconfig:"CASCADE_PATH"`
	Port          *int   `envconfig:"PORT"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	LogFile       string `envconfig:"LOG_FILE"`
}

// ApplyEnv overlays SKIN_* environment variables. Setting SKIN_CASCADE_PATH
// also enables landmark detection.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("load env overrides: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Analysis.Mode, env.AnalysisMode)
	set(&c.Analysis.RemoteURL, env.RemoteURL)
	set(&c.Analysis.RemoteAPIKey, env.RemoteAPIKey)
	set(&c.Analysis.VisionBackend, env.VisionBackend)
	set(&c.Analysis.VisionURL, env.VisionURL)
	set(&c.Analysis.VisionModel, env.VisionModel)
	set(&c.Beauty.URL, env.BeautyURL)
	set(&c.Beauty.APIKey, env.BeautyAPIKey)
	set(&c.Logging.Level, env.LogLevel)
	set(&c.Logging.File, env.LogFile)
	if env.CascadePath != "" {
		c.Landmarks.CascadePath = env.CascadePath
		c.Landmarks.Enabled = true
	}
	if env.Port != nil {
		c.Server.Port = *env.Port
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Analysis.Mode {
	case "local", "remote", "vision":
	default:
		return fmt.Errorf("analysis.mode must be local, remote or vision")
	}

	if c.Analysis.DefaultQuality < 1 || c.Analysis.DefaultQuality > 100 {
		return fmt.Errorf("analysis.default_quality must be between 1 and 100")
	}

	if c.Analysis.MinImageSize < 1 {
		return fmt.Errorf("analysis.min_image_size must be positive")
	}

	if len(c.Analysis.SupportedFormats) == 0 {
		return fmt.Errorf("analysis.supported_formats cannot be empty")
	}

	if c.Analysis.Mode == "remote" && c.Analysis.RemoteURL == "" {
		return fmt.Errorf("analysis.remote_url is required in remote mode")
	}

	if c.Analysis.Mode == "vision" {
		switch c.Analysis.VisionBackend {
		case "ollama", "llamacpp":
		default:
			return fmt.Errorf("analysis.vision_backend must be ollama or llamacpp")
		}
		if c.Analysis.VisionModel == "" {
			return fmt.Errorf("analysis.vision_model is required in vision mode")
		}
	}

	if c.Detection.MaxCandidateFraction < 0 || c.Detection.MaxCandidateFraction > 1 {
		return fmt.Errorf("detection.max_candidate_fraction must be between 0 and 1")
	}

	if c.Landmarks.Enabled && c.Landmarks.CascadePath == "" {
		return fmt.Errorf("landmarks.cascade_path is required when landmarks are enabled")
	}

	if c.Compositor.BlendFactor < 0 || c.Compositor.BlendFactor > 1 {
		return fmt.Errorf("compositor.blend_factor must be between 0 and 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "skin-analyzer", "config.yaml")
}
