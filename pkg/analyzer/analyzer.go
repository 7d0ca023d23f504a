// Package analyzer orchestrates skin analysis as an ordered chain of tiers:
// remote API or vision model first when enabled, then the local pixel
// pipeline, then a canned result that always succeeds.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/processing"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

var (
	// ErrDecode is logged when the photo cannot be decoded
	ErrDecode = errors.New("analyzer: image decode failed")
	// ErrEmptyImage is returned by tiers given a zero-sized image
	ErrEmptyImage = errors.New("analyzer: empty image")
	// ErrNoFace is returned when a model reports no visible face
	ErrNoFace = errors.New("analyzer: no face visible")
	// ErrEmptyResult is substituted when a tier returns neither result nor error
	ErrEmptyResult = errors.New("analyzer: tier returned no result")
	// ErrNoTiers is returned by an empty chain
	ErrNoTiers = errors.New("analyzer: no tiers configured")
)

// Mode selects which tiers run before the local pipeline
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
	ModeVision Mode = "vision"
)

// ParseMode accepts local, remote or vision
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLocal, ModeRemote, ModeVision:
		return m, nil
	case "":
		return ModeLocal, nil
	default:
		return "", fmt.Errorf("unknown analysis mode: %q", s)
	}
}

// Config holds configuration for the skin analyzer
type Config struct {
	Mode             Mode
	DefaultQuality   int
	SupportedFormats []string
	MinImageSize     int
}

// DefaultConfig returns the default analyzer configuration
func DefaultConfig() Config {
	return Config{
		Mode:             ModeLocal,
		DefaultQuality:   85,
		SupportedFormats: []string{"jpg", "jpeg", "png", "webp", "gif"},
		MinImageSize:     32,
	}
}

// SkinAnalyzer runs the tier chain over photos
type SkinAnalyzer struct {
	config    Config
	local     *LocalTier
	remote    Tier
	vision    Tier
	processor *processing.Processor
}

// Option configures a SkinAnalyzer
type Option func(*SkinAnalyzer)

// WithLocalTier replaces the default local tier
func WithLocalTier(t *LocalTier) Option {
	return func(a *SkinAnalyzer) { a.local = t }
}

// WithRemoteTier sets the tier used in remote mode
func WithRemoteTier(t Tier) Option {
	return func(a *SkinAnalyzer) { a.remote = t }
}

// WithVisionTier sets the tier used in vision mode
func WithVisionTier(t Tier) Option {
	return func(a *SkinAnalyzer) { a.vision = t }
}

// New creates a SkinAnalyzer with default configuration
func New(opts ...Option) *SkinAnalyzer {
	return NewWithConfig(DefaultConfig(), opts...)
}

// NewWithConfig creates a SkinAnalyzer with custom configuration
func NewWithConfig(config Config, opts ...Option) *SkinAnalyzer {
	if config.Mode == "" {
		config.Mode = ModeLocal
	}
	a := &SkinAnalyzer{config: config, processor: processing.NewProcessor()}
	for _, opt := range opts {
		opt(a)
	}
	if a.local == nil {
		a.local = NewLocalTier(nil, nil, nil, nil)
	}
	return a
}

// Config returns the analyzer configuration
func (a *SkinAnalyzer) Config() Config {
	return a.config
}

// Local returns the local pipeline tier
func (a *SkinAnalyzer) Local() *LocalTier {
	return a.local
}

// Chain returns the tiers that run for the configured mode
func (a *SkinAnalyzer) Chain() Chain {
	var chain Chain
	switch a.config.Mode {
	case ModeRemote:
		if a.remote != nil {
			chain = append(chain, a.remote)
		}
	case ModeVision:
		if a.vision != nil {
			chain = append(chain, a.vision)
		}
	}
	return append(chain, a.local, CannedTier{})
}

// AnalyzeSkin decodes r and analyzes it. It never fails: an undecodable
// photo yields the canned result.
func (a *SkinAnalyzer) AnalyzeSkin(ctx context.Context, r io.Reader) *types.SkinAnalysisResult {
	img, err := a.processor.DecodeReader(r)
	if err != nil {
		logger().WithError(fmt.Errorf("%w: %v", ErrDecode, err)).Warn("using canned result")
		return CannedResult()
	}
	return a.AnalyzeImage(ctx, img)
}

// AnalyzeImage runs the tier chain over an already decoded image
func (a *SkinAnalyzer) AnalyzeImage(ctx context.Context, img image.Image) *types.SkinAnalysisResult {
	id := uuid.NewString()
	out, tier := a.Chain().Run(ctx, Input{Image: img})
	if !out.Ok() {
		return CannedResult()
	}

	logger().WithFields(logrus.Fields{
		"id":       id,
		"tier":     tier,
		"problems": len(out.Result.Problems),
		"score":    out.Result.OverallScore,
	}).Debug("analysis complete")
	return out.Result
}

// Close releases the landmark detector held by the local tier
func (a *SkinAnalyzer) Close() error {
	if a.local == nil || a.local.locator == nil {
		return nil
	}
	return a.local.locator.Close()
}

// LoadImage loads an image from file
func (a *SkinAnalyzer) LoadImage(path string) (image.Image, error) {
	img, err := a.processor.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

// LoadImageFromReader loads an image from an io.Reader
func (a *SkinAnalyzer) LoadImageFromReader(reader io.Reader) (image.Image, error) {
	img, err := a.processor.DecodeReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// GetImageInfo returns basic information about an image
func (a *SkinAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
	Area        int     `json:"area"`
}

// IsFormatSupported reports whether a file extension or format name is accepted
func (a *SkinAnalyzer) IsFormatSupported(format string) bool {
	format = strings.TrimPrefix(format, ".")
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *SkinAnalyzer) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}

func logger() *logrus.Entry {
	return logging.Component("analyzer")
}
