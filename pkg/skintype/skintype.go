// Package skintype buckets skin into normal, oily, dry or combination by
// comparing T-zone and cheek brightness.
package skintype

import (
	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// Config holds the brightness levels used by the classifier
type Config struct {
	CombinationMargin float64 `yaml:"combination_margin" json:"combination_margin"`
	OilyBrightness    float64 `yaml:"oily_brightness" json:"oily_brightness"`
	DryBrightness     float64 `yaml:"dry_brightness" json:"dry_brightness"`
}

// DefaultConfig returns the standard classifier thresholds
func DefaultConfig() Config {
	return Config{
		CombinationMargin: 15,
		OilyBrightness:    150,
		DryBrightness:     100,
	}
}

// Blocks sampled by the classifier, in percent
var (
	TZoneBlock      = types.RegionBox{X: 42, Y: 20, Width: 16, Height: 30}
	LeftCheekBlock  = types.RegionBox{X: 20, Y: 50, Width: 16, Height: 15}
	RightCheekBlock = types.RegionBox{X: 64, Y: 50, Width: 16, Height: 15}
)

// Classifier derives a SkinType from pixel brightness
type Classifier struct {
	config Config
}

// New creates a Classifier with default thresholds
func New() *Classifier {
	return &Classifier{config: DefaultConfig()}
}

// NewWithConfig creates a Classifier with custom thresholds
func NewWithConfig(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify compares the T-zone block with the mean of the two cheek blocks.
// Empty buffers are normal.
func (c *Classifier) Classify(buf *sampler.PixelBuffer) types.SkinType {
	if buf.Empty() {
		return types.SkinNormal
	}
	tzone, ok := buf.AreaMean(buf.Rect(TZoneBlock), buf.Brightness)
	if !ok {
		return types.SkinNormal
	}
	left, okLeft := buf.AreaMean(buf.Rect(LeftCheekBlock), buf.Brightness)
	right, okRight := buf.AreaMean(buf.Rect(RightCheekBlock), buf.Brightness)
	if !okLeft || !okRight {
		return types.SkinNormal
	}
	cheeks := (left + right) / 2

	switch {
	case tzone-cheeks > c.config.CombinationMargin:
		return types.SkinCombination
	case tzone > c.config.OilyBrightness && cheeks > c.config.OilyBrightness:
		return types.SkinOily
	case tzone < c.config.DryBrightness && cheeks < c.config.DryBrightness:
		return types.SkinDry
	default:
		return types.SkinNormal
	}
}
