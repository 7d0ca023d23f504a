// Package compositor renders before/after pairs: problem markers over the
// original, a remotely beautified after-image, and a local soft-focus fallback.
package compositor

import (
	"context"
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// ErrEmptyImage is returned for nil or zero-sized input
var ErrEmptyImage = errors.New("compositor: empty image")

// Enhancer produces a beautified copy of an image
type Enhancer interface {
	Enhance(ctx context.Context, img image.Image) (image.Image, error)
}

// Source records which path produced the after-image
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// DefaultWatermark is stamped on every after-image
const DefaultWatermark = "AI Enhanced"

// Config holds the compositor settings
type Config struct {
	BrightnessBoost float64 `yaml:"brightness_boost" json:"brightness_boost"`
	BlurSigma       float64 `yaml:"blur_sigma" json:"blur_sigma"`
	BlendFactor     float64 `yaml:"blend_factor" json:"blend_factor"`
	MaskSoftness    float64 `yaml:"mask_softness" json:"mask_softness"`
	MarkerStroke    int     `yaml:"marker_stroke" json:"marker_stroke"`
	MarkerDash      int     `yaml:"marker_dash" json:"marker_dash"`
	WatermarkText   string  `yaml:"watermark_text" json:"watermark_text"`
}

// DefaultConfig returns the default compositor configuration
func DefaultConfig() Config {
	return Config{
		BrightnessBoost: 0.08,
		BlurSigma:       3,
		BlendFactor:     0.4,
		MaskSoftness:    2,
		MarkerStroke:    2,
		MarkerDash:      6,
		WatermarkText:   DefaultWatermark,
	}
}

// Options control a single Compose call
type Options struct {
	ShowMarkers bool
	// Landmarks, when present, shape the fallback mask
	Landmarks []types.Point3
}

// Composite is the outcome of Compose
type Composite struct {
	ID      string
	Before  *image.NRGBA
	Overlay *image.NRGBA // nil unless markers were drawn
	After   *image.NRGBA
	Source  Source
	// Watermark is the stamped area of After
	Watermark image.Rectangle
}

// Compositor builds before/after composites
type Compositor struct {
	enhancer Enhancer
	config   Config
}

// New creates a compositor with default settings. A nil enhancer always uses the local blend.
func New(enhancer Enhancer) *Compositor {
	return NewWithConfig(enhancer, DefaultConfig())
}

// NewWithConfig creates a compositor with custom settings
func NewWithConfig(enhancer Enhancer, config Config) *Compositor {
	def := DefaultConfig()
	if config.BlurSigma <= 0 {
		config.BlurSigma = def.BlurSigma
	}
	if config.BlendFactor <= 0 {
		config.BlendFactor = def.BlendFactor
	}
	if config.MarkerStroke <= 0 {
		config.MarkerStroke = def.MarkerStroke
	}
	if config.WatermarkText == "" {
		config.WatermarkText = def.WatermarkText
	}
	return &Compositor{enhancer: enhancer, config: config}
}

// Compose draws the before canvas, optional markers, and the after-image.
// Remote enhancement failures fall back to the local blend and are only logged.
func (c *Compositor) Compose(ctx context.Context, img image.Image, result *types.SkinAnalysisResult, opts Options) (*Composite, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	log := logging.Component("compositor")
	comp := &Composite{ID: uuid.NewString()}
	comp.Before = imaging.Clone(img)
	w, h := comp.Before.Rect.Dx(), comp.Before.Rect.Dy()

	if result != nil && opts.ShowMarkers {
		comp.Overlay = image.NewNRGBA(image.Rect(0, 0, w, h))
		DrawMarkers(comp.Overlay, result.Problems, c.config.MarkerStroke, c.config.MarkerDash)
	}

	if after, err := c.remote(ctx, comp.Before); err != nil {
		log.WithError(err).Warn("remote enhancement failed, using local blend")
		comp.After = c.LocalEnhance(comp.Before, opts.Landmarks)
		comp.Source = SourceLocal
	} else {
		comp.After = after
		comp.Source = SourceRemote
	}

	comp.Watermark = Watermark(comp.After, c.config.WatermarkText)
	log.WithField("id", comp.ID).WithField("source", comp.Source).Debug("composite ready")
	return comp, nil
}

var errNoEnhancer = errors.New("no enhancer configured")

func (c *Compositor) remote(ctx context.Context, before *image.NRGBA) (*image.NRGBA, error) {
	if c.enhancer == nil {
		return nil, errNoEnhancer
	}
	out, err := c.enhancer.Enhance(ctx, before)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	w, h := before.Rect.Dx(), before.Rect.Dy()
	if b := out.Bounds(); b.Dx() != w || b.Dy() != h {
		return imaging.Resize(out, w, h, imaging.Lanczos), nil
	}
	return imaging.Clone(out), nil
}

// LocalEnhance brightens skin in proportion to the mask and blends in a
// blurred copy at mask × BlendFactor. Landmarks select the face mask,
// otherwise the skin-tone mask is used.
func (c *Compositor) LocalEnhance(img image.Image, landmarks []types.Point3) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	mask := FaceMask(w, h, landmarks)
	if mask == nil {
		mask = SkinToneMask(src, c.config.MaskSoftness)
	}
	blurred := imaging.Blur(src, c.config.BlurSigma)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(x, y)
			m := mask.At(x, y)
			if m <= 0 {
				copy(out.Pix[i:i+4], src.Pix[i:i+4])
				continue
			}
			boost := 1 + c.config.BrightnessBoost*m
			alpha := m * c.config.BlendFactor
			for ch := 0; ch < 3; ch++ {
				v := float64(src.Pix[i+ch])*(1-alpha) + float64(blurred.Pix[i+ch])*alpha
				out.Pix[i+ch] = clampByte(v * boost)
			}
			out.Pix[i+3] = src.Pix[i+3]
		}
	}
	return out
}

// Flatten draws overlay onto a copy of before
func Flatten(before image.Image, overlay *image.NRGBA) *image.NRGBA {
	if overlay == nil {
		return imaging.Clone(before)
	}
	return imaging.Overlay(before, overlay, image.Point{}, 1.0)
}
