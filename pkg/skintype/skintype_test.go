package skintype

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

func createTestImage(width, height int, base color.NRGBA, tzone *color.NRGBA) *sampler.PixelBuffer {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, base)
		}
	}
	if tzone != nil {
		r := TZoneBlock.Rect(width, height)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetNRGBA(x, y, *tzone)
			}
		}
	}
	return sampler.FromImage(img)
}

func TestClassify(t *testing.T) {
	shiny := color.NRGBA{200, 190, 180, 255}

	tests := []struct {
		name  string
		base  color.NRGBA
		tzone *color.NRGBA
		want  types.SkinType
	}{
		{"oily", color.NRGBA{190, 160, 150, 255}, nil, types.SkinOily},
		{"dry", color.NRGBA{110, 80, 70, 255}, nil, types.SkinDry},
		{"normal", color.NRGBA{150, 120, 100, 255}, nil, types.SkinNormal},
		{"combination", color.NRGBA{150, 120, 100, 255}, &shiny, types.SkinCombination},
	}

	classifier := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(createTestImage(120, 120, tt.base, tt.tzone)))
		})
	}
}

func TestClassifyEmpty(t *testing.T) {
	assert.Equal(t, types.SkinNormal, New().Classify(&sampler.PixelBuffer{}))
}

func TestNewWithConfig(t *testing.T) {
	buf := createTestImage(60, 60, color.NRGBA{150, 120, 100, 255}, nil)
	classifier := NewWithConfig(Config{CombinationMargin: 15, OilyBrightness: 100, DryBrightness: 50})
	assert.Equal(t, types.SkinOily, classifier.Classify(buf))
}
