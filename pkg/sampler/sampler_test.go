package sampler

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

func createUniformImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestFromImage(t *testing.T) {
	img := createUniformImage(40, 30, color.NRGBA{200, 100, 50, 255})
	buf := FromImage(img)

	assert.Equal(t, 40, buf.Width)
	assert.Equal(t, 30, buf.Height)
	assert.Len(t, buf.Pix, 40*30*4)

	r, g, b := buf.RGB(5, 5)
	assert.Equal(t, 200.0, r)
	assert.Equal(t, 100.0, g)
	assert.Equal(t, 50.0, b)
	assert.InDelta(t, 350.0/3, buf.Brightness(5, 5), 1e-9)
	assert.Equal(t, 125.0, buf.Redness(5, 5))
}

func TestFromImageOffsetBounds(t *testing.T) {
	img := createUniformImage(50, 50, color.NRGBA{10, 20, 30, 255})
	sub := img.SubImage(image.Rect(10, 10, 30, 40))
	buf := FromImage(sub)

	assert.Equal(t, 20, buf.Width)
	assert.Equal(t, 30, buf.Height)
	assert.Equal(t, image.Rect(0, 0, 20, 30), buf.Bounds())
}

func TestStatsUniform(t *testing.T) {
	buf := FromImage(createUniformImage(100, 80, color.NRGBA{150, 120, 90, 255}))
	stats := New().Stats(buf)

	assert.InDelta(t, 120.0, stats.MeanBrightness, 1e-9)
	assert.InDelta(t, 0.0, stats.StdDevBrightness, 1e-9)
	assert.InDelta(t, 45.0, stats.MeanRedness, 1e-9)
	assert.Equal(t, 800, stats.Samples)
}

func TestStatsStrideAffectsSampleCount(t *testing.T) {
	buf := FromImage(createUniformImage(100, 100, color.NRGBA{100, 100, 100, 255}))

	assert.Equal(t, 10000, NewWithStride(1).Stats(buf).Samples)
	assert.Equal(t, 2000, NewWithStride(5).Stats(buf).Samples)
	assert.Equal(t, 10000, NewWithStride(0).Stats(buf).Samples)
}

func TestStatsSpread(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{200, 200, 200, 255})
	stats := NewWithStride(1).Stats(FromImage(img))

	assert.InDelta(t, 100.0, stats.MeanBrightness, 1e-9)
	assert.InDelta(t, math.Sqrt(20000), stats.StdDevBrightness, 1e-9)
}

func TestStatsEmptyAndSingle(t *testing.T) {
	assert.Equal(t, types.GlobalStats{}, New().Stats(&PixelBuffer{}))

	single := FromImage(createUniformImage(1, 1, color.NRGBA{30, 60, 90, 255}))
	stats := New().Stats(single)
	assert.Equal(t, 1, stats.Samples)
	assert.InDelta(t, 60.0, stats.MeanBrightness, 1e-9)
	assert.Equal(t, 0.0, stats.StdDevBrightness)
}

func TestAreaMean(t *testing.T) {
	img := createUniformImage(20, 20, color.NRGBA{0, 0, 0, 255})
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{90, 90, 90, 255})
		}
	}
	buf := FromImage(img)

	mean, ok := buf.AreaMean(image.Rect(0, 0, 20, 10), buf.Brightness)
	require.True(t, ok)
	assert.InDelta(t, 90.0, mean, 1e-9)

	mean, ok = buf.AreaMean(image.Rect(-5, 5, 25, 15), buf.Brightness)
	require.True(t, ok)
	assert.InDelta(t, 45.0, mean, 1e-9)

	_, ok = buf.AreaMean(image.Rect(30, 30, 40, 40), buf.Brightness)
	assert.False(t, ok)
}

func TestRectBoxRoundTrip(t *testing.T) {
	buf := FromImage(createUniformImage(320, 240, color.NRGBA{1, 2, 3, 255}))
	box := types.RegionBox{X: 40, Y: 45, Width: 20, Height: 20}

	rect := buf.Rect(box)
	assert.Equal(t, image.Rect(128, 108, 192, 156), rect)
	back := buf.Box(rect)
	assert.InDelta(t, box.X, back.X, 1e-9)
	assert.InDelta(t, box.Y, back.Y, 1e-9)
	assert.InDelta(t, box.Width, back.Width, 1e-9)
	assert.InDelta(t, box.Height, back.Height, 1e-9)
}
