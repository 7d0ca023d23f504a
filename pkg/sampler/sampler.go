// Package sampler turns decoded images into flat RGBA buffers and computes the
// global brightness and redness baselines the detectors adapt to.
package sampler

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// DefaultStride samples every 10th pixel for global statistics
const DefaultStride = 10

// PixelBuffer is a flat, non-premultiplied RGBA copy of an image with origin (0,0)
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// FromImage copies img into a new PixelBuffer
func FromImage(img image.Image) *PixelBuffer {
	nrgba := imaging.Clone(img)
	return &PixelBuffer{
		Width:  nrgba.Rect.Dx(),
		Height: nrgba.Rect.Dy(),
		Pix:    nrgba.Pix,
	}
}

// Image wraps the buffer as an *image.NRGBA sharing the same pixels
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{Pix: b.Pix, Stride: b.Width * 4, Rect: image.Rect(0, 0, b.Width, b.Height)}
}

// Bounds returns the pixel rectangle of the buffer
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Empty reports a zero-sized buffer
func (b *PixelBuffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0
}

// RGB returns the color channels at (x,y); callers keep (x,y) in bounds
func (b *PixelBuffer) RGB(x, y int) (float64, float64, float64) {
	i := (y*b.Width + x) * 4
	return float64(b.Pix[i]), float64(b.Pix[i+1]), float64(b.Pix[i+2])
}

// Brightness is the channel mean at (x,y)
func (b *PixelBuffer) Brightness(x, y int) float64 {
	r, g, bl := b.RGB(x, y)
	return (r + g + bl) / 3
}

// Redness is r-(g+b)/2 at (x,y)
func (b *PixelBuffer) Redness(x, y int) float64 {
	r, g, bl := b.RGB(x, y)
	return r - (g+bl)/2
}

// Rect denormalizes a percentage box into a clipped, non-empty pixel rectangle
func (b *PixelBuffer) Rect(box types.RegionBox) image.Rectangle {
	return box.Rect(b.Width, b.Height)
}

// Box renormalizes a pixel rectangle into percentage units
func (b *PixelBuffer) Box(r image.Rectangle) types.RegionBox {
	return types.BoxFromRect(r.Intersect(b.Bounds()), b.Width, b.Height)
}

// AreaMean averages fn over every pixel of r clipped to the buffer.
// ok is false when nothing of r lies inside the buffer.
func (b *PixelBuffer) AreaMean(r image.Rectangle, fn func(x, y int) float64) (mean float64, ok bool) {
	r = r.Intersect(b.Bounds())
	if r.Empty() {
		return 0, false
	}
	var sum float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += fn(x, y)
		}
	}
	return sum / float64(r.Dx()*r.Dy()), true
}

// Sampler computes GlobalStats over every Stride-th pixel
type Sampler struct {
	Stride int
}

// New creates a Sampler with the default stride
func New() *Sampler {
	return &Sampler{Stride: DefaultStride}
}

// NewWithStride creates a Sampler sampling every stride-th pixel
func NewWithStride(stride int) *Sampler {
	if stride < 1 {
		stride = 1
	}
	return &Sampler{Stride: stride}
}

// Stats computes the adaptive baseline for buf
func (s *Sampler) Stats(buf *PixelBuffer) types.GlobalStats {
	if buf.Empty() {
		return types.GlobalStats{}
	}
	stride := s.Stride
	if stride < 1 {
		stride = 1
	}

	total := buf.Width * buf.Height
	brightness := make([]float64, 0, total/stride+1)
	redness := make([]float64, 0, total/stride+1)
	for p := 0; p < total; p += stride {
		x, y := p%buf.Width, p/buf.Width
		brightness = append(brightness, buf.Brightness(x, y))
		redness = append(redness, buf.Redness(x, y))
	}

	stats := types.GlobalStats{Samples: len(brightness)}
	if len(brightness) < 2 {
		stats.MeanBrightness = brightness[0]
		stats.MeanRedness = redness[0]
		return stats
	}
	stats.MeanBrightness, stats.StdDevBrightness = stat.MeanStdDev(brightness, nil)
	stats.MeanRedness = stat.Mean(redness, nil)
	return stats
}
