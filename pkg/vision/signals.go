package vision

import (
	"image"
	"math"

	"github.com/menta2k/skin-analyzer/pkg/sampler"
)

// verticalVariation is the brightness difference to the pixel below; valid for y < Height-1
func verticalVariation(buf *sampler.PixelBuffer, x, y int) float64 {
	return math.Abs(buf.Brightness(x, y+1) - buf.Brightness(x, y))
}

// microVariation compares a pixel with the mean of its 8 neighbours. dark
// reports a pixel darker than that mean by more than darkMargin. Valid for
// interior pixels only.
func microVariation(buf *sampler.PixelBuffer, x, y int, darkMargin float64) (deviation float64, dark bool) {
	var sum float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			sum += buf.Brightness(x+dx, y+dy)
		}
	}
	mean := sum / 8
	center := buf.Brightness(x, y)
	return math.Abs(center - mean), center < mean-darkMargin
}

// baselines are the strided global texture signals the texture and pore
// detectors compare against
type baselines struct {
	variation float64
	micro     float64
}

func (d *SkinDetector) textureBaselines(buf *sampler.PixelBuffer) baselines {
	var b baselines
	if buf.Empty() {
		return b
	}
	stride := d.config.SampleStride
	total := buf.Width * buf.Height

	var varSum, microSum float64
	var varN, microN int
	for p := 0; p < total; p += stride {
		x, y := p%buf.Width, p/buf.Width
		if y < buf.Height-1 {
			varSum += verticalVariation(buf, x, y)
			varN++
		}
		if x > 0 && y > 0 && x < buf.Width-1 && y < buf.Height-1 {
			dev, _ := microVariation(buf, x, y, d.config.PoreDarkMargin)
			microSum += dev
			microN++
		}
	}
	if varN > 0 {
		b.variation = varSum / float64(varN)
	}
	if microN > 0 {
		b.micro = microSum / float64(microN)
	}
	return b
}

// regionVariation averages verticalVariation over r; ok is false when r has no usable rows
func regionVariation(buf *sampler.PixelBuffer, r image.Rectangle) (float64, bool) {
	if buf.Height < 2 {
		return 0, false
	}
	r = r.Intersect(image.Rect(0, 0, buf.Width, buf.Height-1))
	if r.Empty() {
		return 0, false
	}
	var sum float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += verticalVariation(buf, x, y)
		}
	}
	return sum / float64(r.Dx()*r.Dy()), true
}

// regionMicro averages microVariation over the interior part of r and
// returns the share of dark points
func regionMicro(buf *sampler.PixelBuffer, r image.Rectangle, darkMargin float64) (mean, darkRatio float64, ok bool) {
	if buf.Width < 3 || buf.Height < 3 {
		return 0, 0, false
	}
	r = r.Intersect(image.Rect(1, 1, buf.Width-1, buf.Height-1))
	if r.Empty() {
		return 0, 0, false
	}
	var sum float64
	var dark int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dev, isDark := microVariation(buf, x, y, darkMargin)
			sum += dev
			if isDark {
				dark++
			}
		}
	}
	n := float64(r.Dx() * r.Dy())
	return sum / n, float64(dark) / n, true
}

// blueRatio is the share of pixels in r whose blue channel exceeds red by
// more than delta and also exceeds green
func blueRatio(buf *sampler.PixelBuffer, r image.Rectangle, delta float64) (float64, bool) {
	r = r.Intersect(buf.Bounds())
	if r.Empty() {
		return 0, false
	}
	var n int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			red, green, blue := buf.RGB(x, y)
			if blue > red+delta && blue > green {
				n++
			}
		}
	}
	return float64(n) / float64(r.Dx()*r.Dy()), true
}

// countBelow counts pixels in r darker than threshold
func countBelow(buf *sampler.PixelBuffer, r image.Rectangle, threshold float64) (below, total int) {
	r = r.Intersect(buf.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if buf.Brightness(x, y) < threshold {
				below++
			}
		}
	}
	return below, r.Dx() * r.Dy()
}

// scanArea returns the pixel rectangle spanning the given fractions of the image
func scanArea(buf *sampler.PixelBuffer, x0, x1, y0, y1 float64) image.Rectangle {
	w, h := float64(buf.Width), float64(buf.Height)
	return image.Rect(
		int(math.Round(x0*w)), int(math.Round(y0*h)),
		int(math.Round(x1*w)), int(math.Round(y1*h)),
	).Intersect(buf.Bounds())
}

// blocks tiles area with size×size blocks; edge blocks are clipped to the area
func blocks(area image.Rectangle, size int) []image.Rectangle {
	if size < 1 || area.Empty() {
		return nil
	}
	var out []image.Rectangle
	for y := area.Min.Y; y < area.Max.Y; y += size {
		for x := area.Min.X; x < area.Max.X; x += size {
			out = append(out, image.Rect(x, y, x+size, y+size).Intersect(area))
		}
	}
	return out
}
