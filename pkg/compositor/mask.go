package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// Mask is a per-pixel weight in [0,1] over a Width×Height image
type Mask struct {
	Width   int
	Height  int
	Weights []float64
}

// NewMask allocates an all-zero mask
func NewMask(w, h int) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Mask{Width: w, Height: h, Weights: make([]float64, w*h)}
}

// At returns the weight at (x,y), zero outside the mask
func (m *Mask) At(x, y int) float64 {
	if m == nil || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Weights[y*m.Width+x]
}

func (m *Mask) raise(x, y int, v float64) {
	i := y*m.Width + x
	if v > m.Weights[i] {
		m.Weights[i] = v
	}
}

// Max returns the largest weight
func (m *Mask) Max() float64 {
	var peak float64
	for _, v := range m.Weights {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// faceMaskInner is the normalized ellipse radius inside which the face mask is fully on
const faceMaskInner = 0.7

// FaceMask builds an elliptical gradient covering the landmark extent.
// It returns nil when the landmarks span no area.
func FaceMask(w, h int, landmarks []types.Point3) *Mask {
	if w <= 0 || h <= 0 || len(landmarks) == 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range landmarks {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	fw, fh := float64(w), float64(h)
	cx, cy := (minX+maxX)/2*fw, (minY+maxY)/2*fh
	rx, ry := (maxX-minX)/2*fw, (maxY-minY)/2*fh
	if rx < 1 || ry < 1 {
		return nil
	}

	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			d := math.Sqrt(dx*dx + dy*dy)
			switch {
			case d <= faceMaskInner:
				m.Weights[y*w+x] = 1
			case d < 1:
				m.Weights[y*w+x] = (1 - d) / (1 - faceMaskInner)
			}
		}
	}
	return m
}

// IsSkinTone applies an HSV skin rule: warm hue, moderate saturation, not too dark
func IsSkinTone(c color.Color) bool {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return false
	}
	h, s, v := cf.Hsv()
	return (h <= 50 || h >= 340) && s >= 0.1 && s <= 0.68 && v >= 0.35
}

// SkinToneMask marks skin-coloured pixels and softens the edges with a gaussian blur
func SkinToneMask(img image.Image, softness float64) *Mask {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return NewMask(w, h)
	}

	hard := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if IsSkinTone(src.NRGBAAt(x, y)) {
				hard.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				hard.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}

	soft := hard
	if softness > 0 {
		soft = imaging.Blur(hard, softness)
	}

	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Weights[y*w+x] = float64(soft.Pix[soft.PixOffset(x, y)]) / 255
		}
	}
	return m
}
