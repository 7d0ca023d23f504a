package types

import (
	"image"
	"math"
)

// ProblemType names a skin condition a detector can report
type ProblemType string

const (
	Acne       ProblemType = "acne"
	Wrinkle    ProblemType = "wrinkle"
	DarkCircle ProblemType = "dark_circle"
	Pore       ProblemType = "pore"
	DarkSpot   ProblemType = "dark_spot"
	Redness    ProblemType = "redness"
)

// AllProblemTypes lists problem types in recommendation order
func AllProblemTypes() []ProblemType {
	return []ProblemType{Acne, Wrinkle, DarkCircle, Pore, DarkSpot, Redness}
}

// SkinType is the coarse skin classification attached to a result
type SkinType string

const (
	SkinNormal      SkinType = "normal"
	SkinOily        SkinType = "oily"
	SkinDry         SkinType = "dry"
	SkinCombination SkinType = "combination"
	SkinSensitive   SkinType = "sensitive"
)

// ParseSkinType maps free-form values onto a known skin type
func ParseSkinType(s string) (SkinType, bool) {
	switch SkinType(s) {
	case SkinNormal, SkinOily, SkinDry, SkinCombination, SkinSensitive:
		return SkinType(s), true
	}
	return "", false
}

// RegionBox is a rectangle in percentage-of-image units (0-100)
type RegionBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the box lies inside [0,100]² with positive extent
func (b RegionBox) Valid() bool {
	return b.Width > 0 && b.Height > 0 &&
		b.X >= 0 && b.Y >= 0 &&
		b.X+b.Width <= 100+1e-9 && b.Y+b.Height <= 100+1e-9
}

// Clamp pulls the box inside [0,100]² keeping at least minExtent of width and height
func (b RegionBox) Clamp(minExtent float64) RegionBox {
	x0 := clamp(b.X, 0, 100)
	y0 := clamp(b.Y, 0, 100)
	x1 := clamp(b.X+b.Width, 0, 100)
	y1 := clamp(b.Y+b.Height, 0, 100)
	if x1-x0 < minExtent {
		x1 = math.Min(100, x0+minExtent)
		x0 = math.Max(0, x1-minExtent)
	}
	if y1-y0 < minExtent {
		y1 = math.Min(100, y0+minExtent)
		y0 = math.Max(0, y1-minExtent)
	}
	return RegionBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the box center in percentage units
func (b RegionBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains reports whether the percentage point lies inside the box
func (b RegionBox) Contains(px, py float64) bool {
	return px >= b.X && px < b.X+b.Width && py >= b.Y && py < b.Y+b.Height
}

// Denormalize converts the box to floating pixel coordinates
func (b RegionBox) Denormalize(w, h int) (x, y, width, height float64) {
	fw, fh := float64(w), float64(h)
	return b.X / 100 * fw, b.Y / 100 * fh, b.Width / 100 * fw, b.Height / 100 * fh
}

// Normalize builds a box from floating pixel coordinates
func Normalize(x, y, width, height float64, w, h int) RegionBox {
	if w <= 0 || h <= 0 {
		return RegionBox{}
	}
	fw, fh := float64(w), float64(h)
	return RegionBox{X: x / fw * 100, Y: y / fh * 100, Width: width / fw * 100, Height: height / fh * 100}
}

// Rect converts the box to an integer pixel rectangle clipped to a w×h image.
// The result is empty only when the image itself is empty.
func (b RegionBox) Rect(w, h int) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	fx, fy, fw, fh := b.Denormalize(w, h)
	x0 := clampInt(int(math.Round(fx)), 0, w-1)
	y0 := clampInt(int(math.Round(fy)), 0, h-1)
	x1 := clampInt(int(math.Round(fx+fw)), 0, w)
	y1 := clampInt(int(math.Round(fy+fh)), 0, h)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// BoxFromRect renormalizes a pixel rectangle against a w×h image
func BoxFromRect(r image.Rectangle, w, h int) RegionBox {
	return Normalize(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), w, h)
}

// SkinProblem is one scored detection
type SkinProblem struct {
	Type       ProblemType `json:"type"`
	Severity   float64     `json:"severity"`
	Location   RegionBox   `json:"location"`
	Confidence float64     `json:"confidence"`
}

// NewSkinProblem clamps severity and confidence to [0,100]
func NewSkinProblem(t ProblemType, severity float64, location RegionBox, confidence float64) SkinProblem {
	return SkinProblem{
		Type:       t,
		Severity:   Clamp100(severity),
		Location:   location,
		Confidence: Clamp100(confidence),
	}
}

// SkinAnalysisResult is the full outcome of one analysis call
type SkinAnalysisResult struct {
	Problems        []SkinProblem `json:"problems"`
	SkinType        SkinType      `json:"skinType"`
	OverallScore    int           `json:"overallScore"`
	Recommendations []string      `json:"recommendations"`
	Strategy        string        `json:"strategy,omitempty"`
}

// GlobalStats is the adaptive baseline every detector thresholds against
type GlobalStats struct {
	MeanBrightness   float64 `json:"meanBrightness"`
	StdDevBrightness float64 `json:"stdDevBrightness"`
	MeanRedness      float64 `json:"meanRedness"`
	Samples          int     `json:"samples"`
}

// Point3 is a normalized (0-1) face landmark
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Clamp100 clamps v to [0,100], mapping NaN to 0
func Clamp100(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
