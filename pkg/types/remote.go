package types

import "strings"

// RemoteBox is a detection location as returned by remote analyzers. Either the
// x/y/width/height or the left/top form may be present.
type RemoteBox struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	W      *float64 `json:"w,omitempty"`
	H      *float64 `json:"h,omitempty"`
}

// RemoteDetection is one entry in a per-feature detection array
type RemoteDetection struct {
	Severity   *float64   `json:"severity,omitempty"`
	Confidence *float64   `json:"confidence,omitempty"`
	Location   *RemoteBox `json:"location,omitempty"`
	Rectangle  *RemoteBox `json:"rectangle,omitempty"`
}

// RemoteAnalysis is the partial schema shared by the remote skin-analysis API
// and vision-model backends. Every field is optional.
type RemoteAnalysis struct {
	Success     *bool             `json:"success,omitempty"`
	Scale       *string           `json:"scale,omitempty"`
	SkinType    *string           `json:"skin_type,omitempty"`
	Acne        []RemoteDetection `json:"acne,omitempty"`
	Wrinkles    []RemoteDetection `json:"wrinkles,omitempty"`
	DarkCircles []RemoteDetection `json:"dark_circles,omitempty"`
	Pores       []RemoteDetection `json:"pores,omitempty"`
	DarkSpots   []RemoteDetection `json:"dark_spots,omitempty"`
	Redness     []RemoteDetection `json:"redness,omitempty"`
}

// Scales a remote analysis may declare for its values. ScaleUnit reports
// severity, confidence and boxes on 0-1; ScalePercent on 0-100; ScalePixels
// reports 0-100 scores with boxes in image pixels.
const (
	ScaleUnit    = "unit"
	ScalePercent = "percent"
	ScalePixels  = "pixels"
)

// Defaults applied when a remote detection omits a field
const (
	RemoteDefaultSeverity   = 50.0
	RemoteDefaultConfidence = 80.0
)

var remoteDefaultBox = RegionBox{X: 35, Y: 35, Width: 30, Height: 30}

// Failed reports an explicit success=false
func (a *RemoteAnalysis) Failed() bool {
	return a == nil || (a.Success != nil && !*a.Success)
}

// RemoteSkinType returns the remote skin type when it is a known value
func (a *RemoteAnalysis) RemoteSkinType() (SkinType, bool) {
	if a == nil || a.SkinType == nil {
		return "", false
	}
	return ParseSkinType(*a.SkinType)
}

// Problems converts the per-feature arrays into SkinProblems for a w×h image,
// in acne, wrinkle, dark circle, pore, dark spot, redness order.
func (a *RemoteAnalysis) Problems(w, h int) []SkinProblem {
	if a == nil {
		return nil
	}
	groups := []struct {
		t    ProblemType
		dets []RemoteDetection
	}{
		{Acne, a.Acne},
		{Wrinkle, a.Wrinkles},
		{DarkCircle, a.DarkCircles},
		{Pore, a.Pores},
		{DarkSpot, a.DarkSpots},
		{Redness, a.Redness},
	}

	scale := a.scale()
	var out []SkinProblem
	for _, g := range groups {
		for _, d := range g.dets {
			severity := RemoteDefaultSeverity
			if d.Severity != nil {
				severity = scaleScore(*d.Severity, scale)
			}
			confidence := RemoteDefaultConfidence
			if d.Confidence != nil {
				confidence = scaleScore(*d.Confidence, scale)
			}
			box := d.Location
			if box == nil {
				box = d.Rectangle
			}
			out = append(out, NewSkinProblem(g.t, severity, box.toRegionBox(w, h, scale), confidence))
		}
	}
	return out
}

// scale returns the declared scale, or "" when it is missing or unknown
func (a *RemoteAnalysis) scale() string {
	if a.Scale == nil {
		return ""
	}
	switch s := strings.ToLower(strings.TrimSpace(*a.Scale)); s {
	case ScaleUnit, ScalePercent, ScalePixels:
		return s
	}
	return ""
}

// scaleScore brings a severity or confidence to 0-100. Without a declared
// scale only values strictly between 0 and 1 are read as unit scale, so a
// percentage of exactly 1 stays 1.
func scaleScore(v float64, scale string) float64 {
	switch scale {
	case ScaleUnit:
		return v * 100
	case ScalePercent, ScalePixels:
		return v
	}
	if v > 0 && v < 1 {
		return v * 100
	}
	return v
}

// guessBoxScale infers the scale of an undeclared box: any value above 100
// means pixels, all values strictly below 1 mean unit scale.
func guessBoxScale(b RegionBox) string {
	switch {
	case b.X > 100 || b.Y > 100 || b.Width > 100 || b.Height > 100:
		return ScalePixels
	case b.X < 1 && b.Y < 1 && b.Width < 1 && b.Height < 1:
		return ScaleUnit
	}
	return ScalePercent
}

func (b *RemoteBox) toRegionBox(w, h int, scale string) RegionBox {
	if b == nil {
		return remoteDefaultBox
	}
	x := firstOf(b.X, b.Left)
	y := firstOf(b.Y, b.Top)
	bw := firstOf(b.Width, b.W)
	bh := firstOf(b.Height, b.H)
	if x == nil || y == nil || bw == nil || bh == nil {
		return remoteDefaultBox
	}

	box := RegionBox{X: *x, Y: *y, Width: *bw, Height: *bh}
	if scale == "" {
		scale = guessBoxScale(box)
	}
	switch scale {
	case ScaleUnit:
		box = RegionBox{X: box.X * 100, Y: box.Y * 100, Width: box.Width * 100, Height: box.Height * 100}
	case ScalePixels:
		if w <= 0 || h <= 0 {
			return remoteDefaultBox
		}
		box = Normalize(box.X, box.Y, box.Width, box.Height, w, h)
	}
	box = box.Clamp(1)
	if !box.Valid() {
		return remoteDefaultBox
	}
	return box
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
