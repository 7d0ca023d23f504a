package vision

import (
	"math"

	"github.com/menta2k/skin-analyzer/pkg/regions"
	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// featureProblems is the fixed table of what each landmark feature is checked for
var featureProblems = map[regions.Feature][]types.ProblemType{
	regions.Forehead:      {types.Wrinkle, types.Acne},
	regions.LeftUnderEye:  {types.DarkCircle},
	regions.RightUnderEye: {types.DarkCircle},
	regions.LeftCheek:     {types.Acne, types.Redness, types.DarkSpot, types.Pore},
	regions.RightCheek:    {types.Acne, types.Redness, types.DarkSpot, types.Pore},
	regions.Nose:          {types.Pore, types.Redness},
}

// FeatureProblems returns the problem types checked for a landmark feature
func FeatureProblems(f regions.Feature) []types.ProblemType {
	return append([]types.ProblemType(nil), featureProblems[f]...)
}

// DetectLandmarkRegions scores every landmark feature for its problem types,
// walking features and types in a fixed order.
func (d *SkinDetector) DetectLandmarkRegions(buf *sampler.PixelBuffer, stats types.GlobalStats, r *regions.Regions) []types.SkinProblem {
	if buf.Empty() {
		return nil
	}
	base := d.textureBaselines(buf)

	var out []types.SkinProblem
	for _, f := range regions.LandmarkFeatures() {
		box := r.Box(f)
		for _, t := range featureProblems[f] {
			severity, ok := d.regionSeverity(buf, stats, base, box, t)
			if !ok || severity <= 0 || severity < d.config.LandmarkMinSeverity {
				continue
			}
			out = append(out, d.landmarkProblem(t, severity, buf.Box(buf.Rect(box))))
		}
	}
	return out
}

// RegionSeverity scores one box for one problem type against the global
// baselines, with no extra margin. ok is false when the box covers no pixels.
func (d *SkinDetector) RegionSeverity(buf *sampler.PixelBuffer, stats types.GlobalStats, box types.RegionBox, t types.ProblemType) (float64, bool) {
	if buf.Empty() {
		return 0, false
	}
	return d.regionSeverity(buf, stats, d.textureBaselines(buf), box, t)
}

// regionSeverity blends per type:
//
//	redness:     redness excess / RednessScale
//	acne:        0.7 redness excess + 0.3 texture excess
//	dark_spot:   brightness deficit % × 1.5
//	dark_circle: brightness deficit % + blue ratio × BlueRatioWeight
//	wrinkle:     variation excess / TextureScale
//	pore:        micro-variation excess / PoreScale + dark ratio × PoreDarkWeight
func (d *SkinDetector) regionSeverity(buf *sampler.PixelBuffer, stats types.GlobalStats, base baselines, box types.RegionBox, t types.ProblemType) (float64, bool) {
	rect := buf.Rect(box)
	if rect.Empty() {
		return 0, false
	}

	rednessTerm := func() (float64, bool) {
		redness, ok := buf.AreaMean(rect, buf.Redness)
		return math.Max(0, redness-stats.MeanRedness) / d.config.RednessScale * 100, ok
	}
	textureTerm := func() (float64, bool) {
		variation, ok := regionVariation(buf, rect)
		return math.Max(0, variation-base.variation) / d.config.TextureScale * 100, ok
	}
	deficitTerm := func() (float64, bool) {
		brightness, ok := buf.AreaMean(rect, buf.Brightness)
		if !ok || stats.MeanBrightness <= 0 {
			return 0, false
		}
		return math.Max(0, stats.MeanBrightness-brightness) / stats.MeanBrightness * 100, true
	}

	var severity float64
	switch t {
	case types.Redness:
		s, ok := rednessTerm()
		if !ok {
			return 0, false
		}
		severity = s
	case types.Acne:
		red, ok := rednessTerm()
		if !ok {
			return 0, false
		}
		tex, _ := textureTerm()
		severity = 0.7*red + 0.3*tex
	case types.DarkSpot:
		deficit, ok := deficitTerm()
		if !ok {
			return 0, false
		}
		severity = deficit * 1.5
	case types.DarkCircle:
		deficit, ok := deficitTerm()
		if !ok {
			return 0, false
		}
		ratio, _ := blueRatio(buf, rect, d.config.BlueDelta)
		severity = deficit + ratio*d.config.BlueRatioWeight
	case types.Wrinkle:
		s, ok := textureTerm()
		if !ok {
			return 0, false
		}
		severity = s
	case types.Pore:
		micro, darkRatio, ok := regionMicro(buf, rect, d.config.PoreDarkMargin)
		if !ok {
			return 0, false
		}
		severity = math.Max(0, micro-base.micro)/d.config.PoreScale*100 + darkRatio*d.config.PoreDarkWeight
	default:
		return 0, false
	}
	return types.Clamp100(severity), true
}
