package vision

import (
	"math"

	"github.com/menta2k/skin-analyzer/pkg/regions"
	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// minBlindSeverity drops differences that are only float noise in the baselines
const minBlindSeverity = 1.0

// DetectRedness scans the central face area in BlockSize blocks and reports
// blocks redder than the global mean by more than RednessMargin as acne.
func (d *SkinDetector) DetectRedness(buf *sampler.PixelBuffer, stats types.GlobalStats) []types.SkinProblem {
	if buf.Empty() {
		return nil
	}
	area := scanArea(buf, 0.20, 0.80, 0.20, 0.85)
	threshold := stats.MeanRedness + d.config.RednessMargin

	var candidates []types.SkinProblem
	for _, block := range blocks(area, d.config.BlockSize) {
		redness, ok := buf.AreaMean(block, buf.Redness)
		if !ok || redness <= threshold {
			continue
		}
		severity := (redness - threshold) / d.config.RednessScale * 100
		candidates = append(candidates, d.blindProblem(types.Acne, severity, buf.Box(block)))
	}
	return d.limit(candidates)
}

// DetectDarkSpots reports blocks that are darker than the global mean and
// dense in pixels below mean - k*std. The eye band is skipped.
func (d *SkinDetector) DetectDarkSpots(buf *sampler.PixelBuffer, stats types.GlobalStats) []types.SkinProblem {
	if buf.Empty() || stats.MeanBrightness <= 0 {
		return nil
	}
	area := scanArea(buf, 0.15, 0.85, 0.15, 0.85)
	eyeTop := 0.30 * float64(buf.Height)
	eyeBottom := 0.45 * float64(buf.Height)

	threshold := stats.MeanBrightness - d.config.DarkSpotStdFactor*stats.StdDevBrightness
	// noisier images need a denser cluster before it counts as a spot
	ratioThreshold := math.Min(0.9, d.config.DarkSpotBaseRatio+d.config.DarkSpotRatioPerStd*stats.StdDevBrightness)

	var candidates []types.SkinProblem
	for _, block := range blocks(area, d.config.DarkSpotBlockSize) {
		cy := float64(block.Min.Y+block.Max.Y) / 2
		if cy >= eyeTop && cy <= eyeBottom {
			continue
		}
		below, total := countBelow(buf, block, threshold)
		if total == 0 || float64(below)/float64(total) <= ratioThreshold {
			continue
		}
		brightness, ok := buf.AreaMean(block, buf.Brightness)
		if !ok || brightness >= stats.MeanBrightness {
			continue
		}
		severity := (stats.MeanBrightness - brightness) / stats.MeanBrightness * d.config.DarkSpotSeverityScale
		if severity < minBlindSeverity {
			continue
		}
		candidates = append(candidates, d.blindProblem(types.DarkSpot, severity, buf.Box(block)))
	}
	return d.limit(candidates)
}

// DetectDarkCircles checks the two fixed under-eye regions for a brightness
// deficit or a bluish cast.
func (d *SkinDetector) DetectDarkCircles(buf *sampler.PixelBuffer, stats types.GlobalStats) []types.SkinProblem {
	if buf.Empty() || stats.MeanBrightness <= 0 {
		return nil
	}
	factor := d.config.DimFactor
	if stats.MeanBrightness > d.config.BrightImageLevel {
		factor = d.config.BrightFactor
	}
	threshold := stats.MeanBrightness * factor

	var candidates []types.SkinProblem
	for _, f := range []regions.Feature{regions.LeftUnderEye, regions.RightUnderEye} {
		rect := buf.Rect(regions.FixedRegion(f))
		brightness, ok := buf.AreaMean(rect, buf.Brightness)
		if !ok {
			continue
		}
		ratio, _ := blueRatio(buf, rect, d.config.BlueDelta)
		if brightness >= threshold && ratio <= d.config.BlueRatioTrigger {
			continue
		}
		deficit := math.Max(0, (stats.MeanBrightness-brightness)/stats.MeanBrightness*100)
		severity := deficit + ratio*d.config.BlueRatioWeight
		if severity < minBlindSeverity {
			continue
		}
		candidates = append(candidates, d.blindProblem(types.DarkCircle, severity, buf.Box(rect)))
	}
	return d.limit(candidates)
}

// DetectTexture compares the vertical brightness variation of the forehead
// and eye corners with the image-wide variation and reports wrinkles.
func (d *SkinDetector) DetectTexture(buf *sampler.PixelBuffer, stats types.GlobalStats) []types.SkinProblem {
	if buf.Empty() {
		return nil
	}
	threshold := d.textureBaselines(buf).variation + d.config.TextureMargin

	var candidates []types.SkinProblem
	for _, f := range []regions.Feature{regions.Forehead, regions.LeftEyeCorner, regions.RightEyeCorner} {
		rect := buf.Rect(regions.FixedRegion(f))
		variation, ok := regionVariation(buf, rect)
		if !ok || variation <= threshold {
			continue
		}
		severity := (variation - threshold) / d.config.TextureScale * 100
		candidates = append(candidates, d.blindProblem(types.Wrinkle, severity, buf.Box(rect)))
	}
	return d.limit(candidates)
}

// DetectPores looks for micro-variation and dark points on the nose and cheeks.
func (d *SkinDetector) DetectPores(buf *sampler.PixelBuffer, stats types.GlobalStats) []types.SkinProblem {
	if buf.Empty() {
		return nil
	}
	threshold := d.textureBaselines(buf).micro + d.config.PoreMargin

	var candidates []types.SkinProblem
	for _, f := range []regions.Feature{regions.Nose, regions.LeftCheek, regions.RightCheek} {
		rect := buf.Rect(regions.FixedRegion(f))
		micro, darkRatio, ok := regionMicro(buf, rect, d.config.PoreDarkMargin)
		if !ok || micro <= threshold {
			continue
		}
		severity := (micro-threshold)/d.config.PoreScale*100 + darkRatio*d.config.PoreDarkWeight
		candidates = append(candidates, d.blindProblem(types.Pore, severity, buf.Box(rect)))
	}
	return d.limit(candidates)
}
