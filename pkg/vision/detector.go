// Package vision implements the heuristic skin problem detectors. Every
// threshold is derived from the image's own GlobalStats.
package vision

import (
	"math"
	"sort"

	"github.com/menta2k/skin-analyzer/pkg/regions"
	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// Strategy names the detection path used for one call
type Strategy string

const (
	StrategyLandmark Strategy = "landmark"
	StrategyBlind    Strategy = "blind"
)

// SkinDetector runs either the landmark region path or the blind block scan
type SkinDetector struct {
	config DetectionConfig
}

// New creates a new SkinDetector with default configuration
func New() *SkinDetector {
	return &SkinDetector{config: DefaultConfig()}
}

// NewWithConfig creates a new SkinDetector with custom configuration.
// Zero fields take their default value.
func NewWithConfig(config DetectionConfig) *SkinDetector {
	return &SkinDetector{config: config.withDefaults()}
}

// Config returns the effective configuration
func (d *SkinDetector) Config() DetectionConfig {
	return d.config
}

// Detection is the output of one Detect call
type Detection struct {
	Problems []types.SkinProblem
	Strategy Strategy
}

// Detect picks exactly one strategy: landmark regions when the locator found
// a face, the blind detectors otherwise. Results are never merged.
func (d *SkinDetector) Detect(buf *sampler.PixelBuffer, stats types.GlobalStats, r *regions.Regions) Detection {
	if r != nil && r.Mode == regions.ModeLandmark {
		return Detection{Problems: d.DetectLandmarkRegions(buf, stats, r), Strategy: StrategyLandmark}
	}
	return Detection{Problems: d.DetectBlind(buf, stats), Strategy: StrategyBlind}
}

// DetectBlind runs the five statistical detectors in emission order
func (d *SkinDetector) DetectBlind(buf *sampler.PixelBuffer, stats types.GlobalStats) []types.SkinProblem {
	if buf.Empty() {
		return nil
	}
	var out []types.SkinProblem
	out = append(out, d.DetectRedness(buf, stats)...)
	out = append(out, d.DetectDarkSpots(buf, stats)...)
	out = append(out, d.DetectDarkCircles(buf, stats)...)
	out = append(out, d.DetectTexture(buf, stats)...)
	out = append(out, d.DetectPores(buf, stats)...)
	return out
}

// limit keeps the strongest candidates: sorted by severity, truncated to
// ceil(n*MaxCandidateFraction) and at most MaxCandidates.
func (d *SkinDetector) limit(candidates []types.SkinProblem) []types.SkinProblem {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Severity > candidates[j].Severity
	})
	n := int(math.Ceil(float64(len(candidates)) * d.config.MaxCandidateFraction))
	if n > d.config.MaxCandidates {
		n = d.config.MaxCandidates
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// blindProblem builds a blind-path problem; confidence rises with severity
// across the blind confidence range
func (d *SkinDetector) blindProblem(t types.ProblemType, severity float64, box types.RegionBox) types.SkinProblem {
	severity = types.Clamp100(severity)
	lo, hi := d.config.BlindConfidenceMin, d.config.BlindConfidenceMax
	return types.NewSkinProblem(t, severity, box, lo+(hi-lo)*severity/100)
}

func (d *SkinDetector) landmarkProblem(t types.ProblemType, severity float64, box types.RegionBox) types.SkinProblem {
	severity = types.Clamp100(severity)
	lo, hi := d.config.LandmarkConfidenceMin, d.config.LandmarkConfidenceMax
	return types.NewSkinProblem(t, severity, box, lo+(hi-lo)*severity/100)
}
