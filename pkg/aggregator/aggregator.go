// Package aggregator turns a detector problem list into an overall score and
// the static advice shown with it.
package aggregator

import (
	"math"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

const (
	// PerfectScore is reported when nothing was detected
	PerfectScore = 95
	// MinScore is the floor of the overall score
	MinScore = 40
	// MaxProblemScore is the ceiling when at least one problem exists
	MaxProblemScore = PerfectScore - 1
)

// weights is the per-type score impact of a severity-100 problem, in tenths
var weights = map[types.ProblemType]float64{
	types.Acne:       1.5,
	types.DarkSpot:   1.2,
	types.Wrinkle:    1.0,
	types.Redness:    0.9,
	types.DarkCircle: 0.8,
	types.Pore:       0.6,
}

// Weight returns the score weight of a problem type; unknown types weigh 1
func Weight(t types.ProblemType) float64 {
	if w, ok := weights[t]; ok {
		return w
	}
	return 1
}

var advice = map[types.ProblemType]string{
	types.Acne:       "Use a gentle salicylic acid cleanser and avoid touching affected areas",
	types.Wrinkle:    "Add a retinol or peptide serum to your evening routine",
	types.DarkCircle: "Get consistent sleep and use an eye cream with caffeine or vitamin K",
	types.Pore:       "Exfoliate twice a week with a BHA to keep pores clear",
	types.DarkSpot:   "Apply a vitamin C serum in the morning to even out skin tone",
	types.Redness:    "Choose fragrance-free, soothing products with niacinamide or centella",
}

// SunscreenReminder is always the last recommendation
const SunscreenReminder = "Wear broad-spectrum SPF 30+ sunscreen every day"

// Summary is the aggregate view of a problem list
type Summary struct {
	OverallScore    int
	Recommendations []string
}

// RawScore is 100 minus the weighted severity of every problem, before clamping
func RawScore(problems []types.SkinProblem) float64 {
	score := 100.0
	for _, p := range problems {
		score -= p.Severity / 100 * Weight(p.Type) * 10
	}
	return score
}

// OverallScore is PerfectScore for an empty list, otherwise the rounded raw
// score clamped to [MinScore, MaxProblemScore].
func OverallScore(problems []types.SkinProblem) int {
	if len(problems) == 0 {
		return PerfectScore
	}
	score := int(math.Round(RawScore(problems)))
	if score < MinScore {
		return MinScore
	}
	if score > MaxProblemScore {
		return MaxProblemScore
	}
	return score
}

// Recommendations returns one advice line per present problem type in fixed
// type order, followed by the sunscreen reminder.
func Recommendations(problems []types.SkinProblem) []string {
	present := make(map[types.ProblemType]bool, len(problems))
	for _, p := range problems {
		present[p.Type] = true
	}

	var out []string
	for _, t := range types.AllProblemTypes() {
		if present[t] {
			out = append(out, advice[t])
		}
	}
	return append(out, SunscreenReminder)
}

// Aggregate computes the score and recommendations together
func Aggregate(problems []types.SkinProblem) Summary {
	return Summary{
		OverallScore:    OverallScore(problems),
		Recommendations: Recommendations(problems),
	}
}

// Result assembles a full analysis result from a problem list and skin type
func Result(problems []types.SkinProblem, skinType types.SkinType, strategy string) *types.SkinAnalysisResult {
	if problems == nil {
		problems = []types.SkinProblem{}
	}
	summary := Aggregate(problems)
	return &types.SkinAnalysisResult{
		Problems:        problems,
		SkinType:        skinType,
		OverallScore:    summary.OverallScore,
		Recommendations: summary.Recommendations,
		Strategy:        strategy,
	}
}
