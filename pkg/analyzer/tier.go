package analyzer

import (
	"context"
	"image"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// Input is what every tier analyzes
type Input struct {
	Image image.Image
}

// Outcome is a tagged tier result: exactly one of Result or Err is set
type Outcome struct {
	Result *types.SkinAnalysisResult
	Err    error
}

// OK wraps a successful result
func OK(result *types.SkinAnalysisResult) Outcome {
	return Outcome{Result: result}
}

// Failed wraps a tier failure
func Failed(err error) Outcome {
	return Outcome{Err: err}
}

// Ok reports whether the tier produced a result
func (o Outcome) Ok() bool {
	return o.Err == nil && o.Result != nil
}

// Tier is one link of the analysis chain
type Tier interface {
	Name() string
	Analyze(ctx context.Context, in Input) Outcome
}

// Chain tries tiers in order and returns the first success
type Chain []Tier

// Run returns the first OK outcome with the name of the tier that produced it.
// When every tier fails, the last failure is returned.
func (c Chain) Run(ctx context.Context, in Input) (Outcome, string) {
	log := logger()
	last := Failed(ErrNoTiers)
	for _, tier := range c {
		out := tier.Analyze(ctx, in)
		if out.Ok() {
			return out, tier.Name()
		}
		if out.Err == nil {
			out = Failed(ErrEmptyResult)
		}
		log.WithError(out.Err).WithField("tier", tier.Name()).Warn("analysis tier failed, trying next")
		last = out
	}
	return last, ""
}
