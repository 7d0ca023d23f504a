package detection

import (
	"context"
	"strings"

	"github.com/menta2k/skin-analyzer/pkg/client"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks a vision model for the remote skin analysis schema
const DefaultPrompt = `You are a cosmetic skin assessment assistant looking at a face photo.

Return JSON only:
{
  "success": true,
  "scale": "percent",
  "skin_type": "normal | oily | dry | combination | sensitive",
  "acne":         [{"severity": 0, "confidence": 0, "location": {"x": 0, "y": 0, "width": 0, "height": 0}}],
  "wrinkles":     [],
  "dark_circles": [],
  "pores":        [],
  "dark_spots":   [],
  "redness":      []
}

HARD RULES
- severity and confidence are integers from 0 to 100.
- location values are percentages of the image (0 to 100), x/y is the top-left corner.
- Report at most 5 entries per array; leave an array empty when the condition is not visible.
- If no face is visible, return {"success": false}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// maxPerFeature caps how many detections of one kind a model may report
const maxPerFeature = 5

// Detector runs skin analysis through a vision model
type Detector struct {
	client client.VisionClient
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client}
}

// AnalyzeSkin asks the model for a skin analysis of the image
func (d *Detector) AnalyzeSkin(ctx context.Context, model, imageB64 string) (*types.RemoteAnalysis, error) {
	return d.AnalyzeSkinWithPrompt(ctx, model, imageB64, DefaultPrompt)
}

// AnalyzeSkinWithPrompt analyzes an image with a custom prompt
func (d *Detector) AnalyzeSkinWithPrompt(ctx context.Context, model, imageB64, prompt string) (*types.RemoteAnalysis, error) {
	result, err := d.client.AnalyzeSkin(ctx, model, prompt, imageB64)
	if err != nil {
		return nil, err
	}
	return normalizeResult(result), nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// normalizeResult cleans up free-form model output: the skin type is
// lower-cased and unknown values dropped, and each array is capped. A missing
// scale is the percent scale the prompt asks for.
func normalizeResult(result *types.RemoteAnalysis) *types.RemoteAnalysis {
	if result.Scale == nil {
		scale := types.ScalePercent
		result.Scale = &scale
	}
	if result.SkinType != nil {
		s := strings.ToLower(strings.TrimSpace(*result.SkinType))
		if _, ok := types.ParseSkinType(s); ok {
			result.SkinType = &s
		} else {
			result.SkinType = nil
		}
	}

	for _, arr := range []*[]types.RemoteDetection{
		&result.Acne, &result.Wrinkles, &result.DarkCircles,
		&result.Pores, &result.DarkSpots, &result.Redness,
	} {
		if len(*arr) > maxPerFeature {
			*arr = (*arr)[:maxPerFeature]
		}
	}
	return result
}
