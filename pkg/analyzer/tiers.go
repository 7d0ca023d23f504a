package analyzer

import (
	"context"
	"fmt"

	"github.com/menta2k/skin-analyzer/pkg/aggregator"
	"github.com/menta2k/skin-analyzer/pkg/detection"
	"github.com/menta2k/skin-analyzer/pkg/processing"
	"github.com/menta2k/skin-analyzer/pkg/regions"
	"github.com/menta2k/skin-analyzer/pkg/remote"
	"github.com/menta2k/skin-analyzer/pkg/sampler"
	"github.com/menta2k/skin-analyzer/pkg/skintype"
	"github.com/menta2k/skin-analyzer/pkg/types"
	"github.com/menta2k/skin-analyzer/pkg/vision"
)

// Strategy names for results that did not come from the local detectors
const (
	StrategyRemote = "remote"
	StrategyVision = "vision"
	StrategyCanned = "canned"
)

// LocalTier runs the deterministic pixel pipeline
type LocalTier struct {
	sampler    *sampler.Sampler
	locator    *regions.Locator
	detector   *vision.SkinDetector
	classifier *skintype.Classifier
}

// NewLocalTier wires the local pipeline; a nil locator means fixed regions only
func NewLocalTier(s *sampler.Sampler, locator *regions.Locator, detector *vision.SkinDetector, classifier *skintype.Classifier) *LocalTier {
	if s == nil {
		s = sampler.New()
	}
	if detector == nil {
		detector = vision.New()
	}
	if classifier == nil {
		classifier = skintype.New()
	}
	return &LocalTier{sampler: s, locator: locator, detector: detector, classifier: classifier}
}

// Name implements Tier
func (t *LocalTier) Name() string { return "local" }

// Analyze implements Tier
func (t *LocalTier) Analyze(ctx context.Context, in Input) Outcome {
	if in.Image == nil {
		return Failed(ErrEmptyImage)
	}
	buf := sampler.FromImage(in.Image)
	if buf.Empty() {
		return Failed(ErrEmptyImage)
	}
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}

	stats := t.sampler.Stats(buf)
	located := t.locator.Locate(in.Image)
	det := t.detector.Detect(buf, stats, located)
	skin := t.classifier.Classify(buf)

	return OK(aggregator.Result(det.Problems, skin, string(det.Strategy)))
}

// Landmarks returns the face mesh the local tier would use, if any
func (t *LocalTier) Landmarks(in Input) []types.Point3 {
	if in.Image == nil {
		return nil
	}
	return t.locator.Locate(in.Image).Landmarks
}

// Classify exposes the local skin-type classifier
func (t *LocalTier) Classify(buf *sampler.PixelBuffer) types.SkinType {
	return t.classifier.Classify(buf)
}

// remoteResult converts a partial remote answer into a full result. A missing
// or unknown remote skin type is filled in by the local classifier.
func remoteResult(res *types.RemoteAnalysis, in Input, classifier *skintype.Classifier, strategy string) *types.SkinAnalysisResult {
	b := in.Image.Bounds()
	skin, ok := res.RemoteSkinType()
	if !ok {
		skin = classifier.Classify(sampler.FromImage(in.Image))
	}
	return aggregator.Result(res.Problems(b.Dx(), b.Dy()), skin, strategy)
}

// ImageEncoding controls how remote tiers serialize the image
type ImageEncoding struct {
	Format  string
	MaxDim  int
	Quality int
}

// DefaultImageEncoding returns a JPEG, 1024px, quality 85 encoding
func DefaultImageEncoding() ImageEncoding {
	return ImageEncoding{Format: "jpg", MaxDim: 1024, Quality: 85}
}

func (e ImageEncoding) encode(p *processing.Processor, in Input) (string, error) {
	if in.Image == nil || in.Image.Bounds().Empty() {
		return "", ErrEmptyImage
	}
	b64, err := p.PrepareImageForModel(in.Image, e.Format, e.MaxDim, e.Quality)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return b64, nil
}

// RemoteTier asks the hosted skin-analysis API
type RemoteTier struct {
	client     *remote.Client
	processor  *processing.Processor
	classifier *skintype.Classifier
	encoding   ImageEncoding
}

// NewRemoteTier creates the remote API tier
func NewRemoteTier(client *remote.Client, encoding ImageEncoding) *RemoteTier {
	return &RemoteTier{
		client:     client,
		processor:  processing.NewProcessor(),
		classifier: skintype.New(),
		encoding:   encoding,
	}
}

// Name implements Tier
func (t *RemoteTier) Name() string { return StrategyRemote }

// Analyze implements Tier
func (t *RemoteTier) Analyze(ctx context.Context, in Input) Outcome {
	b64, err := t.encoding.encode(t.processor, in)
	if err != nil {
		return Failed(err)
	}
	res, err := t.client.Analyze(ctx, b64)
	if err != nil {
		return Failed(err)
	}
	return OK(remoteResult(res, in, t.classifier, StrategyRemote))
}

// VisionModelTier asks a vision LLM for the same partial schema
type VisionModelTier struct {
	detector   *detection.Detector
	model      string
	processor  *processing.Processor
	classifier *skintype.Classifier
	encoding   ImageEncoding
}

// NewVisionModelTier creates the vision-model tier
func NewVisionModelTier(detector *detection.Detector, model string, encoding ImageEncoding) *VisionModelTier {
	return &VisionModelTier{
		detector:   detector,
		model:      model,
		processor:  processing.NewProcessor(),
		classifier: skintype.New(),
		encoding:   encoding,
	}
}

// Name implements Tier
func (t *VisionModelTier) Name() string { return StrategyVision }

// Analyze implements Tier
func (t *VisionModelTier) Analyze(ctx context.Context, in Input) Outcome {
	b64, err := t.encoding.encode(t.processor, in)
	if err != nil {
		return Failed(err)
	}
	res, err := t.detector.AnalyzeSkin(ctx, t.model, b64)
	if err != nil {
		return Failed(err)
	}
	if res.Failed() {
		return Failed(fmt.Errorf("vision model: %w", ErrNoFace))
	}
	return OK(remoteResult(res, in, t.classifier, StrategyVision))
}

// CannedTier always succeeds with the fixed fallback result
type CannedTier struct{}

// Name implements Tier
func (CannedTier) Name() string { return StrategyCanned }

// Analyze implements Tier
func (CannedTier) Analyze(context.Context, Input) Outcome {
	return OK(CannedResult())
}

// CannedScore is the overall score of the canned result
const CannedScore = 72

// CannedResult is substituted when nothing else can analyze the photo
func CannedResult() *types.SkinAnalysisResult {
	problems := []types.SkinProblem{
		types.NewSkinProblem(types.Acne, 45, types.RegionBox{X: 20, Y: 50, Width: 15, Height: 15}, 70),
		types.NewSkinProblem(types.DarkCircle, 35, types.RegionBox{X: 30, Y: 35, Width: 15, Height: 8}, 70),
	}
	return &types.SkinAnalysisResult{
		Problems:        problems,
		SkinType:        types.SkinNormal,
		OverallScore:    CannedScore,
		Recommendations: aggregator.Recommendations(problems),
		Strategy:        StrategyCanned,
	}
}
