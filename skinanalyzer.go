// Package skinanalyzer analyzes face photos for visible skin concerns and
// renders before/after previews.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		skinanalyzer "github.com/menta2k/skin-analyzer"
//	)
//
//	func main() {
//		sa := skinanalyzer.New()
//		defer sa.Close()
//
//		f, err := os.Open("selfie.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer f.Close()
//
//		result := sa.AnalyzeSkin(context.Background(), f)
//		fmt.Printf("score %d, skin type %s\n", result.OverallScore, result.SkinType)
//		for _, p := range result.Problems {
//			fmt.Printf("  %s severity %.0f\n", p.Type, p.Severity)
//		}
//	}
//
// The package consists of these main components:
//
//  1. Analyzer (pkg/analyzer): runs the remote, vision-model, local and canned tiers in order
//  2. Vision (pkg/vision): the six heuristic detectors over sampled pixels
//  3. Compositor (pkg/compositor): markers, watermark and the remote or local after-image
//  4. Persona (pkg/persona): quiz scoring and product recommendations
//
// Analysis never fails: a photo that cannot be decoded, or for which every
// tier fails, yields a fixed plausible result.
package skinanalyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/skin-analyzer/pkg/analyzer"
	"github.com/menta2k/skin-analyzer/pkg/compositor"
	"github.com/menta2k/skin-analyzer/pkg/persona"
	"github.com/menta2k/skin-analyzer/pkg/processing"
	"github.com/menta2k/skin-analyzer/pkg/types"
	"github.com/menta2k/skin-analyzer/pkg/vision"
)

// Version of the skin analyzer library
const Version = "1.0.0"

// SkinAnalyzer provides a high-level interface for analysis and composition
type SkinAnalyzer struct {
	analyzer   *analyzer.SkinAnalyzer
	compositor *compositor.Compositor
	processor  *processing.Processor
}

// New creates a SkinAnalyzer running the local pipeline with fixed regions
// and the local after-image
func New() *SkinAnalyzer {
	return &SkinAnalyzer{
		analyzer:   analyzer.New(),
		compositor: compositor.New(nil),
		processor:  processing.NewProcessor(),
	}
}

// NewWithConfig creates a SkinAnalyzer with custom detector and compositor
// settings. enhancer may be nil.
func NewWithConfig(analyzerConfig analyzer.Config, detectionConfig vision.DetectionConfig, compositorConfig compositor.Config, enhancer compositor.Enhancer) *SkinAnalyzer {
	local := analyzer.NewLocalTier(nil, nil, vision.NewWithConfig(detectionConfig), nil)
	return &SkinAnalyzer{
		analyzer:   analyzer.NewWithConfig(analyzerConfig, analyzer.WithLocalTier(local)),
		compositor: compositor.NewWithConfig(enhancer, compositorConfig),
		processor:  processing.NewProcessor(),
	}
}

// NewFromComponents wraps an already wired analyzer and compositor
func NewFromComponents(a *analyzer.SkinAnalyzer, c *compositor.Compositor) *SkinAnalyzer {
	return &SkinAnalyzer{analyzer: a, compositor: c, processor: processing.NewProcessor()}
}

// Close releases the landmark detector, if any
func (sa *SkinAnalyzer) Close() error {
	return sa.analyzer.Close()
}

// AnalyzeSkin decodes a photo and analyzes it
func (sa *SkinAnalyzer) AnalyzeSkin(ctx context.Context, r io.Reader) *types.SkinAnalysisResult {
	return sa.analyzer.AnalyzeSkin(ctx, r)
}

// AnalyzeImage analyzes an already decoded photo
func (sa *SkinAnalyzer) AnalyzeImage(ctx context.Context, img image.Image) *types.SkinAnalysisResult {
	return sa.analyzer.AnalyzeImage(ctx, img)
}

// Compose renders the before, marker overlay and after images for result
func (sa *SkinAnalyzer) Compose(ctx context.Context, img image.Image, result *types.SkinAnalysisResult, showMarkers bool) (*compositor.Composite, error) {
	landmarks := sa.analyzer.Local().Landmarks(analyzer.Input{Image: img})
	return sa.compositor.Compose(ctx, img, result, compositor.Options{ShowMarkers: showMarkers, Landmarks: landmarks})
}

// Recommend scores quiz answers into a persona and product routine
func (sa *SkinAnalyzer) Recommend(answers persona.Answers) (*persona.Result, error) {
	return persona.Score(answers)
}

// LoadImage loads a photo from a file path or URL
func (sa *SkinAnalyzer) LoadImage(ctx context.Context, source string) (image.Image, error) {
	return sa.processor.LoadImageSmart(ctx, source)
}

// SaveImage saves an image; the format follows the file extension
func (sa *SkinAnalyzer) SaveImage(img image.Image, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return sa.processor.SaveImage(img, path, format, sa.analyzer.Config().DefaultQuality, false)
}

// GetImageInfo returns basic information about an image
func (sa *SkinAnalyzer) GetImageInfo(img image.Image) analyzer.ImageInfo {
	return sa.analyzer.GetImageInfo(img)
}

// ValidateImage checks if an image meets minimum size requirements
func (sa *SkinAnalyzer) ValidateImage(img image.Image) error {
	return sa.analyzer.ValidateImage(img)
}

// ProcessImageFile analyzes a photo and writes <name>_analysis.json,
// <name>_before.png, <name>_markers.png and <name>_after.png into outputDir
func (sa *SkinAnalyzer) ProcessImageFile(ctx context.Context, inputPath, outputDir string) (*types.SkinAnalysisResult, error) {
	img, err := sa.LoadImage(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := sa.AnalyzeImage(ctx, img)
	comp, err := sa.Compose(ctx, img, result, true)
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	base := getBaseName(inputPath)
	images := map[string]image.Image{
		"before":  comp.Before,
		"markers": compositor.Flatten(comp.Before, comp.Overlay),
		"after":   comp.After,
	}
	for suffix, out := range images {
		path := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", base, suffix))
		if err := sa.SaveImage(out, path); err != nil {
			return nil, fmt.Errorf("failed to save %s image: %w", suffix, err)
		}
	}

	js, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(outputDir, base+"_analysis.json"), js, 0644); err != nil {
		return nil, fmt.Errorf("failed to write analysis: %w", err)
	}
	return result, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

// getBaseName extracts the base filename without extension
func getBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
