// Package regions maps named facial features to percentage boxes, either from
// a fixed table or from detected face-mesh landmarks.
package regions

import (
	"errors"
	"image"
	"math"
	"sync"

	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/landmark"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

// Feature names a facial region
type Feature string

const (
	Forehead       Feature = "forehead"
	LeftUnderEye   Feature = "leftUnderEye"
	RightUnderEye  Feature = "rightUnderEye"
	LeftCheek      Feature = "leftCheek"
	RightCheek     Feature = "rightCheek"
	Nose           Feature = "nose"
	Chin           Feature = "chin"
	TZone          Feature = "tZone"
	LeftEyeCorner  Feature = "leftEyeCorner"
	RightEyeCorner Feature = "rightEyeCorner"
)

// LandmarkFeatures lists the features that have curated mesh index sets, in
// the order detectors walk them.
func LandmarkFeatures() []Feature {
	return []Feature{Forehead, LeftUnderEye, RightUnderEye, LeftCheek, RightCheek, Nose}
}

// MinExtent is the smallest width/height (percent) a landmark box may have
const MinExtent = 1.0

var fixedTable = map[Feature]types.RegionBox{
	Forehead:       {X: 30, Y: 10, Width: 40, Height: 15},
	LeftUnderEye:   {X: 25, Y: 38, Width: 18, Height: 8},
	RightUnderEye:  {X: 57, Y: 38, Width: 18, Height: 8},
	LeftCheek:      {X: 18, Y: 48, Width: 20, Height: 18},
	RightCheek:     {X: 62, Y: 48, Width: 20, Height: 18},
	Nose:           {X: 40, Y: 45, Width: 20, Height: 20},
	Chin:           {X: 38, Y: 75, Width: 24, Height: 12},
	TZone:          {X: 40, Y: 15, Width: 20, Height: 45},
	LeftEyeCorner:  {X: 15, Y: 32, Width: 10, Height: 10},
	RightEyeCorner: {X: 75, Y: 32, Width: 10, Height: 10},
}

var featureIndices = map[Feature][]int{
	Forehead:      {10, 338, 297, 332, 284, 251, 21, 54, 103, 67, 109, 151, 108, 69, 104, 68, 337, 299, 333, 298},
	LeftUnderEye:  {111, 117, 118, 119, 120, 121, 128, 245, 230, 229, 228, 31},
	RightUnderEye: {340, 346, 347, 348, 349, 350, 357, 465, 450, 449, 448, 261},
	LeftCheek:     {50, 101, 36, 205, 187, 123, 116, 117, 118, 119, 47, 126, 142, 203, 206, 207, 147},
	RightCheek:    {280, 330, 266, 425, 411, 352, 345, 346, 347, 348, 277, 355, 371, 423, 426, 427, 376},
	Nose:          {1, 2, 98, 327, 4, 5, 6, 168, 197, 195, 48, 278, 64, 294},
}

// FixedRegion returns the hard-coded box for f; unknown features get the face center.
func FixedRegion(f Feature) types.RegionBox {
	if box, ok := fixedTable[f]; ok {
		return box
	}
	return types.RegionBox{X: 35, Y: 35, Width: 30, Height: 30}
}

// FeatureIndices returns a copy of the mesh index set for f, or nil for fixed-only features
func FeatureIndices(f Feature) []int {
	idx, ok := featureIndices[f]
	if !ok {
		return nil
	}
	out := make([]int, len(idx))
	copy(out, idx)
	return out
}

// FromLandmarks bounds the selected normalized points and returns the box in
// percent, clamped to [0,100] with at least MinExtent of width and height.
// Out-of-range indices are skipped; ok is false when no index was usable.
func FromLandmarks(points []types.Point3, indices []int) (box types.RegionBox, ok bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, i := range indices {
		if i < 0 || i >= len(points) {
			continue
		}
		p := points[i]
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		ok = true
	}
	if !ok {
		return types.RegionBox{}, false
	}
	box = types.RegionBox{
		X:      minX * 100,
		Y:      minY * 100,
		Width:  (maxX - minX) * 100,
		Height: (maxY - minY) * 100,
	}
	return box.Clamp(MinExtent), true
}

// Mode reports which strategy produced a Regions value
type Mode string

const (
	ModeLandmark Mode = "landmark"
	ModeFixed    Mode = "fixed"
)

// Regions is the located feature set for one image
type Regions struct {
	Mode      Mode
	Boxes     map[Feature]types.RegionBox
	Landmarks []types.Point3
}

// Box returns the located box for f, falling back to the fixed table
func (r *Regions) Box(f Feature) types.RegionBox {
	if r != nil {
		if box, ok := r.Boxes[f]; ok {
			return box
		}
	}
	return FixedRegion(f)
}

// Fixed returns the fixed-heuristic region set
func Fixed() *Regions {
	boxes := make(map[Feature]types.RegionBox, len(fixedTable))
	for f, box := range fixedTable {
		boxes[f] = box
	}
	return &Regions{Mode: ModeFixed, Boxes: boxes}
}

// FromMesh builds landmark-mode regions from a face mesh. Features the mesh
// cannot cover keep their fixed boxes.
func FromMesh(points []types.Point3) *Regions {
	r := Fixed()
	r.Mode = ModeLandmark
	r.Landmarks = points
	for _, f := range LandmarkFeatures() {
		if box, ok := FromLandmarks(points, featureIndices[f]); ok {
			r.Boxes[f] = box
		}
	}
	return r
}

// DetectorFactory builds the landmark detector on first use
type DetectorFactory func() (landmark.Detector, error)

// Locator owns the landmark detector. It is acquired lazily and released by Close.
type Locator struct {
	factory DetectorFactory

	mu       sync.Mutex
	detector landmark.Detector
	initErr  error
}

// NewLocator creates a locator; a nil factory means fixed mode only
func NewLocator(factory DetectorFactory) *Locator {
	return &Locator{factory: factory}
}

func (l *Locator) acquire() (landmark.Detector, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.detector != nil || l.initErr != nil {
		return l.detector, l.initErr
	}
	l.detector, l.initErr = l.factory()
	return l.detector, l.initErr
}

// Locate returns landmark regions when a face is found, fixed regions otherwise
func (l *Locator) Locate(img image.Image) *Regions {
	if l == nil || l.factory == nil {
		return Fixed()
	}

	log := logging.Component("regions")
	detector, err := l.acquire()
	if err != nil {
		log.WithError(err).Warn("landmark detector unavailable, using fixed regions")
		return Fixed()
	}

	points, err := detector.Detect(img)
	if errors.Is(err, landmark.ErrNoFace) {
		log.Info("no face found, using fixed regions")
		return Fixed()
	}
	if err != nil {
		log.WithError(err).Warn("landmark detection failed, using fixed regions")
		return Fixed()
	}
	if len(points) == 0 {
		return Fixed()
	}
	return FromMesh(points)
}

// Close releases the detector; a later Locate acquires a fresh one
func (l *Locator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	if l.detector != nil {
		err = l.detector.Close()
	}
	l.detector = nil
	l.initErr = nil
	return err
}
