// Package landmark locates a face and lays out an approximate face mesh over it.
package landmark

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// MeshSize is the number of points in a face mesh
const MeshSize = 468

var (
	// ErrNoFace is returned when no face clears the quality threshold
	ErrNoFace = errors.New("landmark: no face detected")
	// ErrClosed is returned by Detect after Close
	ErrClosed = errors.New("landmark: detector closed")
)

// Detector produces normalized (0-1) face mesh points for an image
type Detector interface {
	Detect(img image.Image) ([]types.Point3, error)
	Close() error
}

// PigoConfig holds the cascade location and detection parameters
type PigoConfig struct {
	CascadePath  string
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinQuality   float32
}

// DefaultPigoConfig returns parameters tuned for portrait photos
func DefaultPigoConfig(cascadePath string) PigoConfig {
	return PigoConfig{
		CascadePath:  cascadePath,
		MinSize:      40,
		MaxSize:      2000,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5,
	}
}

// PigoDetector finds the face with a pigo cascade and maps a mesh template onto it.
// The cascade is unpacked on the first Detect call; a load failure is kept and
// returned by every later call.
type PigoDetector struct {
	config     PigoConfig
	mu         sync.Mutex
	classifier *pigo.Pigo
	loadErr    error
	closed     bool
}

// NewPigoDetector creates a detector; the cascade file is not read yet
func NewPigoDetector(config PigoConfig) *PigoDetector {
	return &PigoDetector{config: config}
}

func (d *PigoDetector) load() (*pigo.Pigo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.classifier != nil || d.loadErr != nil {
		return d.classifier, d.loadErr
	}

	data, err := os.ReadFile(d.config.CascadePath)
	if err != nil {
		d.loadErr = fmt.Errorf("failed to read cascade file: %w", err)
		return nil, d.loadErr
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		d.loadErr = fmt.Errorf("failed to unpack cascade file: %w", err)
		return nil, d.loadErr
	}
	d.classifier = classifier
	return classifier, nil
}

// Detect returns a face mesh for the best face in img
func (d *PigoDetector) Detect(img image.Image) ([]types.Point3, error) {
	classifier, err := d.load()
	if err != nil {
		return nil, err
	}

	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	if cols == 0 || rows == 0 {
		return nil, ErrNoFace
	}

	params := pigo.CascadeParams{
		MinSize:     d.config.MinSize,
		MaxSize:     d.config.MaxSize,
		ShiftFactor: d.config.ShiftFactor,
		ScaleFactor: d.config.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := classifier.RunCascade(params, 0)
	dets = classifier.ClusterDetections(dets, d.config.IoUThreshold)

	best := -1
	for i, det := range dets {
		if det.Q < d.config.MinQuality {
			continue
		}
		if best < 0 || det.Q > dets[best].Q {
			best = i
		}
	}
	if best < 0 {
		return nil, ErrNoFace
	}

	det := dets[best]
	face := FaceBox{
		X:      float64(det.Col-det.Scale/2) / float64(cols),
		Y:      float64(det.Row-det.Scale/2) / float64(rows),
		Width:  float64(det.Scale) / float64(cols),
		Height: float64(det.Scale) / float64(rows),
	}
	return TemplateMesh(face), nil
}

// Close releases the unpacked cascade
func (d *PigoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classifier = nil
	d.closed = true
	return nil
}

// FaceBox is a face rectangle in normalized (0-1) image coordinates
type FaceBox struct {
	X, Y, Width, Height float64
}

// meshFeature places a set of mesh indices on an ellipse in face-box units
type meshFeature struct {
	indices []int
	cx, cy  float64
	rx, ry  float64
}

// The index sets match the curated feature sets in package regions.
var meshTemplate = []meshFeature{
	{indices: []int{10, 338, 297, 332, 284, 251, 21, 54, 103, 67, 109, 151, 108, 69, 104, 68, 337, 299, 333, 298}, cx: 0.50, cy: 0.14, rx: 0.26, ry: 0.09},
	{indices: []int{111, 117, 118, 119, 120, 121, 128, 245, 230, 229, 228, 31}, cx: 0.33, cy: 0.46, rx: 0.10, ry: 0.04},
	{indices: []int{340, 346, 347, 348, 349, 350, 357, 465, 450, 449, 448, 261}, cx: 0.67, cy: 0.46, rx: 0.10, ry: 0.04},
	{indices: []int{50, 101, 36, 205, 187, 123, 116, 47, 126, 142, 203, 206, 207, 147}, cx: 0.27, cy: 0.62, rx: 0.11, ry: 0.10},
	{indices: []int{280, 330, 266, 425, 411, 352, 345, 277, 355, 371, 423, 426, 427, 376}, cx: 0.73, cy: 0.62, rx: 0.11, ry: 0.10},
	{indices: []int{1, 2, 98, 327, 4, 5, 6, 168, 197, 195, 48, 278, 64, 294}, cx: 0.50, cy: 0.55, rx: 0.09, ry: 0.14},
}

// TemplateMesh lays out a MeshSize-point mesh over a face box. Indices outside
// the template sit at the face-box center; the first feature to claim an index keeps it.
func TemplateMesh(face FaceBox) []types.Point3 {
	mesh := make([]types.Point3, MeshSize)
	cx, cy := face.X+face.Width/2, face.Y+face.Height/2
	for i := range mesh {
		mesh[i] = types.Point3{X: clampUnit(cx), Y: clampUnit(cy)}
	}

	claimed := make([]bool, MeshSize)
	for _, f := range meshTemplate {
		n := len(f.indices)
		for k, idx := range f.indices {
			if claimed[idx] {
				continue
			}
			angle := 2 * math.Pi * float64(k) / float64(n)
			px := f.cx + f.rx*math.Cos(angle)
			py := f.cy + f.ry*math.Sin(angle)
			mesh[idx] = types.Point3{
				X: clampUnit(face.X + px*face.Width),
				Y: clampUnit(face.Y + py*face.Height),
			}
			claimed[idx] = true
		}
	}
	return mesh
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
