package regions

import (
	"errors"
	"image"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/skin-analyzer/internal/logging"
	"github.com/menta2k/skin-analyzer/pkg/landmark"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

type fakeDetector struct {
	points []types.Point3
	err    error
	calls  int
	closed int
}

func (f *fakeDetector) Detect(image.Image) ([]types.Point3, error) {
	f.calls++
	return f.points, f.err
}

func (f *fakeDetector) Close() error {
	f.closed++
	return nil
}

func TestFixedRegionsAreValid(t *testing.T) {
	for f, box := range Fixed().Boxes {
		assert.True(t, box.Valid(), "feature %s: %+v", f, box)
	}
	assert.Equal(t, types.RegionBox{X: 40, Y: 45, Width: 20, Height: 20}, FixedRegion(Nose))
}

func TestFromLandmarks(t *testing.T) {
	points := []types.Point3{
		{X: 0.2, Y: 0.3},
		{X: 0.4, Y: 0.35},
		{X: 0.3, Y: 0.5},
	}
	box, ok := FromLandmarks(points, []int{0, 1, 2})
	require.True(t, ok)
	assert.InDelta(t, 20, box.X, 1e-9)
	assert.InDelta(t, 30, box.Y, 1e-9)
	assert.InDelta(t, 20, box.Width, 1e-9)
	assert.InDelta(t, 20, box.Height, 1e-9)
}

func TestFromLandmarksDegenerate(t *testing.T) {
	points := []types.Point3{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}}
	box, ok := FromLandmarks(points, []int{0, 1})
	require.True(t, ok)
	assert.True(t, box.Valid())
	assert.GreaterOrEqual(t, box.Width, MinExtent)
	assert.GreaterOrEqual(t, box.Height, MinExtent)

	// a point on the far edge still yields a box inside the image
	box, ok = FromLandmarks([]types.Point3{{X: 1, Y: 1}}, []int{0})
	require.True(t, ok)
	assert.True(t, box.Valid())
}

func TestFromLandmarksSkipsBadIndices(t *testing.T) {
	points := []types.Point3{{X: 0.1, Y: 0.1}}
	_, ok := FromLandmarks(points, []int{-1, 5})
	assert.False(t, ok)

	box, ok := FromLandmarks(points, []int{0, 99})
	require.True(t, ok)
	assert.InDelta(t, 10, box.X, 1e-9)
}

func TestFeatureIndicesIsCopy(t *testing.T) {
	idx := FeatureIndices(Nose)
	require.NotEmpty(t, idx)
	idx[0] = -1
	assert.Equal(t, 1, FeatureIndices(Nose)[0])
	assert.Nil(t, FeatureIndices(TZone))
}

func TestLocatorLandmarkMode(t *testing.T) {
	fake := &fakeDetector{points: landmark.TemplateMesh(landmark.FaceBox{X: 0.2, Y: 0.1, Width: 0.6, Height: 0.8})}
	factoryCalls := 0
	loc := NewLocator(func() (landmark.Detector, error) {
		factoryCalls++
		return fake, nil
	})

	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	r := loc.Locate(img)
	assert.Equal(t, ModeLandmark, r.Mode)
	assert.Len(t, r.Landmarks, landmark.MeshSize)
	for _, f := range LandmarkFeatures() {
		assert.True(t, r.Box(f).Valid(), "feature %s", f)
	}
	// forehead sits above the nose
	assert.Less(t, r.Box(Forehead).Y, r.Box(Nose).Y)

	loc.Locate(img)
	assert.Equal(t, 1, factoryCalls)
	assert.Equal(t, 2, fake.calls)

	require.NoError(t, loc.Close())
	assert.Equal(t, 1, fake.closed)

	loc.Locate(img)
	assert.Equal(t, 2, factoryCalls)
}

func TestLocatorFallsBackToFixed(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))

	noFace := NewLocator(func() (landmark.Detector, error) {
		return &fakeDetector{err: landmark.ErrNoFace}, nil
	})
	assert.Equal(t, ModeFixed, noFace.Locate(img).Mode)

	broken := NewLocator(func() (landmark.Detector, error) {
		return nil, errors.New("cascade missing")
	})
	assert.Equal(t, ModeFixed, broken.Locate(img).Mode)
	require.NoError(t, broken.Close())

	assert.Equal(t, ModeFixed, NewLocator(nil).Locate(img).Mode)
}

func TestLocatorLogsFallbacks(t *testing.T) {
	hook := test.NewLocal(logging.Logger)
	defer hook.Reset()
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))

	tests := []struct {
		name    string
		factory DetectorFactory
		level   logrus.Level
	}{
		{"no face", func() (landmark.Detector, error) { return &fakeDetector{err: landmark.ErrNoFace}, nil }, logrus.InfoLevel},
		{"detect error", func() (landmark.Detector, error) { return &fakeDetector{err: errors.New("bad frame")}, nil }, logrus.WarnLevel},
		{"init error", func() (landmark.Detector, error) { return nil, errors.New("cascade missing") }, logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			assert.Equal(t, ModeFixed, NewLocator(tt.factory).Locate(img).Mode)
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, tt.level, hook.LastEntry().Level)
		})
	}
}

func TestRegionBoxRoundTrip(t *testing.T) {
	sizes := [][2]int{{640, 480}, {1000, 1000}, {333, 517}}
	r := FromMesh(landmark.TemplateMesh(landmark.FaceBox{X: 0.25, Y: 0.15, Width: 0.5, Height: 0.7}))

	for _, size := range sizes {
		for f, box := range r.Boxes {
			x, y, w, h := box.Denormalize(size[0], size[1])
			back := types.Normalize(x, y, w, h, size[0], size[1])
			assert.InDelta(t, box.X, back.X, 1e-9, "feature %s", f)
			assert.InDelta(t, box.Y, back.Y, 1e-9, "feature %s", f)
			assert.InDelta(t, box.Width, back.Width, 1e-9, "feature %s", f)
			assert.InDelta(t, box.Height, back.Height, 1e-9, "feature %s", f)
		}
	}
}
