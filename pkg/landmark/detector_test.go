package landmark

import (
	"go/build"
	"image"
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pigoModuleDir finds the pigo module source, which ships the facefinder
// cascade and a sample portrait.
func pigoModuleDir(t *testing.T) string {
	t.Helper()
	info, ok := debug.ReadBuildInfo()
	if !ok {
		t.Skip("no build info")
	}
	version := ""
	for _, dep := range info.Deps {
		if dep.Path == "github.com/esimov/pigo" {
			version = dep.Version
		}
	}
	if version == "" {
		t.Skip("pigo not in build info")
	}

	modCache := os.Getenv("GOMODCACHE")
	if modCache == "" {
		modCache = filepath.Join(build.Default.GOPATH, "pkg", "mod")
	}
	dir := filepath.Join(modCache, "github.com", "esimov", "pigo@"+version)
	if _, err := os.Stat(filepath.Join(dir, "cascade", "facefinder")); err != nil {
		t.Skipf("pigo cascade not available: %v", err)
	}
	return dir
}

func TestTemplateMesh(t *testing.T) {
	face := FaceBox{X: 0.2, Y: 0.1, Width: 0.6, Height: 0.8}
	mesh := TemplateMesh(face)
	require.Len(t, mesh, MeshSize)

	for i, p := range mesh {
		assert.GreaterOrEqual(t, p.X, face.X-1e-9, "point %d", i)
		assert.LessOrEqual(t, p.X, face.X+face.Width+1e-9, "point %d", i)
		assert.GreaterOrEqual(t, p.Y, face.Y-1e-9, "point %d", i)
		assert.LessOrEqual(t, p.Y, face.Y+face.Height+1e-9, "point %d", i)
	}

	// unassigned index sits at the face center
	assert.InDelta(t, 0.5, mesh[0].X, 1e-9)
	assert.InDelta(t, 0.5, mesh[0].Y, 1e-9)

	// forehead points lie above under-eye points
	assert.Less(t, mesh[10].Y, mesh[111].Y)
	// left cheek lies left of right cheek
	assert.Less(t, mesh[50].X, mesh[280].X)
}

func TestTemplateMeshClampsToUnit(t *testing.T) {
	mesh := TemplateMesh(FaceBox{X: -0.3, Y: 0.7, Width: 0.8, Height: 0.8})
	for _, p := range mesh {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
	}
}

func TestPigoDetectorMissingCascade(t *testing.T) {
	d := NewPigoDetector(DefaultPigoConfig(filepath.Join(t.TempDir(), "missing")))
	_, err := d.Detect(image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read cascade file")
}

func TestPigoDetectorCachesLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facefinder")
	d := NewPigoDetector(DefaultPigoConfig(path))
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	_, first := d.Detect(img)
	require.Error(t, first)

	// the file appearing later does not trigger a re-read
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	_, second := d.Detect(img)
	assert.Equal(t, first, second)
}

func TestPigoDetectorFindsFace(t *testing.T) {
	dir := pigoModuleDir(t)
	img, err := imaging.Open(filepath.Join(dir, "testdata", "sample.jpg"))
	require.NoError(t, err)

	cfg := DefaultPigoConfig(filepath.Join(dir, "cascade", "facefinder"))
	cfg.MinSize = 20
	cfg.MaxSize = 1000
	cfg.ShiftFactor = 0.2
	cfg.IoUThreshold = 0.1
	cfg.MinQuality = 0
	d := NewPigoDetector(cfg)
	defer d.Close()

	mesh, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, mesh, MeshSize)
	for _, p := range mesh {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, 1.0)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, 1.0)
	}
	assert.Less(t, mesh[10].Y, mesh[111].Y, "forehead above the under-eye")

	again, err := d.Detect(img)
	require.NoError(t, err)
	assert.Equal(t, mesh, again)
}

func TestPigoDetectorClosed(t *testing.T) {
	d := NewPigoDetector(DefaultPigoConfig("unused"))
	require.NoError(t, d.Close())

	_, err := d.Detect(image.NewNRGBA(image.Rect(0, 0, 10, 10)))
	assert.ErrorIs(t, err, ErrClosed)
}
