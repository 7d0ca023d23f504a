package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/skin-analyzer/pkg/beauty"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

var skin = color.NRGBA{R: 224, G: 172, B: 140, A: 255}

func createTestImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createFaceImage paints a skin-toned face with a darker speckle pattern on a blue background
func createFaceImage(width, height int) *image.NRGBA {
	img := createTestImage(width, height, color.NRGBA{R: 30, G: 60, B: 160, A: 255})
	for y := height / 5; y < height*4/5; y++ {
		for x := width / 4; x < width*3/4; x++ {
			c := skin
			if (x+y)%4 == 0 {
				c = color.NRGBA{R: 190, G: 140, B: 110, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

type fakeEnhancer struct {
	out   image.Image
	err   error
	calls int
}

func (f *fakeEnhancer) Enhance(ctx context.Context, img image.Image) (image.Image, error) {
	f.calls++
	return f.out, f.err
}

func sampleResult() *types.SkinAnalysisResult {
	return &types.SkinAnalysisResult{
		Problems: []types.SkinProblem{
			types.NewSkinProblem(types.Acne, 70, types.RegionBox{X: 20, Y: 50, Width: 20, Height: 15}, 80),
			types.NewSkinProblem(types.DarkCircle, 40, types.RegionBox{X: 30, Y: 35, Width: 15, Height: 5}, 75),
		},
		OverallScore: 80,
	}
}

func TestComposeRemoteSuccess(t *testing.T) {
	enhanced := createTestImage(50, 40, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	enh := &fakeEnhancer{out: enhanced}
	c := New(enh)

	comp, err := c.Compose(context.Background(), createFaceImage(100, 80), sampleResult(), Options{ShowMarkers: true})
	require.NoError(t, err)

	assert.Equal(t, 1, enh.calls)
	assert.Equal(t, SourceRemote, comp.Source)
	assert.NotEmpty(t, comp.ID)
	assert.Equal(t, image.Rect(0, 0, 100, 80), comp.After.Bounds(), "remote result is resized to the original")
	assert.NotNil(t, comp.Overlay)
	assert.False(t, comp.Watermark.Empty())
}

func TestComposeFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(beauty.NewClient(beauty.Config{BaseURL: srv.URL}))
	src := createFaceImage(240, 160)

	comp, err := c.Compose(context.Background(), src, sampleResult(), Options{})
	require.NoError(t, err)
	require.NotNil(t, comp.After)

	assert.Equal(t, SourceLocal, comp.Source)
	assert.Nil(t, comp.Overlay, "markers are off")
	assert.Equal(t, src.Bounds(), comp.After.Bounds())

	wm := comp.Watermark
	require.False(t, wm.Empty())
	assert.Greater(t, wm.Min.X, 240/2, "watermark sits in the right half")
	assert.Greater(t, wm.Min.Y, 160/2, "watermark sits in the bottom half")

	plain := c.LocalEnhance(src, nil)
	differs := false
	for y := wm.Min.Y; y < wm.Max.Y && !differs; y++ {
		for x := wm.Min.X; x < wm.Max.X; x++ {
			if plain.NRGBAAt(x, y) != comp.After.NRGBAAt(x, y) {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs, "watermark must change the stamped area")
}

func TestComposeFallbackOnEnhancerErrors(t *testing.T) {
	tests := []struct {
		name string
		enh  Enhancer
	}{
		{"nil enhancer", nil},
		{"error", &fakeEnhancer{err: errors.New("network down")}},
		{"empty image", &fakeEnhancer{out: image.NewNRGBA(image.Rectangle{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := New(tt.enh).Compose(context.Background(), createFaceImage(60, 60), nil, Options{ShowMarkers: true})
			require.NoError(t, err)
			assert.Equal(t, SourceLocal, comp.Source)
			assert.NotNil(t, comp.After)
			assert.Nil(t, comp.Overlay, "no result means no markers")
		})
	}
}

func TestComposeRejectsEmptyImage(t *testing.T) {
	_, err := New(nil).Compose(context.Background(), nil, nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = New(nil).Compose(context.Background(), image.NewNRGBA(image.Rectangle{}), nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestLocalEnhanceLeavesNonSkinAlone(t *testing.T) {
	c := New(nil)
	src := createFaceImage(100, 100)
	out := c.LocalEnhance(src, nil)

	assert.Equal(t, src.NRGBAAt(2, 2), out.NRGBAAt(2, 2), "background corner untouched")

	before := src.NRGBAAt(50, 51)
	after := out.NRGBAAt(50, 51)
	assert.Greater(t, int(after.R)+int(after.G)+int(after.B), int(before.R)+int(before.G)+int(before.B), "skin is brightened")
}

func TestLocalEnhanceUsesLandmarks(t *testing.T) {
	c := New(nil)
	src := createTestImage(100, 100, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	landmarks := []types.Point3{{X: 0.3, Y: 0.3}, {X: 0.7, Y: 0.7}}

	out := c.LocalEnhance(src, landmarks)
	assert.Greater(t, out.NRGBAAt(50, 50).R, src.NRGBAAt(50, 50).R, "face centre is brightened")
	assert.Equal(t, src.NRGBAAt(5, 5), out.NRGBAAt(5, 5), "outside the face ellipse is untouched")
}

func TestFlatten(t *testing.T) {
	before := createTestImage(40, 40, skin)
	overlay := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	DrawMarkers(overlay, sampleResult().Problems, 2, 4)

	flat := Flatten(before, overlay)
	assert.Equal(t, before.Bounds(), flat.Bounds())
	assert.Equal(t, MarkerColor(types.Acne), flat.NRGBAAt(8, 20), "acne box corner")
	assert.Equal(t, skin, flat.NRGBAAt(39, 0))

	assert.Equal(t, before.NRGBAAt(3, 3), Flatten(before, nil).NRGBAAt(3, 3))
}

func BenchmarkLocalEnhance(b *testing.B) {
	c := New(nil)
	img := createFaceImage(640, 480)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.LocalEnhance(img, nil)
	}
}
