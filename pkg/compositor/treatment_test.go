package compositor

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

func TestProfileForProduct(t *testing.T) {
	tests := []struct {
		key  string
		want Profile
		ok   bool
	}{
		{"vitamin-c-moisturizer", ProfileBrightening, true},
		{"bha-exfoliant", ProfileBrightening, true},
		{"repairing-serum", ProfileRednessReduction, true},
		{"rescue-repair-moisturizer", ProfileRednessReduction, true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := ProfileForProduct(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildTreatmentMap(t *testing.T) {
	problems := []types.SkinProblem{
		types.NewSkinProblem(types.Redness, 80, types.RegionBox{X: 10, Y: 10, Width: 40, Height: 40}, 80),
		types.NewSkinProblem(types.Redness, 40, types.RegionBox{X: 20, Y: 20, Width: 40, Height: 40}, 80),
	}
	m := BuildTreatmentMap(100, 100, problems, ProfileRednessReduction)
	require.Equal(t, 100*100, len(m.Weights))

	assert.InDelta(t, 0.8, m.Max(), 0.05, "peak at the centre of the strongest problem")
	assert.Zero(t, m.At(95, 95), "outside every box")
	assert.Zero(t, m.At(10, 10), "box corner lies outside the ellipse")

	// (50,50) is only covered by the second problem
	assert.Greater(t, m.At(50, 50), 0.0)
	assert.Less(t, m.At(50, 50), 0.4)

	// (35,35) is covered by both; the stronger wins
	first := BuildTreatmentMap(100, 100, problems[:1], ProfileRednessReduction)
	assert.Equal(t, first.At(35, 35), m.At(35, 35))
}

func TestBuildTreatmentMapProfileStrength(t *testing.T) {
	spot := []types.SkinProblem{
		types.NewSkinProblem(types.DarkSpot, 100, types.RegionBox{X: 40, Y: 40, Width: 20, Height: 20}, 80),
	}
	bright := BuildTreatmentMap(100, 100, spot, ProfileBrightening)
	red := BuildTreatmentMap(100, 100, spot, ProfileRednessReduction)
	assert.Greater(t, bright.At(50, 50), red.At(50, 50))

	assert.Zero(t, BuildTreatmentMap(0, 0, spot, ProfileBrightening).Max())
}

func TestApplyTreatmentRednessReduction(t *testing.T) {
	red := color.NRGBA{R: 220, G: 120, B: 110, A: 255}
	img := createTestImage(100, 100, red)
	problems := []types.SkinProblem{
		types.NewSkinProblem(types.Redness, 100, types.RegionBox{X: 25, Y: 25, Width: 50, Height: 50}, 80),
	}

	out := Treat(img, problems, ProfileRednessReduction)

	centre := out.NRGBAAt(50, 50)
	assert.Less(t, centre.R, red.R)
	assert.Greater(t, centre.G, red.G)
	assert.Equal(t, red, out.NRGBAAt(5, 5), "untreated pixels keep their colour")
}

func TestApplyTreatmentBrightening(t *testing.T) {
	img := createTestImage(100, 100, color.NRGBA{R: 120, G: 90, B: 70, A: 255})
	problems := []types.SkinProblem{
		types.NewSkinProblem(types.DarkSpot, 90, types.RegionBox{X: 30, Y: 30, Width: 40, Height: 40}, 80),
	}

	out := Treat(img, problems, ProfileBrightening)

	before := img.NRGBAAt(50, 50)
	after := out.NRGBAAt(50, 50)
	assert.Greater(t, int(after.R)+int(after.G)+int(after.B), int(before.R)+int(before.G)+int(before.B))
	assert.Less(t, int(after.R)-int(after.B), int(before.R)-int(before.B), "colour pulled toward grey")
}

func TestApplyTreatmentSizeMismatch(t *testing.T) {
	img := createTestImage(10, 10, skin)
	out := ApplyTreatment(img, NewMask(5, 5), ProfileBrightening)
	assert.Equal(t, skin, out.NRGBAAt(3, 3))
}

func TestFaceMask(t *testing.T) {
	assert.Nil(t, FaceMask(100, 100, nil))
	assert.Nil(t, FaceMask(100, 100, []types.Point3{{X: 0.5, Y: 0.5}}), "degenerate extent")

	m := FaceMask(100, 100, []types.Point3{{X: 0.2, Y: 0.1}, {X: 0.8, Y: 0.9}})
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.At(50, 50))
	assert.Zero(t, m.At(0, 0))

	edge := m.At(50+27, 50)
	assert.Greater(t, edge, 0.0)
	assert.Less(t, edge, 1.0)
}

func TestSkinToneMask(t *testing.T) {
	img := createFaceImage(80, 80)
	m := SkinToneMask(img, 0)
	assert.Equal(t, 1.0, m.At(40, 41))
	assert.Zero(t, m.At(1, 1))

	assert.True(t, IsSkinTone(skin))
	assert.False(t, IsSkinTone(color.NRGBA{R: 30, G: 60, B: 160, A: 255}))
	assert.False(t, IsSkinTone(color.NRGBA{R: 128, G: 128, B: 128, A: 255}))
}
