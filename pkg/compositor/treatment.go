package compositor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// Profile is a product-specific colour grade
type Profile string

const (
	ProfileBrightening      Profile = "brightening"
	ProfileRednessReduction Profile = "redness_reduction"
)

// minTreatment skips pixels the map barely touches
const minTreatment = 0.02

var profileStrength = map[Profile]map[types.ProblemType]float64{
	ProfileBrightening: {
		types.DarkSpot:   1.0,
		types.DarkCircle: 0.9,
		types.Wrinkle:    0.5,
		types.Pore:       0.4,
		types.Acne:       0.3,
		types.Redness:    0.3,
	},
	ProfileRednessReduction: {
		types.Redness:    1.0,
		types.Acne:       0.9,
		types.Pore:       0.5,
		types.DarkSpot:   0.3,
		types.DarkCircle: 0.3,
		types.Wrinkle:    0.3,
	},
}

var productProfiles = map[string]Profile{
	"vitamin-c-moisturizer":     ProfileBrightening,
	"bha-exfoliant":             ProfileBrightening,
	"repairing-serum":           ProfileRednessReduction,
	"rescue-repair-moisturizer": ProfileRednessReduction,
}

// ProfileForProduct maps a catalog product key to its colour grade
func ProfileForProduct(key string) (Profile, bool) {
	p, ok := productProfiles[key]
	return p, ok
}

// Strength is the per-profile weight of a problem type
func Strength(profile Profile, t types.ProblemType) float64 {
	return profileStrength[profile][t]
}

// BuildTreatmentMap paints an elliptical falloff per problem, weighted by
// severity and profile strength. Overlaps keep the maximum.
func BuildTreatmentMap(w, h int, problems []types.SkinProblem, profile Profile) *Mask {
	m := NewMask(w, h)
	if w <= 0 || h <= 0 {
		return m
	}

	for _, p := range problems {
		weight := p.Severity / 100 * Strength(profile, p.Type)
		if weight <= 0 {
			continue
		}

		fx, fy, fw, fh := p.Location.Denormalize(w, h)
		cx, cy := fx+fw/2, fy+fh/2
		rx, ry := math.Max(fw/2, 1), math.Max(fh/2, 1)

		r := p.Location.Rect(w, h)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			dy := (float64(y) + 0.5 - cy) / ry
			for x := r.Min.X; x < r.Max.X; x++ {
				dx := (float64(x) + 0.5 - cx) / rx
				d := math.Sqrt(dx*dx + dy*dy)
				if d >= 1 {
					continue
				}
				m.raise(x, y, weight*(1-d))
			}
		}
	}
	return m
}

// ApplyTreatment grades every pixel the map reaches, scaled by its intensity
func ApplyTreatment(img image.Image, m *Mask, profile Profile) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	if m == nil || m.Width != w || m.Height != h {
		return out
	}

	var local *image.NRGBA
	if profile == ProfileBrightening {
		local = imaging.Blur(out, 6)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := m.At(x, y)
			if t < minTreatment {
				continue
			}
			i := out.PixOffset(x, y)
			r, g, b := float64(out.Pix[i]), float64(out.Pix[i+1]), float64(out.Pix[i+2])

			switch profile {
			case ProfileBrightening:
				ar, ag, ab := float64(local.Pix[i]), float64(local.Pix[i+1]), float64(local.Pix[i+2])
				r, g, b = brighten(r, g, b, ar, ag, ab, t)
			case ProfileRednessReduction:
				r, g, b = reduceRedness(r, g, b, t)
			}

			out.Pix[i] = clampByte(r)
			out.Pix[i+1] = clampByte(g)
			out.Pix[i+2] = clampByte(b)
		}
	}
	return out
}

// Treat builds the map for problems and applies the profile in one step
func Treat(img image.Image, problems []types.SkinProblem, profile Profile) *image.NRGBA {
	b := img.Bounds()
	return ApplyTreatment(img, BuildTreatmentMap(b.Dx(), b.Dy(), problems, profile), profile)
}

// brighten lifts toward white, then pulls the colour toward the local average
func brighten(r, g, b, ar, ag, ab, t float64) (float64, float64, float64) {
	lift := 0.18 * t
	r += (255 - r) * lift
	g += (255 - g) * lift
	b += (255 - b) * lift

	pull := 0.35 * t
	avg := (ar + ag + ab) / 3
	r += (avg + (ar-avg)*0.5 - r) * pull
	g += (avg + (ag-avg)*0.5 - g) * pull
	b += (avg + (ab-avg)*0.5 - b) * pull
	return r, g, b
}

// reduceRedness removes red excess over the other channels and hands part of it back to green and blue
func reduceRedness(r, g, b, t float64) (float64, float64, float64) {
	excess := r - (g+b)/2
	if excess <= 0 {
		return r, g, b
	}
	r -= excess * 0.5 * t
	g += excess * 0.15 * t
	b += excess * 0.1 * t
	return r, g, b
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
