package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/skin-analyzer/pkg/processing"
	"github.com/menta2k/skin-analyzer/pkg/types"
)

var palette = map[types.ProblemType]color.NRGBA{
	types.Acne:       {R: 255, G: 82, B: 82, A: 255},
	types.Wrinkle:    {R: 255, G: 171, B: 64, A: 255},
	types.DarkCircle: {R: 124, G: 77, B: 255, A: 255},
	types.Pore:       {R: 64, G: 196, B: 255, A: 255},
	types.DarkSpot:   {R: 141, G: 110, B: 99, A: 255},
	types.Redness:    {R: 255, G: 64, B: 129, A: 255},
}

var labels = map[types.ProblemType]string{
	types.Acne:       "Acne",
	types.Wrinkle:    "Wrinkles",
	types.DarkCircle: "Dark circles",
	types.Pore:       "Pores",
	types.DarkSpot:   "Dark spots",
	types.Redness:    "Redness",
}

var (
	markerFallback = color.NRGBA{R: 158, G: 158, B: 158, A: 255}
	labelText      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	watermarkBack  = color.NRGBA{R: 0, G: 0, B: 0, A: 90}
	watermarkText  = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
)

// MarkerColor returns the palette colour for a problem type
func MarkerColor(t types.ProblemType) color.NRGBA {
	if c, ok := palette[t]; ok {
		return c
	}
	return markerFallback
}

// Label returns the marker caption for a problem
func Label(p types.SkinProblem) string {
	name, ok := labels[p.Type]
	if !ok {
		name = string(p.Type)
	}
	return fmt.Sprintf("%s %d", name, int(math.Round(p.Severity)))
}

// DrawMarkers draws a dashed box and a filled caption per problem onto canvas
func DrawMarkers(canvas *image.NRGBA, problems []types.SkinProblem, stroke, dash int) {
	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + 2

	for _, p := range problems {
		c := MarkerColor(p.Type)
		box := p.Location.Rect(w, h).Add(canvas.Rect.Min)
		processing.DrawDashedBox(canvas, box, c, stroke, dash)

		text := Label(p)
		textWidth := font.MeasureString(face, text).Ceil() + 4

		top := box.Min.Y - lineHeight
		if top < canvas.Rect.Min.Y {
			top = box.Min.Y
		}
		tag := image.Rect(box.Min.X, top, box.Min.X+textWidth, top+lineHeight)
		processing.FillRect(canvas, tag, c)
		drawText(canvas, face, text, tag.Min.X+2, tag.Min.Y+1+metrics.Ascent.Ceil(), labelText)
	}
}

// Watermark stamps a translucent caption into the lower-right corner and
// returns the stamped area
func Watermark(canvas *image.NRGBA, text string) image.Rectangle {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	const pad, margin = 4, 6

	tw := font.MeasureString(face, text).Ceil()
	th := metrics.Height.Ceil()
	b := canvas.Rect
	area := image.Rect(b.Max.X-margin-tw-2*pad, b.Max.Y-margin-th-2*pad, b.Max.X-margin, b.Max.Y-margin)
	if area.Min.X < b.Min.X {
		area = area.Add(image.Pt(b.Min.X-area.Min.X, 0))
	}
	if area.Min.Y < b.Min.Y {
		area = area.Add(image.Pt(0, b.Min.Y-area.Min.Y))
	}
	area = area.Intersect(b)
	if area.Empty() {
		return area
	}

	draw.Draw(canvas, area, image.NewUniform(watermarkBack), image.Point{}, draw.Over)
	drawText(canvas, face, text, area.Min.X+pad, area.Min.Y+pad+metrics.Ascent.Ceil(), watermarkText)
	return area
}

func drawText(dst draw.Image, face font.Face, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
