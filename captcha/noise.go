package captcha

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

const (
	speckleCount = 100
	lineCount    = 10

	// noiseCeiling caps each noise channel to keep noise dark on white.
	noiseCeiling = 100
	maxStroke    = 5
)

func noiseColor(rng RandomSource) color.RGBA {
	return color.RGBA{
		R: uint8(rng.Intn(noiseCeiling + 1)),
		G: uint8(rng.Intn(noiseCeiling + 1)),
		B: uint8(rng.Intn(noiseCeiling + 1)),
		A: 0xff,
	}
}

func drawSpeckles(dst *image.RGBA, rng RandomSource) {
	b := dst.Bounds()
	for i := 0; i < speckleCount; i++ {
		x := rng.Intn(b.Dx())
		y := rng.Intn(b.Dy())
		dst.SetRGBA(b.Min.X+x, b.Min.Y+y, noiseColor(rng))
	}
}

func drawLines(dst *image.RGBA, rng RandomSource) {
	b := dst.Bounds()
	for i := 0; i < lineCount; i++ {
		x1, y1 := rng.Intn(b.Dx()), rng.Intn(b.Dy())
		x2, y2 := rng.Intn(b.Dx()), rng.Intn(b.Dy())
		c := noiseColor(rng)
		stroke := rng.Intn(maxStroke)
		strokeLine(dst, x1, y1, x2, y2, stroke, c)
	}
}

// strokeLine fills the quad around the segment between two pixel centers.
// A stroke of zero is drawn as a one pixel hairline.
func strokeLine(dst *image.RGBA, x1, y1, x2, y2, stroke int, c color.Color) {
	w := float64(stroke)
	if w < 1 {
		w = 1
	}
	ax, ay := float64(x1)+0.5, float64(y1)+0.5
	bx, by := float64(x2)+0.5, float64(y2)+0.5

	dx, dy := bx-ax, by-ay
	length := math.Hypot(dx, dy)
	if length == 0 {
		// Degenerate segment: a square dot.
		dx, dy, length = 1, 0, 1
		ax -= w / 2
		bx += w / 2
	}
	// Unit normal scaled to half the stroke.
	nx, ny := -dy/length*w/2, dx/length*w/2

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(ax+nx), float32(ay+ny))
	z.LineTo(float32(bx+nx), float32(by+ny))
	z.LineTo(float32(bx-nx), float32(by-ny))
	z.LineTo(float32(ax-nx), float32(ay-ny))
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}
