package captcha

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	apperrors "github.com/leeforge/mediakit/errors"
)

const (
	minGlyphSize   = 18
	glyphSizeRange = 19 // sizes 18..36
	xJitter        = 5
	yJitter        = 10 // offsets -5..4
)

// Renderer draws distorted text over speckle and line noise.
//
// Randomness is drawn in a fixed order: speckles, lines, then per glyph the
// family, size, color, x jitter and y jitter. A seeded source therefore
// gives byte-identical output.
type Renderer struct {
	faces FaceSource
}

// NewRenderer returns a Renderer using faces. Nil selects GoFonts.
func NewRenderer(faces FaceSource) *Renderer {
	if faces == nil {
		faces = GoFonts{}
	}
	return &Renderer{faces: faces}
}

// Render draws text on a width×height white canvas and returns it as PNG.
func (r *Renderer) Render(text string, width, height int, rng RandomSource) ([]byte, error) {
	switch {
	case strings.TrimSpace(text) == "":
		return nil, apperrors.InvalidArgument("text", text, "must not be blank")
	case width < 1:
		return nil, apperrors.InvalidArgument("width", width, "must be at least 1")
	case height < 1:
		return nil, apperrors.InvalidArgument("height", height, "must be at least 1")
	case rng == nil:
		return nil, apperrors.InvalidArgument("rng", nil, "random source required")
	}

	families := r.faces.Families()
	if len(families) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeRenderFailed, "no font families available")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, xdraw.Src)

	drawSpeckles(canvas, rng)
	drawLines(canvas, rng)

	lattice := width / utf8.RuneCountInString(text)
	i := 0
	for _, ch := range text {
		family := families[rng.Intn(len(families))]
		size := minGlyphSize + rng.Intn(glyphSizeRange)
		if err := r.drawGlyph(canvas, ch, i*lattice, family, size, rng); err != nil {
			return nil, err
		}
		i++
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeEncodeFailed, "encode captcha")
	}
	return buf.Bytes(), nil
}

// drawGlyph draws ch with its top-left near (cellX, vertical center). The
// face is released before returning on every path.
func (r *Renderer) drawGlyph(dst *image.RGBA, ch rune, cellX int, family string, size int, rng RandomSource) error {
	face, err := r.faces.Face(family, float64(size))
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeRenderFailed, "open font face").
			WithDetail("family", family).
			WithDetail("size", size)
	}
	defer face.Close()

	c := color.RGBA{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
		A: 0xff,
	}
	x := cellX + rng.Intn(xJitter)

	m := face.Metrics()
	fontHeight := m.Height.Ceil()
	y := (dst.Bounds().Dy()-fontHeight)/2 + rng.Intn(yJitter) - yJitter/2

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+m.Ascent.Ceil()),
	}
	d.DrawString(string(ch))
	return nil
}
