package captcha

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/opentype"

	apperrors "github.com/leeforge/mediakit/errors"
)

// Bold candidate families, in selection order.
var goFamilies = []struct {
	name string
	ttf  []byte
}{
	{"Go Bold", gobold.TTF},
	{"Go Bold Italic", gobolditalic.TTF},
	{"Go Mono Bold", gomonobold.TTF},
	{"Go Mono Bold Italic", gomonobolditalic.TTF},
}

var (
	parseOnce   sync.Once
	parsedFonts map[string]*opentype.Font
	parseErr    error
)

func loadGoFonts() (map[string]*opentype.Font, error) {
	parseOnce.Do(func() {
		fonts := make(map[string]*opentype.Font, len(goFamilies))
		for _, f := range goFamilies {
			parsed, err := opentype.Parse(f.ttf)
			if err != nil {
				parseErr = apperrors.WrapWithType(err, apperrors.ErrorTypeRenderFailed, "parse font").
					WithDetail("family", f.name)
				return
			}
			fonts[f.name] = parsed
		}
		parsedFonts = fonts
	})
	return parsedFonts, parseErr
}

// GoFonts serves the bold Go font family. The fonts are parsed once per
// process and shared read-only.
type GoFonts struct{}

// Families lists the available family names.
func (GoFonts) Families() []string {
	names := make([]string, len(goFamilies))
	for i, f := range goFamilies {
		names[i] = f.name
	}
	return names
}

// Face opens a face at size points and 72 DPI, so one point is one pixel.
func (GoFonts) Face(family string, size float64) (font.Face, error) {
	fonts, err := loadGoFonts()
	if err != nil {
		return nil, err
	}
	f, ok := fonts[family]
	if !ok {
		return nil, apperrors.New(apperrors.ErrorTypeNotFound, "unknown font family").
			WithDetail("family", family)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
