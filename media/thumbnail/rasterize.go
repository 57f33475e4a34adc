package thumbnail

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	apperrors "github.com/leeforge/mediakit/errors"
)

// Interpolation names a resampling kernel.
type Interpolation string

const (
	InterpolationNearest    Interpolation = "nearest"
	InterpolationBilinear   Interpolation = "bilinear"
	InterpolationBicubic    Interpolation = "bicubic"
	InterpolationLanczos3   Interpolation = "lanczos3"
	InterpolationCatmullRom Interpolation = "catmullrom"
)

// DefaultInterpolation is used when none is configured.
const DefaultInterpolation = InterpolationLanczos3

// ParseInterpolation validates a kernel name. Empty selects the default.
func ParseInterpolation(s string) (Interpolation, error) {
	switch i := Interpolation(strings.ToLower(strings.TrimSpace(s))); i {
	case "":
		return DefaultInterpolation, nil
	case InterpolationNearest, InterpolationBilinear, InterpolationBicubic,
		InterpolationLanczos3, InterpolationCatmullRom:
		return i, nil
	}
	return "", apperrors.InvalidArgument("interpolation", s, "unknown kernel")
}

var nfntKernels = map[Interpolation]resize.InterpolationFunction{
	InterpolationNearest:  resize.NearestNeighbor,
	InterpolationBilinear: resize.Bilinear,
	InterpolationBicubic:  resize.Bicubic,
	InterpolationLanczos3: resize.Lanczos3,
}

// Rasterize allocates a transparent canvas of the plan's size and draws the
// plan's source rectangle of src scaled into it.
func Rasterize(src image.Image, plan ResizePlan, interp Interpolation) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, plan.CanvasWidth, plan.CanvasHeight))
	region := plan.Source.Add(src.Bounds().Min).Intersect(src.Bounds())
	if region.Empty() {
		return canvas
	}

	if interp == InterpolationCatmullRom {
		xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, region, xdraw.Over, nil)
		return canvas
	}

	kernel, ok := nfntKernels[interp]
	if !ok {
		kernel = resize.Lanczos3
	}
	// imaging.Crop rebases the region at the origin for nfnt.
	cropped := imaging.Crop(src, region)
	scaled := resize.Resize(uint(plan.CanvasWidth), uint(plan.CanvasHeight), cropped, kernel)
	xdraw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min, xdraw.Over)
	return canvas
}
