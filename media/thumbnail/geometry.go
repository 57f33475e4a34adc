package thumbnail

import (
	"image"
	"math"

	apperrors "github.com/leeforge/mediakit/errors"
)

// ResizeSpec describes a thumbnail request against a known source size.
type ResizeSpec struct {
	SourceWidth  int
	SourceHeight int
	TargetWidth  int
	TargetHeight int
	Mode         Mode

	// Strict disables aspect auto-correction of FitWidth/FitHeight.
	Strict bool
}

// ResizePlan is the resolved geometry: the canvas to allocate and the
// source rectangle to sample into it.
type ResizePlan struct {
	CanvasWidth  int
	CanvasHeight int
	Source       image.Rectangle
	// Effective is the mode actually applied after auto-correction.
	Effective Mode
}

// Validate checks that every dimension is positive and the mode is known.
func (s ResizeSpec) Validate() error {
	switch {
	case s.SourceWidth <= 0:
		return apperrors.InvalidArgument("source width", s.SourceWidth, "must be positive")
	case s.SourceHeight <= 0:
		return apperrors.InvalidArgument("source height", s.SourceHeight, "must be positive")
	case s.TargetWidth <= 0:
		return apperrors.InvalidArgument("target width", s.TargetWidth, "must be positive")
	case s.TargetHeight <= 0:
		return apperrors.InvalidArgument("target height", s.TargetHeight, "must be positive")
	case !s.Mode.Valid():
		return apperrors.InvalidArgument("mode", int(s.Mode), "unknown mode")
	}
	return nil
}

// Resolve computes the canvas size and source rectangle for spec.
//
// FitWidth and FitHeight are treated as a request to preserve the source
// ratio: unless Strict is set, the one whose ratio is closer to the
// requested target ratio wins. Computed sizes are truncated and never drop
// below one pixel.
func Resolve(spec ResizeSpec) (ResizePlan, error) {
	if err := spec.Validate(); err != nil {
		return ResizePlan{}, err
	}

	sw, sh := spec.SourceWidth, spec.SourceHeight
	tw, th := spec.TargetWidth, spec.TargetHeight

	mode := spec.Mode
	if !spec.Strict && (mode == ModeFitWidth || mode == ModeFitHeight) {
		mode = closerFit(sw, sh, tw, th)
	}

	plan := ResizePlan{
		CanvasWidth:  tw,
		CanvasHeight: th,
		Source:       image.Rect(0, 0, sw, sh),
		Effective:    mode,
	}

	switch mode {
	case ModeFitWidth:
		plan.CanvasHeight = mulDiv(sh, tw, sw)
	case ModeFitHeight:
		plan.CanvasWidth = mulDiv(sw, th, sh)
	case ModeCenterCrop:
		// sw/sh > tw/th, cross-multiplied to stay exact
		if int64(sw)*int64(th) > int64(tw)*int64(sh) {
			w := mulDiv(sh, tw, th)
			x := (sw - w) / 2
			plan.Source = image.Rect(x, 0, x+w, sh)
		} else {
			h := mulDiv(sw, th, tw)
			y := (sh - h) / 2
			plan.Source = image.Rect(0, y, sw, y+h)
		}
	}

	return plan, nil
}

// closerFit compares the requested ratio against the source's width/height
// and height/width ratios. A closer height/width match selects FitHeight;
// ties keep FitWidth.
func closerFit(sw, sh, tw, th int) Mode {
	requested := float64(tw) / float64(th)
	dw := math.Abs(requested - float64(sw)/float64(sh))
	dh := math.Abs(requested - float64(sh)/float64(sw))
	if dh < dw {
		return ModeFitHeight
	}
	return ModeFitWidth
}

// mulDiv returns a*b/c truncated, computed in 64 bits, clamped to >= 1.
func mulDiv(a, b, c int) int {
	v := int(int64(a) * int64(b) / int64(c))
	if v < 1 {
		return 1
	}
	return v
}
