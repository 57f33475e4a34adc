// Package thumbnail resolves thumbnail geometry and renders thumbnails from
// image streams and files.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/logging"
)

// Format is an output container.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts png, jpg and jpeg. Empty returns "".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", apperrors.InvalidArgument("format", s, "expected png or jpeg")
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// FormatFromPath derives the format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	if f, err := imaging.FormatFromFilename(path); err == nil && f == imaging.JPEG {
		return FormatJPEG
	}
	return FormatPNG
}

// Request is a thumbnail request without the source dimensions, which come
// from the decoded image.
type Request struct {
	Width  int
	Height int
	Mode   Mode
	Strict bool
	// Format overrides the output container. Empty means PNG for streams
	// and the destination extension for files.
	Format Format
}

// Result describes a rendered thumbnail.
type Result struct {
	SourceWidth  int
	SourceHeight int
	Plan         ResizePlan
	Format       Format
	Bytes        int64
}

// DefaultMaxPixels caps the decoded source area at 50 megapixels.
const DefaultMaxPixels = 50_000_000

// Options configures a Thumbnailer.
type Options struct {
	Interpolation Interpolation
	JPEGQuality   int
	// MaxPixels rejects sources whose header declares a larger area,
	// before any pixel buffer is allocated. Zero or less disables the check.
	MaxPixels int64
	Logger    logging.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithInterpolation selects the resampling kernel.
func WithInterpolation(i Interpolation) Option {
	return func(o *Options) { o.Interpolation = i }
}

// WithJPEGQuality sets the JPEG quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(o *Options) { o.JPEGQuality = q }
}

// WithMaxPixels sets the largest accepted source area in pixels.
func WithMaxPixels(n int64) Option {
	return func(o *Options) { o.MaxPixels = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Thumbnailer decodes, resizes and encodes thumbnails. It is safe for
// concurrent use.
type Thumbnailer struct {
	opts Options
}

// New creates a Thumbnailer.
func New(opts ...Option) *Thumbnailer {
	o := Options{
		Interpolation: DefaultInterpolation,
		JPEGQuality:   85,
		MaxPixels:     DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.Named("thumbnail")
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		o.JPEGQuality = 85
	}
	return &Thumbnailer{opts: o}
}

// Make reads an image from src and writes the thumbnail to dst.
func (t *Thumbnailer) Make(ctx context.Context, src io.Reader, dst io.Writer, req Request) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return Result{}, apperrors.InvalidArgument("size", [2]int{req.Width, req.Height}, "width and height must be positive")
	}
	if !req.Mode.Valid() {
		return Result{}, apperrors.InvalidArgument("mode", int(req.Mode), "unknown mode")
	}

	img, err := decode(src, t.opts.MaxPixels)
	if err != nil {
		return Result{}, err
	}

	b := img.Bounds()
	plan, err := Resolve(ResizeSpec{
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
		TargetWidth:  req.Width,
		TargetHeight: req.Height,
		Mode:         req.Mode,
		Strict:       req.Strict,
	})
	if err != nil {
		return Result{}, err
	}

	canvas := Rasterize(img, plan, t.opts.Interpolation)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	format := req.Format
	if format == "" {
		format = FormatPNG
	}
	n, err := t.encode(dst, canvas, format)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
		Plan:         plan,
		Format:       format,
		Bytes:        n,
	}
	t.opts.Logger.Debug("thumbnail rendered",
		zap.Int("source_width", res.SourceWidth),
		zap.Int("source_height", res.SourceHeight),
		zap.Stringer("mode", plan.Effective),
		zap.Int("canvas_width", plan.CanvasWidth),
		zap.Int("canvas_height", plan.CanvasHeight),
		zap.Int64("bytes", n),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// MakeFile renders srcPath into dstPath. The output format follows
// req.Format, else the destination extension. The thumbnail is written to a
// temporary file in the destination directory and renamed over dstPath only
// on success, so a failed render leaves any existing file untouched.
func (t *Thumbnailer) MakeFile(ctx context.Context, srcPath, dstPath string, req Request) (Result, error) {
	in, err := os.Open(srcPath)
	if err != nil {
		return Result{}, apperrors.WrapWithType(err, apperrors.ErrorTypeSourceUnreadable, "open source").
			WithDetail("path", srcPath)
	}
	defer in.Close()

	if req.Format == "" {
		req.Format = FormatFromPath(dstPath)
	}

	dir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, destinationError(err, "create destination directory", dstPath)
	}
	tmp, err := os.CreateTemp(dir, ".thumb-*")
	if err != nil {
		return Result{}, destinationError(err, "create destination", dstPath)
	}
	defer os.Remove(tmp.Name())

	res, err := t.Make(ctx, in, tmp, req)
	if err != nil {
		tmp.Close()
		return Result{}, err
	}
	if err := tmp.Close(); err != nil {
		return Result{}, destinationError(err, "close destination", dstPath)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return Result{}, destinationError(err, "chmod destination", dstPath)
	}
	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		return Result{}, destinationError(err, "rename destination", dstPath)
	}
	return res, nil
}

func destinationError(err error, msg, path string) error {
	return apperrors.WrapWithType(err, apperrors.ErrorTypeDestinationUnwritable, msg).WithDetail("path", path)
}

// decode reads the header first and rejects sources larger than maxPixels,
// then decodes the header bytes followed by the rest of src.
func decode(src io.Reader, maxPixels int64) (image.Image, error) {
	r := &trackingReader{r: src}

	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, decodeError(r, err)
	}
	if area := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && area > maxPixels {
		return nil, apperrors.InvalidArgument("source", [2]int{cfg.Width, cfg.Height}, "image exceeds the pixel limit").
			WithDetail("max_pixels", maxPixels)
	}

	img, err := imaging.Decode(io.MultiReader(&head, r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, decodeError(r, err)
	}
	return img, nil
}

func decodeError(r *trackingReader, err error) error {
	if r.err != nil {
		return apperrors.WrapWithType(r.err, apperrors.ErrorTypeSourceUnreadable, "read source")
	}
	return apperrors.WrapWithType(err, apperrors.ErrorTypeDecodeFailed, "decode source")
}

func (t *Thumbnailer) encode(dst io.Writer, img image.Image, format Format) (int64, error) {
	w := &trackingWriter{w: dst}
	var err error
	if format == FormatJPEG {
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(t.opts.JPEGQuality))
	} else {
		err = imaging.Encode(w, img, imaging.PNG)
	}
	if err != nil {
		if w.err != nil {
			return w.n, apperrors.WrapWithType(w.err, apperrors.ErrorTypeDestinationUnwritable, "write destination")
		}
		return w.n, apperrors.WrapWithType(err, apperrors.ErrorTypeEncodeFailed, "encode thumbnail")
	}
	return w.n, nil
}

// trackingReader remembers the first non-EOF read error so decode failures
// caused by I/O can be told apart from malformed data.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}

type trackingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	t.n += int64(n)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}
