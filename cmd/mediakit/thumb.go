package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/media/queue"
	"github.com/leeforge/mediakit/media/storage"
	"github.com/leeforge/mediakit/media/thumbnail"
)

type thumbOptions struct {
	input   string
	output  string
	dir     string
	outDir  string
	width   int
	height  int
	mode    string
	format  string
	strict  bool
	upload  bool
	workers int
	retries int
}

const retryBackoff = 500 * time.Millisecond

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

func newThumbCmd(a *app) *cobra.Command {
	var opts thumbOptions
	cmd := &cobra.Command{
		Use:   "thumb",
		Short: "Render a thumbnail, or every image in a directory",
		Example: "  mediakit thumb -i photo.jpg -o thumb.png -W 100 -H 100 -m cut\n" +
			"  mediakit thumb --dir photos --out thumbs -m w --workers 8",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runThumb(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "source image")
	f.StringVarP(&opts.output, "output", "o", "", "destination image; extension picks the format")
	f.StringVar(&opts.dir, "dir", "", "batch mode: directory of source images")
	f.StringVar(&opts.outDir, "out", "", "batch mode: output directory")
	f.IntVarP(&opts.width, "width", "W", 0, "target width (default from config)")
	f.IntVarP(&opts.height, "height", "H", 0, "target height (default from config)")
	f.StringVarP(&opts.mode, "mode", "m", "", "hw|w|h|cut (default from config)")
	f.StringVarP(&opts.format, "format", "f", "", "png or jpeg; overrides the extension")
	f.BoolVar(&opts.strict, "strict", false, "do not auto-correct w/h modes")
	f.BoolVar(&opts.upload, "upload", false, "batch mode: upload results to the configured storage")
	f.IntVar(&opts.workers, "workers", 0, "batch mode: parallel workers (default from config)")
	f.IntVar(&opts.retries, "retries", 2, "batch mode: retries for storage failures")

	cmd.MarkFlagsRequiredTogether("input", "output")
	cmd.MarkFlagsRequiredTogether("dir", "out")
	cmd.MarkFlagsOneRequired("input", "dir")
	cmd.MarkFlagsMutuallyExclusive("input", "dir")
	return cmd
}

func (a *app) thumbRequest(opts thumbOptions) (thumbnail.Request, error) {
	req := thumbnail.Request{
		Width:  a.cfg.Thumbnail.Width,
		Height: a.cfg.Thumbnail.Height,
		Strict: opts.strict,
	}
	if opts.width > 0 {
		req.Width = opts.width
	}
	if opts.height > 0 {
		req.Height = opts.height
	}
	modeName := a.cfg.Thumbnail.Mode
	if opts.mode != "" {
		modeName = opts.mode
	}
	mode, err := thumbnail.ParseMode(modeName)
	if err != nil {
		return req, err
	}
	req.Mode = mode
	if req.Format, err = thumbnail.ParseFormat(opts.format); err != nil {
		return req, err
	}
	return req, nil
}

func (a *app) runThumb(cmd *cobra.Command, opts thumbOptions) error {
	req, err := a.thumbRequest(opts)
	if err != nil {
		return err
	}
	th, err := a.thumbnailer()
	if err != nil {
		return err
	}

	if opts.dir == "" {
		res, err := th.MakeFile(cmd.Context(), opts.input, opts.output, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%dx%d %s, %d bytes)\n",
			opts.input, opts.output, res.Plan.CanvasWidth, res.Plan.CanvasHeight, res.Plan.Effective, res.Bytes)
		return nil
	}
	return a.runThumbBatch(cmd, opts, th, req)
}

func (a *app) runThumbBatch(cmd *cobra.Command, opts thumbOptions, th *thumbnail.Thumbnailer, req thumbnail.Request) error {
	jobs, err := batchJobs(opts.dir, opts.outDir, req)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no images in %s\n", opts.dir)
		return nil
	}

	workers := a.cfg.Thumbnail.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Thumbnails"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	poolOpts := []queue.Option{
		queue.WithWorkers(workers),
		queue.WithRetries(opts.retries, retryBackoff),
		queue.WithLogger(a.logger.Named("queue")),
		queue.WithProgress(func(completed, failed, total int) {
			_ = bar.Set(completed + failed)
		}),
	}
	if opts.upload {
		provider, err := storage.NewFromConfig(cmd.Context(), a.cfg.Storage)
		if err != nil {
			return err
		}
		poolOpts = append(poolOpts, queue.WithStorage(provider))
		for i := range jobs {
			jobs[i].UploadKey = "thumbnails/" + filepath.Base(jobs[i].Dest)
		}
	}

	results := queue.NewPool(th, poolOpts...).Run(cmd.Context(), jobs)
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
			a.logger.Warn("thumbnail failed", zap.String("source", r.Job.Source), zap.Error(r.Err))
			fmt.Fprintf(out, "FAIL %s: %v\n", r.Job.Source, r.Err)
			continue
		}
		line := fmt.Sprintf("ok   %s -> %s", r.Job.Source, r.Job.Dest)
		if r.URL != "" {
			line += " " + r.URL
		}
		fmt.Fprintln(out, line)
	}
	if failed > 0 {
		return apperrors.Newf(apperrors.ErrorTypeInternal, "%d of %d thumbnails failed", failed, len(results))
	}
	return nil
}

// batchJobs lists the images directly inside dir. JPEG sources keep a .jpg
// output unless req.Format says otherwise; everything else becomes PNG.
// When two sources would share an output name, such as a.png and a.gif, the
// one whose name differs from that output keeps its full name: a.gif.png.
func batchJobs(dir, outDir string, req thumbnail.Request) ([]queue.Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeSourceUnreadable, "read input directory").
			WithDetail("path", dir)
	}

	type candidate struct {
		name, ext, out string
	}
	var found []candidate
	claims := make(map[string]int)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !imageExts[ext] {
			continue
		}
		format := req.Format
		if format == "" {
			format = thumbnail.FormatFromPath(e.Name())
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		c := candidate{name: e.Name(), ext: format.Ext(), out: stem + format.Ext()}
		found = append(found, c)
		claims[c.out]++
	}

	jobs := make([]queue.Job, 0, len(found))
	sources := make(map[string]string, len(found))
	for _, c := range found {
		out := c.out
		if claims[out] > 1 && c.name != out {
			out = c.name + c.ext
		}
		if prev, ok := sources[out]; ok {
			return nil, apperrors.Newf(apperrors.ErrorTypeConflict, "%s and %s both write %s", prev, c.name, out).
				WithDetail("path", filepath.Join(outDir, out))
		}
		sources[out] = c.name
		jobs = append(jobs, queue.Job{
			Source:  filepath.Join(dir, c.name),
			Dest:    filepath.Join(outDir, out),
			Request: req,
		})
	}
	return jobs, nil
}
