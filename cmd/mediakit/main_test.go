package main

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/media/thumbnail"
	"github.com/leeforge/mediakit/sheet"
)

// run executes the root command against an empty config directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", t.TempDir(), "--env-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 3), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func pngSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestCaptchaCommand(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.png")
	second := filepath.Join(dir, "b.png")

	_, err := run(t, "captcha", "-t", "K7PX", "--seed", "42", "-o", first)
	require.NoError(t, err)
	_, err = run(t, "captcha", "-t", "K7PX", "--seed", "42", "-o", second)
	require.NoError(t, err)

	w, h := pngSize(t, first)
	assert.Equal(t, 120, w)
	assert.Equal(t, 40, h)

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	assert.Equal(t, a, b)

	out, err := run(t, "captcha", "-t", "AB", "-W", "60", "-H", "30", "-o", "-")
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
}

func TestCaptchaCommandRequiresText(t *testing.T) {
	_, err := run(t, "captcha", "-o", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestThumbCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 80, 40)

	dst := filepath.Join(dir, "out", "thumb.jpg")
	out, err := run(t, "thumb", "-i", src, "-o", dst, "-W", "20", "-H", "20", "-m", "cut")
	require.NoError(t, err)
	assert.Contains(t, out, "20x20 cut")

	w, h := pngSize(t, dst)
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)
}

func TestThumbCommandFlagRules(t *testing.T) {
	_, err := run(t, "thumb")
	assert.Error(t, err)

	_, err = run(t, "thumb", "-i", "a.png")
	assert.Error(t, err)

	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 10, 10)
	_, err = run(t, "thumb", "-i", src, "-o", filepath.Join(dir, "o.png"), "-m", "zoom")
	assert.Error(t, err)
}

func TestThumbCommandBatch(t *testing.T) {
	in := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "thumbs")
	writePNG(t, filepath.Join(in, "one.png"), 60, 30)
	writePNG(t, filepath.Join(in, "two.png"), 30, 60)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0o644))

	out, err := run(t, "thumb", "--dir", in, "--out", outDir, "-W", "16", "-H", "16", "-m", "hw", "--workers", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 thumbnails failed")
	assert.Contains(t, out, "FAIL "+filepath.Join(in, "broken.png"))

	for _, name := range []string{"one.png", "two.png"} {
		w, h := pngSize(t, filepath.Join(outDir, name))
		assert.Equal(t, 16, w)
		assert.Equal(t, 16, h)
	}
	assert.NoFileExists(t, filepath.Join(outDir, "broken.png"))
	assert.NoFileExists(t, filepath.Join(outDir, "notes.png"))
}

func TestBatchJobsDistinctDestinations(t *testing.T) {
	in := t.TempDir()
	for _, name := range []string{"a.png", "a.gif", "b.jpg", "b.jpeg", "c.bmp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte("x"), 0o644))
	}

	jobs, err := batchJobs(in, "out", thumbnail.Request{})
	require.NoError(t, err)

	dests := make(map[string]string, len(jobs))
	for _, j := range jobs {
		dests[filepath.Base(j.Source)] = j.Dest
	}
	assert.Equal(t, map[string]string{
		"a.gif":  filepath.Join("out", "a.gif.png"),
		"a.png":  filepath.Join("out", "a.png"),
		"b.jpeg": filepath.Join("out", "b.jpeg.jpg"),
		"b.jpg":  filepath.Join("out", "b.jpg"),
		"c.bmp":  filepath.Join("out", "c.png"),
	}, dests)
}

func TestBatchJobsUnresolvableCollision(t *testing.T) {
	in := t.TempDir()
	// a.gif falls back to a.gif.png, which a.gif.png itself already claims.
	for _, name := range []string{"a.png", "a.gif", "a.gif.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte("x"), 0o644))
	}

	_, err := batchJobs(in, "out", thumbnail.Request{})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestThumbCommandUsesEnvFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 50, 50)

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("THUMBNAIL_WIDTH=12\nTHUMBNAIL_HEIGHT=12\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("THUMBNAIL_WIDTH")
		os.Unsetenv("THUMBNAIL_HEIGHT")
	})

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", dir, "--env-file", envFile, "thumb", "-i", src, "-o", filepath.Join(dir, "t.png"), "-m", "hw"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	w, h := pngSize(t, filepath.Join(dir, "t.png"))
	assert.Equal(t, 12, w)
	assert.Equal(t, 12, h)
}

func TestSheetReadCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.xlsx")
	wb := sheet.New()
	require.NoError(t, sheet.WriteGrid(wb, 0, 0, 0, [][]any{
		{"Name", "Age"},
		{"Ada", 36},
		{"Linus", nil},
	}))
	require.NoError(t, wb.ExportFile(path))
	require.NoError(t, wb.Close())

	out, err := run(t, "sheet", "read", path, "--header")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, stdjson.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0]["Name"])
	assert.Equal(t, "36", got[0]["Age"])
	assert.Nil(t, got[1]["Age"])

	out, err = run(t, "sheet", "read", path, "--row", "1")
	require.NoError(t, err)
	got = nil
	require.NoError(t, stdjson.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Linus", got[1]["A"])

	_, err = run(t, "sheet", "read", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestServeRoutes(t *testing.T) {
	out, err := run(t, "serve", "--routes")
	require.NoError(t, err)
	assert.Contains(t, out, "POST   /thumbnails")
	assert.Contains(t, out, "GET    /captcha/image.png")
}
