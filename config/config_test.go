package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/mediakit/errors"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestParseEnvMode(t *testing.T) {
	tests := map[string]EnvMode{
		"":            DevMode,
		"dev":         DevMode,
		" PROD ":      ProdMode,
		"production":  ProdMode,
		"testing":     TestMode,
		"staging-eu1": DevMode,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseEnvMode(in), "input %q", in)
	}
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	cfg, loader, err := Load(Options{BasePath: t.TempDir(), Mode: TestMode})
	require.NoError(t, err)
	assert.Empty(t, loader.Files())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "cut", cfg.Thumbnail.Mode)
	assert.Equal(t, 85, cfg.Thumbnail.JPEGQuality)
	assert.Equal(t, int64(50_000_000), cfg.Thumbnail.MaxPixels)
	assert.Equal(t, 120, cfg.Captcha.Image.Width)
	assert.Equal(t, 40, cfg.Captcha.Image.Height)
	assert.Equal(t, 4, cfg.Captcha.Image.Length)
	assert.Equal(t, 5*time.Minute, cfg.Captcha.TTL)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "6379", cfg.Redis.Port)
}

func TestLoad_OverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  addr: ":9000"
thumbnail:
  width: 64
  mode: w
captcha:
  ttl: 2m
  image:
    length: 6
`)
	writeFile(t, dir, "config.test.yaml", `
thumbnail:
  width: 128
`)
	writeFile(t, dir, "config.production.yaml", `
thumbnail:
  width: 999
`)
	t.Setenv("CAPTCHA_IMAGE_WIDTH", "150")
	t.Setenv("LOGGING_FILE_NAME", "custom.log")

	cfg, loader, err := Load(Options{BasePath: dir, Mode: TestMode})
	require.NoError(t, err)
	assert.Len(t, loader.Files(), 2)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 128, cfg.Thumbnail.Width)
	assert.Equal(t, "w", cfg.Thumbnail.Mode)
	assert.Equal(t, 200, cfg.Thumbnail.Height)
	assert.Equal(t, 2*time.Minute, cfg.Captcha.TTL)
	assert.Equal(t, 6, cfg.Captcha.Image.Length)
	assert.Equal(t, 150, cfg.Captcha.Image.Width)
	assert.Equal(t, "custom.log", cfg.Logging.FileName)
}

func TestLoad_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
thumbnail:
  jpeg_quality: 500
`)
	_, _, err := Load(Options{BasePath: dir, Mode: TestMode})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "server: [unterminated")
	_, _, err := Load(Options{BasePath: dir, Mode: TestMode})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestLoader_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "thumbnail:\n  width: 10\n  height: 11\n")
	writeFile(t, dir, "config.test.yaml", "thumbnail:\n  width: 20\n")

	changed := make(chan fsnotify.Event, 4)
	loader, err := NewLoader(Options{
		BasePath: dir,
		Mode:     TestMode,
		Watch:    true,
		OnChange: func(e fsnotify.Event) { changed <- e },
	})
	require.NoError(t, err)

	cfg := &AppConfig{}
	require.NoError(t, loader.Bind(cfg))
	assert.Equal(t, 20, cfg.Thumbnail.Width)

	writeFile(t, dir, "config.test.yaml", "thumbnail:\n  width: 30\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Skip("file watch events unavailable in this environment")
	}

	width := func() int {
		loader.RLock()
		defer loader.RUnlock()
		return cfg.Thumbnail.Width
	}
	assert.Eventually(t, func() bool { return width() == 30 }, 5*time.Second, 20*time.Millisecond)

	loader.RLock()
	defer loader.RUnlock()
	assert.Equal(t, 11, cfg.Thumbnail.Height, "lower overlays survive a reload")
}

func TestLoader_WriteTo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "server:\n  addr: \":7000\"\n")
	loader, err := NewLoader(Options{BasePath: dir, Mode: TestMode})
	require.NoError(t, err)

	out := filepath.Join(dir, "export", "merged.yaml")
	require.NoError(t, loader.WriteTo(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":7000")
}
