package queue

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/storage"
	"github.com/leeforge/mediakit/media/thumbnail"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestPool_RunPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	var jobs []Job
	for i, size := range []int{40, 60, 80, 100, 120} {
		src := filepath.Join(dir, "src", string(rune('a'+i))+".png")
		require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
		writePNG(t, src, size, size/2)
		jobs = append(jobs, Job{
			Source:  src,
			Dest:    filepath.Join(dir, "out", string(rune('a'+i))+".png"),
			Request: thumbnail.Request{Width: 20, Height: 20, Mode: thumbnail.ModeCenterCrop},
		})
	}
	jobs = append(jobs, Job{
		Source:  filepath.Join(dir, "missing.png"),
		Dest:    filepath.Join(dir, "out", "missing.png"),
		Request: thumbnail.Request{Width: 20, Height: 20, Mode: thumbnail.ModeStretch},
	})

	var mu sync.Mutex
	var calls [][3]int
	pool := NewPool(thumbnail.New(thumbnail.WithLogger(logging.Nop())),
		WithWorkers(3),
		WithLogger(logging.Nop()),
		WithProgress(func(c, f, total int) {
			mu.Lock()
			calls = append(calls, [3]int{c, f, total})
			mu.Unlock()
		}),
	)

	results := pool.Run(context.Background(), jobs)
	require.Len(t, results, len(jobs))

	for i, r := range results[:5] {
		assert.Equal(t, jobs[i].Source, r.Job.Source)
		assert.True(t, r.OK(), "job %d: %v", i, r.Err)
		assert.Equal(t, []int{40, 60, 80, 100, 120}[i], r.Result.SourceWidth)
		assert.FileExists(t, jobs[i].Dest)
	}
	assert.ErrorIs(t, results[5].Err, apperrors.ErrSourceUnreadable)
	assert.Equal(t, 1, results[5].Attempts)

	require.Len(t, calls, len(jobs))
	last := calls[len(calls)-1]
	assert.Equal(t, [3]int{5, 1, 6}, last)
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{Source: "a"}, {Source: "b"}, {Source: "c"}}
	results := NewPool(&stubRenderer{}, WithWorkers(1), WithLogger(logging.Nop())).Run(ctx, jobs)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestPool_RetriesStorageFailures(t *testing.T) {
	r := &stubRenderer{failures: 2, err: apperrors.WrapWithType(errors.New("disk full"), apperrors.ErrorTypeDestinationUnwritable, "write")}
	pool := NewPool(r, WithRetries(3, time.Millisecond), WithLogger(logging.Nop()))

	results := pool.Run(context.Background(), []Job{{Source: "a", Dest: "b"}})
	require.True(t, results[0].OK())
	assert.Equal(t, 3, results[0].Attempts)
}

func TestPool_DoesNotRetryDecodeFailures(t *testing.T) {
	r := &stubRenderer{failures: 5, err: apperrors.ErrDecodeFailed}
	pool := NewPool(r, WithRetries(3, time.Millisecond), WithLogger(logging.Nop()))

	results := pool.Run(context.Background(), []Job{{Source: "a", Dest: "b"}})
	assert.ErrorIs(t, results[0].Err, apperrors.ErrDecodeFailed)
	assert.Equal(t, 1, results[0].Attempts)
}

func TestPool_UploadsToStorage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writePNG(t, src, 50, 50)

	store, err := storage.NewLocalProvider(filepath.Join(dir, "store"), "/media")
	require.NoError(t, err)

	pool := NewPool(thumbnail.New(thumbnail.WithLogger(logging.Nop())), WithStorage(store), WithLogger(logging.Nop()))
	results := pool.Run(context.Background(), []Job{{
		Source:    src,
		Dest:      filepath.Join(dir, "out.jpg"),
		Request:   thumbnail.Request{Width: 10, Height: 10, Mode: thumbnail.ModeStretch},
		UploadKey: "thumbs/out.jpg",
	}})

	require.True(t, results[0].OK(), "%v", results[0].Err)
	assert.Equal(t, "/media/thumbs/out.jpg", results[0].URL)
	assert.True(t, strings.HasSuffix(results[0].Job.Dest, ".jpg"))
	assert.FileExists(t, filepath.Join(dir, "store", "thumbs", "out.jpg"))
}

func TestProgressTracker(t *testing.T) {
	tr := NewProgressTracker(4)
	assert.Zero(t, tr.Percentage())
	tr.IncrementCompleted()
	tr.IncrementFailed()
	c, f, total := tr.Progress()
	assert.Equal(t, 1, c)
	assert.Equal(t, 1, f)
	assert.Equal(t, 4, total)
	assert.InDelta(t, 50.0, tr.Percentage(), 0.001)

	assert.Zero(t, NewProgressTracker(0).Percentage())
}

type stubRenderer struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (s *stubRenderer) MakeFile(ctx context.Context, _, _ string, _ thumbnail.Request) (thumbnail.Result, error) {
	if err := ctx.Err(); err != nil {
		return thumbnail.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return thumbnail.Result{}, s.err
	}
	return thumbnail.Result{Format: thumbnail.FormatPNG}, nil
}
