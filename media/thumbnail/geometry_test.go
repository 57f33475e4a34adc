package thumbnail

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/mediakit/errors"
)

func TestResolve_StretchIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		sw, sh := 1+rng.Intn(4000), 1+rng.Intn(4000)
		tw, th := 1+rng.Intn(800), 1+rng.Intn(800)

		plan, err := Resolve(ResizeSpec{sw, sh, tw, th, ModeStretch, false})
		require.NoError(t, err)

		assert.Equal(t, tw, plan.CanvasWidth)
		assert.Equal(t, th, plan.CanvasHeight)
		assert.Equal(t, image.Rect(0, 0, sw, sh), plan.Source)
		assert.Equal(t, ModeStretch, plan.Effective)
	}
}

func TestResolve_FitWidthInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		sw, sh := 1+rng.Intn(4000), 1+rng.Intn(4000)
		tw, th := 1+rng.Intn(800), 1+rng.Intn(800)

		for _, strict := range []bool{true, false} {
			plan, err := Resolve(ResizeSpec{sw, sh, tw, th, ModeFitWidth, strict})
			require.NoError(t, err)
			if plan.Effective != ModeFitWidth {
				require.False(t, strict, "strict mode must not be auto-corrected")
				continue
			}

			want := sh * tw / sw
			if want < 1 {
				want = 1
			}
			assert.Equal(t, tw, plan.CanvasWidth)
			assert.Equal(t, want, plan.CanvasHeight)
			assert.Equal(t, image.Rect(0, 0, sw, sh), plan.Source)
		}
	}
}

func TestResolve_FitHeightStrict(t *testing.T) {
	plan, err := Resolve(ResizeSpec{SourceWidth: 300, SourceHeight: 200, TargetWidth: 50, TargetHeight: 100, Mode: ModeFitHeight, Strict: true})
	require.NoError(t, err)

	assert.Equal(t, ModeFitHeight, plan.Effective)
	assert.Equal(t, 150, plan.CanvasWidth)
	assert.Equal(t, 100, plan.CanvasHeight)
}

func TestResolve_CenterCropContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		sw, sh := 1+rng.Intn(3000), 1+rng.Intn(3000)
		tw, th := 1+rng.Intn(600), 1+rng.Intn(600)

		plan, err := Resolve(ResizeSpec{sw, sh, tw, th, ModeCenterCrop, false})
		require.NoError(t, err)

		assert.Equal(t, tw, plan.CanvasWidth)
		assert.Equal(t, th, plan.CanvasHeight)
		assert.False(t, plan.Source.Empty())
		assert.True(t, plan.Source.In(image.Rect(0, 0, sw, sh)),
			"source %v escapes %dx%d for target %dx%d", plan.Source, sw, sh, tw, th)
	}
}

func TestResolve_CenterCropCentering(t *testing.T) {
	tests := []struct {
		name   string
		spec   ResizeSpec
		source image.Rectangle
	}{
		{
			name:   "wide source crops horizontally",
			spec:   ResizeSpec{SourceWidth: 400, SourceHeight: 100, TargetWidth: 100, TargetHeight: 100, Mode: ModeCenterCrop},
			source: image.Rect(150, 0, 250, 100),
		},
		{
			name:   "tall source crops vertically",
			spec:   ResizeSpec{SourceWidth: 100, SourceHeight: 300, TargetWidth: 100, TargetHeight: 50, Mode: ModeCenterCrop},
			source: image.Rect(0, 125, 100, 175),
		},
		{
			name:   "same ratio keeps everything",
			spec:   ResizeSpec{SourceWidth: 200, SourceHeight: 100, TargetWidth: 20, TargetHeight: 10, Mode: ModeCenterCrop},
			source: image.Rect(0, 0, 200, 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Resolve(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.source, plan.Source)
		})
	}
}

func TestResolve_AutoModeTieBreak(t *testing.T) {
	plan, err := Resolve(ResizeSpec{SourceWidth: 200, SourceHeight: 100, TargetWidth: 100, TargetHeight: 100, Mode: ModeFitWidth})
	require.NoError(t, err)

	assert.Equal(t, ModeFitHeight, plan.Effective)
	assert.Equal(t, 200, plan.CanvasWidth)
	assert.Equal(t, 100, plan.CanvasHeight)
	assert.Equal(t, image.Rect(0, 0, 200, 100), plan.Source)

	// Same input requested as FitHeight resolves identically.
	again, err := Resolve(ResizeSpec{SourceWidth: 200, SourceHeight: 100, TargetWidth: 100, TargetHeight: 100, Mode: ModeFitHeight})
	require.NoError(t, err)
	assert.Equal(t, plan, again)
}

func TestResolve_AutoModeEqualDistanceKeepsWidth(t *testing.T) {
	// Square source: width/height and height/width ratios are both 1.
	plan, err := Resolve(ResizeSpec{SourceWidth: 100, SourceHeight: 100, TargetWidth: 50, TargetHeight: 25, Mode: ModeFitHeight})
	require.NoError(t, err)

	assert.Equal(t, ModeFitWidth, plan.Effective)
	assert.Equal(t, 50, plan.CanvasWidth)
	assert.Equal(t, 50, plan.CanvasHeight)
}

func TestResolve_DegenerateSizesClampToOne(t *testing.T) {
	plan, err := Resolve(ResizeSpec{SourceWidth: 1000, SourceHeight: 1, TargetWidth: 10, TargetHeight: 10, Mode: ModeFitWidth, Strict: true})
	require.NoError(t, err)
	assert.Equal(t, 1, plan.CanvasHeight)
}

func TestResolve_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		spec ResizeSpec
	}{
		{"zero source width", ResizeSpec{0, 10, 10, 10, ModeStretch, false}},
		{"negative source height", ResizeSpec{10, -1, 10, 10, ModeStretch, false}},
		{"zero target width", ResizeSpec{10, 10, 0, 10, ModeStretch, false}},
		{"zero target height", ResizeSpec{10, 10, 10, 0, ModeStretch, false}},
		{"unknown mode", ResizeSpec{10, 10, 10, 10, Mode(42), false}},
		{"unset mode", ResizeSpec{10, 10, 10, 10, 0, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"hw", ModeStretch},
		{"Stretch", ModeStretch},
		{"w", ModeFitWidth},
		{"width", ModeFitWidth},
		{"H", ModeFitHeight},
		{" cut ", ModeCenterCrop},
		{"crop", ModeCenterCrop},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMode("zoom")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestModeText(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("cut")))
	assert.Equal(t, ModeCenterCrop, m)

	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "cut", string(b))
	assert.Equal(t, "unknown", Mode(0).String())
}
