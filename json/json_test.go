package json

import (
	"bytes"
	stdjson "encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type thumbOptions struct {
	Width   int    `json:"width" default:"200"`
	Height  int    `json:"height" default:"200"`
	Mode    string `json:"mode" default:"cut"`
	Enabled bool   `json:"enabled" default:"true"`
}

func TestMarshalAppliesDefaults(t *testing.T) {
	opts := &thumbOptions{Mode: "stretch"}

	data, err := Marshal(opts)
	require.NoError(t, err)

	assert.Equal(t, 200, opts.Width)
	assert.Equal(t, "stretch", opts.Mode)

	var decoded thumbOptions
	require.NoError(t, stdjson.Unmarshal(data, &decoded))
	assert.Equal(t, *opts, decoded)
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  thumbOptions
	}{
		{
			name:  "missing fields take defaults",
			input: `{"width":64}`,
			want:  thumbOptions{Width: 64, Height: 200, Mode: "cut", Enabled: true},
		},
		{
			name:  "explicit zero values survive",
			input: `{"width":0,"height":0,"mode":"","enabled":false}`,
			want:  thumbOptions{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got thumbOptions
			require.NoError(t, Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNonStructValuesPassThrough(t *testing.T) {
	data, err := Marshal([]map[string]any{{"a": 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1}]`, string(data))

	var m map[string]int
	require.NoError(t, Unmarshal([]byte(`{"x":2}`), &m))
	assert.Equal(t, 2, m["x"])
}

func TestDecoderDisallowUnknownFields(t *testing.T) {
	dec := NewDecoder(bytes.NewReader([]byte(`{"width":1,"bogus":true}`)))
	dec.DisallowUnknownFields()

	var opts thumbOptions
	assert.Error(t, dec.Decode(&opts))
}

func TestEncoderAppliesDefaults(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	require.NoError(t, enc.Encode(&thumbOptions{Mode: "<crop>"}))
	assert.Contains(t, buf.String(), `"mode":"<crop>"`)
	assert.Contains(t, buf.String(), `"width":200`)
}
