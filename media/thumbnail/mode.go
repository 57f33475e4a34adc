package thumbnail

import (
	"strings"

	apperrors "github.com/leeforge/mediakit/errors"
)

// Mode selects how a source is fitted into the target box.
type Mode int

const (
	// ModeStretch scales to exactly the target size, distorting if needed.
	ModeStretch Mode = iota + 1
	// ModeFitWidth keeps the target width; height follows the source ratio.
	ModeFitWidth
	// ModeFitHeight keeps the target height; width follows the source ratio.
	ModeFitHeight
	// ModeCenterCrop fills the target box without distortion, cropping the
	// centre of the source.
	ModeCenterCrop
)

var modeNames = map[Mode]string{
	ModeStretch:    "hw",
	ModeFitWidth:   "w",
	ModeFitHeight:  "h",
	ModeCenterCrop: "cut",
}

var modeAliases = map[string]Mode{
	"hw":      ModeStretch,
	"stretch": ModeStretch,
	"w":       ModeFitWidth,
	"width":   ModeFitWidth,
	"h":       ModeFitHeight,
	"height":  ModeFitHeight,
	"cut":     ModeCenterCrop,
	"crop":    ModeCenterCrop,
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts the short names (hw, w, h, cut) and the long names
// (stretch, width, height, crop), case-insensitively.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return 0, apperrors.InvalidArgument("mode", s, "expected one of hw, w, h, cut")
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
