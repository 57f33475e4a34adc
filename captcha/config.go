package captcha

import "time"

// Config configures the captcha Service.
type Config struct {
	Enabled bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled" default:"true"`
	TTL     time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl" default:"5m" validate:"gt=0"`

	GenerateLimit  int           `mapstructure:"generate_limit" json:"generateLimit" yaml:"generate_limit" default:"20" validate:"gte=0"`
	GenerateWindow time.Duration `mapstructure:"generate_window" json:"generateWindow" yaml:"generate_window" default:"1m"`

	MaxAttempts   int           `mapstructure:"max_attempts" json:"maxAttempts" yaml:"max_attempts" default:"5" validate:"gte=0"`
	AttemptWindow time.Duration `mapstructure:"attempt_window" json:"attemptWindow" yaml:"attempt_window" default:"10m"`

	Image ImageConfig `mapstructure:"image" json:"image" yaml:"image"`

	// Store selects memory or redis.
	Store string `mapstructure:"store" json:"store" yaml:"store" default:"memory" validate:"oneof=memory redis"`
}

// ImageConfig sizes the rendered challenge.
type ImageConfig struct {
	Width  int `mapstructure:"width" json:"width" yaml:"width" default:"120" validate:"gte=1"`
	Height int `mapstructure:"height" json:"height" yaml:"height" default:"40" validate:"gte=1"`
	Length int `mapstructure:"length" json:"length" yaml:"length" default:"4" validate:"gte=1,lte=16"`
}

// DefaultConfig mirrors the struct tag defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		TTL:            5 * time.Minute,
		GenerateLimit:  20,
		GenerateWindow: time.Minute,
		MaxAttempts:    5,
		AttemptWindow:  10 * time.Minute,
		Image:          ImageConfig{Width: 120, Height: 40, Length: 4},
		Store:          "memory",
	}
}
