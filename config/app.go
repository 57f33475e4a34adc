package config

import (
	"time"

	"github.com/leeforge/mediakit/captcha"
	"github.com/leeforge/mediakit/http/middleware"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/storage"
	"github.com/leeforge/mediakit/redis_client"
)

// AppConfig is the full mediakit configuration.
type AppConfig struct {
	Server    ServerConfig        `mapstructure:"server" json:"server" yaml:"server"`
	Logging   logging.Config      `mapstructure:"logging" json:"logging" yaml:"logging"`
	Thumbnail ThumbnailConfig     `mapstructure:"thumbnail" json:"thumbnail" yaml:"thumbnail"`
	Captcha   captcha.Config      `mapstructure:"captcha" json:"captcha" yaml:"captcha"`
	Storage   storage.Config      `mapstructure:"storage" json:"storage" yaml:"storage"`
	Redis     redis_client.Config `mapstructure:"redis" json:"redis" yaml:"redis"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" json:"addr" yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" json:"readTimeout" yaml:"read_timeout" default:"15s"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" json:"writeTimeout" yaml:"write_timeout" default:"30s"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" json:"maxUploadBytes" yaml:"max_upload_bytes" default:"20971520" validate:"gt=0"`

	CORS middleware.CORSConfig `mapstructure:"cors" json:"cors" yaml:"cors"`
}

type ThumbnailConfig struct {
	Width         int    `mapstructure:"width" json:"width" yaml:"width" default:"200" validate:"gte=1"`
	Height        int    `mapstructure:"height" json:"height" yaml:"height" default:"200" validate:"gte=1"`
	Mode          string `mapstructure:"mode" json:"mode" yaml:"mode" default:"cut" validate:"oneof=hw w h cut stretch width height crop"`
	Interpolation string `mapstructure:"interpolation" json:"interpolation" yaml:"interpolation" default:"lanczos3" validate:"oneof=nearest bilinear bicubic lanczos3 catmullrom"`
	JPEGQuality   int    `mapstructure:"jpeg_quality" json:"jpegQuality" yaml:"jpeg_quality" default:"85" validate:"gte=1,lte=100"`
	Workers       int    `mapstructure:"workers" json:"workers" yaml:"workers" default:"4" validate:"gte=1"`
	MaxPixels     int64  `mapstructure:"max_pixels" json:"maxPixels" yaml:"max_pixels" default:"50000000" validate:"gte=0"`
}

// Load reads and validates an AppConfig.
func Load(opts Options) (*AppConfig, *Loader, error) {
	loader, err := NewLoader(opts)
	if err != nil {
		return nil, nil, err
	}
	cfg := &AppConfig{}
	if err := loader.Bind(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}
